//go:build windows

package threadx

import "golang.org/x/sys/windows"

const Supported = true

func CurrentThreadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
