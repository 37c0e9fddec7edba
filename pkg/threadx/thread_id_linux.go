//go:build linux

package threadx

import "golang.org/x/sys/unix"

// Supported reports whether CurrentThreadID returns real OS thread ids.
const Supported = true

// CurrentThreadID returns the kernel thread id of the OS thread running the
// caller. Unless the goroutine is locked with runtime.LockOSThread the
// answer may be stale by the time it is used.
func CurrentThreadID() uint64 {
	return uint64(unix.Gettid())
}
