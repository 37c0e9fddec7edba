//go:build !linux && !windows

package threadx

const Supported = false

// CurrentThreadID always returns 0 where the platform offers no thread id
// through golang.org/x/sys.
func CurrentThreadID() uint64 {
	return 0
}
