package threadid

import (
	"runtime"

	"github.com/moontrade/threadid/logger"
	"github.com/moontrade/threadid/pkg/util"
)

// Handle waits for a spawned thread.
type Handle struct {
	done chan struct{}
	err  error
}

// Join blocks until the thread has finished and detached. It returns the
// thread's panic, if any, as an error.
func (h *Handle) Join() error {
	<-h.done
	return h.err
}

// Done is closed once the thread has finished and detached.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Go runs fn on a new goroutine attached to the default domain.
func Go(fn func(t *Thread)) *Handle {
	return Default().Go(fn)
}

// GoNamed runs fn on a new named goroutine attached to the default domain.
func GoNamed(name string, fn func(t *Thread)) *Handle {
	return Default().Go(fn, WithName(name))
}

// GoLocked runs fn on a new goroutine locked to its own OS thread.
func GoLocked(fn func(t *Thread), opts ...Option) *Handle {
	return Default().GoLocked(fn, opts...)
}

// Run runs fn on the calling goroutine inside an attachment to the default
// domain.
func Run(fn func(t *Thread), opts ...Option) error {
	return Default().Run(fn, opts...)
}

// Go runs fn on a new goroutine. The goroutine is attached before fn starts
// and detached after it returns, even if it panics.
func (d *Domain) Go(fn func(t *Thread), opts ...Option) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = d.Run(fn, opts...)
	}()
	return h
}

// GoLocked is Go with the goroutine wired to a dedicated OS thread for its
// whole life. The thread records the OS thread id.
func (d *Domain) GoLocked(fn func(t *Thread), opts ...Option) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		locked := make([]Option, 0, len(opts)+1)
		locked = append(locked, opts...)
		h.err = d.Run(fn, append(locked, WithOSThread())...)
	}()
	return h
}

// Run attaches the calling goroutine, runs fn and detaches. A panic in fn
// is recovered and returned as an error after the thread has detached.
func (d *Domain) Run(fn func(t *Thread), opts ...Option) (err error) {
	t := d.Attach(opts...)
	defer func() {
		t.Detach()
		if e := recover(); e != nil {
			err = util.PanicToError(e)
			logger.WarnErr(err, "goroutine %d %q panicked", t.std.goid, t.name)
		}
	}()
	fn(t)
	return nil
}

// Current returns the calling goroutine's thread in the default domain.
func Current() (*Thread, bool) {
	return Default().Current()
}

// CurrentLiveID returns the calling goroutine's live id in the default domain.
func CurrentLiveID() (LiveID, error) {
	return Default().LiveID()
}

// CurrentUniqueID returns the calling goroutine's unique id in the default
// domain.
func CurrentUniqueID() (UniqueID, error) {
	return Default().UniqueID()
}
