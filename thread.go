package threadid

import (
	"github.com/moontrade/threadid/logger"
	"github.com/moontrade/threadid/pkg/gid"
	"github.com/moontrade/threadid/pkg/slots"
	"github.com/moontrade/threadid/pkg/threadx"
	"github.com/moontrade/threadid/pkg/util"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

type cacheState uint8

const (
	uninitialized cacheState = iota
	cached
	released
)

// Thread is the per-goroutine record of an attached goroutine. It caches
// the goroutine's ids after their first computation, so later lookups are
// plain field reads.
//
// A Thread belongs to the goroutine that attached it. Its methods must only
// be called from that goroutine; nothing in it is synchronized.
type Thread struct {
	domain *Domain
	std    StdID
	name   string
	named  bool
	osTID  uint64
	depth  int

	detached bool

	uniqueState cacheState
	unique      UniqueID

	liveState cacheState
	live      LiveID
	lease     *slots.Lease

	exits []func()
}

// Option configures Attach.
type Option func(*Thread)

// WithName gives the thread a human readable name used by DebugID.
func WithName(name string) Option {
	return func(t *Thread) {
		t.name = name
		t.named = true
	}
}

// WithOSThread records the OS thread currently running the goroutine. It is
// only meaningful when the goroutine is locked with runtime.LockOSThread.
func WithOSThread() Option {
	return func(t *Thread) {
		t.osTID = threadx.CurrentThreadID()
	}
}

// Attach registers the calling goroutine with the default domain.
func Attach(opts ...Option) *Thread {
	return Default().Attach(opts...)
}

// Attach registers the calling goroutine and returns its Thread. The
// goroutine must call Detach before it exits; Detach is the termination hook
// that hands the live id back.
//
// Attaching an already attached goroutine returns the existing Thread and
// nests: only the matching outermost Detach ends it. Options are ignored
// when nesting.
func (d *Domain) Attach(opts ...Option) *Thread {
	goid := gid.GID()
	t, loaded := d.registry.loadOrStore(goid, func() *Thread {
		t := &Thread{
			domain: d,
			std:    StdID{goid: goid},
		}
		for _, opt := range opts {
			opt(t)
		}
		return t
	})
	t.depth++
	if !loaded && logger.Enabled(zapcore.DebugLevel) {
		logger.Debug("goroutine %d attached as %q", goid, t.name)
	}
	return t
}

// Detach ends the thread. OnExit hooks run in reverse order, then the live
// id, if one was taken, goes back to the allocator. Calling Detach on a
// thread that has already ended does nothing.
func (t *Thread) Detach() {
	if t.detached {
		return
	}
	if t.depth > 1 {
		t.depth--
		return
	}
	t.depth = 0
	if !t.domain.registry.remove(t.std.goid, t) {
		return
	}
	t.terminate()
}

func (t *Thread) terminate() {
	t.detached = true
	for i := len(t.exits) - 1; i >= 0; i-- {
		t.runExit(t.exits[i])
	}
	t.exits = nil
	if t.liveState == cached {
		// The lease is moved out of the record before it is released.
		lease := t.lease
		t.lease = nil
		t.liveState = released
		lease.Release()
	}
	if logger.Enabled(zapcore.DebugLevel) {
		logger.Debug("goroutine %d detached, unique id %d", t.std.goid, t.unique)
	}
}

func (t *Thread) runExit(fn func()) {
	defer func() {
		if e := recover(); e != nil {
			logger.WarnErr(util.PanicToError(e), "exit hook of goroutine %d panicked", t.std.goid)
		}
	}()
	fn()
}

// OnExit registers fn to run when the thread detaches. Hooks run in reverse
// registration order while the thread still owns its live id.
func (t *Thread) OnExit(fn func()) {
	if fn == nil || t.detached {
		return
	}
	t.exits = append(t.exits, fn)
}

// Detached reports whether the thread has ended.
func (t *Thread) Detached() bool {
	return t.detached
}

// Domain returns the domain the thread is attached to.
func (t *Thread) Domain() *Domain {
	return t.domain
}

// StdID returns the runtime handle of the goroutine.
func (t *Thread) StdID() StdID {
	return t.std
}

// OSThreadID returns the OS thread recorded by WithOSThread.
func (t *Thread) OSThreadID() (uint64, bool) {
	return t.osTID, t.osTID != 0
}

// Name returns the thread's name, consulting the domain's name lookup when
// none was given at Attach.
func (t *Thread) Name() (string, bool) {
	if t.named {
		return t.name, true
	}
	if t.domain.names != nil {
		return t.domain.names(t.std.goid)
	}
	return "", false
}

// LiveID returns the thread's live id, leasing one from the domain's
// allocator on first use.
func (t *Thread) LiveID() (LiveID, error) {
	if t.liveState == cached {
		return t.live, nil
	}
	return t.acquireLive()
}

func (t *Thread) acquireLive() (LiveID, error) {
	if t.detached || t.liveState == released {
		return 0, ErrDetached
	}
	lease, err := t.domain.alloc.Acquire()
	if err != nil {
		logger.Error(err, "live thread id allocation failed for goroutine %d", t.std.goid)
		return 0, errors.Wrapf(err, "goroutine %d", t.std.goid)
	}
	t.lease = lease
	t.live = LiveID(lease.ID())
	t.liveState = cached
	return t.live, nil
}

// UniqueID returns the thread's unique id, drawing one from the domain's
// counter on first use.
func (t *Thread) UniqueID() (UniqueID, error) {
	if t.uniqueState == cached {
		return t.unique, nil
	}
	return t.acquireUnique()
}

func (t *Thread) acquireUnique() (UniqueID, error) {
	if t.detached {
		return 0, ErrDetached
	}
	v, err := t.domain.unique.Next()
	if err != nil {
		logger.Error(err, "unique thread id allocation failed for goroutine %d", t.std.goid)
		return 0, errors.Wrapf(err, "goroutine %d", t.std.goid)
	}
	t.unique = UniqueID(v)
	t.uniqueState = cached
	return t.unique, nil
}

// DebugID returns a label for logs: the thread's name when it has one,
// always alongside its unique id.
func (t *Thread) DebugID() (DebugID, error) {
	id, err := t.UniqueID()
	if err != nil {
		return DebugID{}, err
	}
	name, _ := t.Name()
	return DebugID{ID: id, Name: name}, nil
}
