// Package slots hands out small non-negative integers to live threads and
// takes them back when the threads end, so that the ids in use at any moment
// stay packed near zero.
//
// An Allocator keeps a high-water mark (the smallest id never handed out)
// and a free pool holding every released id below it. Acquire prefers the
// free pool and only grows the high-water mark when the pool is empty.
// Both operations run under a short spinlock; they happen at most once per
// thread lifetime, so contention there is not on any hot path.
package slots

import (
	"container/heap"
	"math"
	"sync"
	stdatomic "sync/atomic"

	"github.com/moontrade/threadid/pkg/spinlock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrExhausted is returned by Acquire when the high-water mark has reached
// the allocator's limit and nothing is free. It is fatal for the requesting
// thread; ids are never wrapped.
var ErrExhausted = errors.New("slots: thread id space exhausted")

// ID is a slot index. It is only meaningful while the thread holding it is
// alive.
type ID uint

// Policy selects which free id Acquire hands out.
type Policy uint8

const (
	// AnyFree pops the most recently released id. Any free id keeps the
	// live set packed, and the stack is cheapest to maintain.
	AnyFree Policy = iota
	// SmallestFirst always hands out the numerically smallest free id.
	SmallestFirst
)

func (p Policy) String() string {
	switch p {
	case AnyFree:
		return "any-free"
	case SmallestFirst:
		return "smallest-first"
	default:
		return "unknown"
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "any-free", "any", "":
		return AnyFree, nil
	case "smallest-first", "smallest":
		return SmallestFirst, nil
	}
	return AnyFree, errors.Errorf("slots: unknown policy %q", s)
}

// Stats is a snapshot of an Allocator.
type Stats struct {
	HighWater uint   // smallest id never handed out
	Free      int    // ids in the free pool
	Live      uint   // ids currently leased
	Acquires  uint64 // successful Acquire calls
	Releases  uint64 // leases given back
}

// Allocator is safe for concurrent use. The zero value is not usable; call New.
type Allocator struct {
	mu       spinlock.Mutex
	policy   Policy
	limit    uint
	next     uint
	free     freeList
	acquires atomic.Uint64
	releases atomic.Uint64
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithPolicy sets the free-pool policy. Defaults to AnyFree.
func WithPolicy(p Policy) Option {
	return func(a *Allocator) { a.policy = p }
}

// WithLimit bounds ids to [0, limit). Defaults to math.MaxUint.
func WithLimit(limit uint) Option {
	return func(a *Allocator) { a.limit = limit }
}

// WithCapacity preallocates room for n released ids.
func WithCapacity(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.free.reserve(n)
		}
	}
}

func New(opts ...Option) *Allocator {
	a := &Allocator{limit: math.MaxUint}
	for _, opt := range opts {
		opt(a)
	}
	a.free.policy = a.policy
	return a
}

var (
	defaultOnce      sync.Once
	defaultAllocator *Allocator
	defaultOptions   []Option
)

// SetDefaultOptions sets the options used to build the process-wide
// allocator. It has no effect once Default has been called.
func SetDefaultOptions(opts ...Option) {
	defaultOptions = opts
}

// Default returns the process-wide allocator, building it on first use. It
// lives as long as the process does.
func Default() *Allocator {
	defaultOnce.Do(func() {
		defaultAllocator = New(defaultOptions...)
	})
	return defaultAllocator
}

// Policy returns the free-pool policy the allocator was built with.
func (a *Allocator) Policy() Policy {
	return a.policy
}

// A Lease is the right to one id. Only Acquire makes leases, and a lease
// gives its id back exactly once.
type Lease struct {
	alloc stdatomic.Pointer[Allocator]
	id    ID
}

// ID returns the leased id. It stays readable after Release but no longer
// belongs to the holder.
func (l *Lease) ID() ID {
	return l.id
}

// Released reports whether the lease has been given back.
func (l *Lease) Released() bool {
	return l.alloc.Load() == nil
}

// Release hands the id back to the allocator. Releasing a lease twice, or a
// lease that did not come from Acquire, panics and leaves the free pool
// untouched.
func (l *Lease) Release() {
	if l == nil {
		panic(errors.New("slots: release of nil lease"))
	}
	a := l.alloc.Swap(nil)
	if a == nil {
		panic(errors.Errorf("slots: lease of id %d released twice or never acquired", l.id))
	}
	a.release(l.id)
}

// Acquire leases an id. The caller owns it until it releases the lease.
func (a *Allocator) Acquire() (*Lease, error) {
	a.mu.Lock()
	id, ok := a.free.pop()
	if !ok {
		if a.next >= a.limit {
			next := a.next
			a.mu.Unlock()
			return nil, errors.Wrapf(ErrExhausted, "high-water mark %d reached limit %d", next, a.limit)
		}
		id = ID(a.next)
		a.next++
	}
	a.mu.Unlock()
	a.acquires.Inc()
	l := &Lease{id: id}
	l.alloc.Store(a)
	return l, nil
}

func (a *Allocator) release(id ID) {
	a.mu.Lock()
	if uint(id) >= a.next {
		a.mu.Unlock()
		panic(errors.Errorf("slots: release of id %d never acquired (high-water mark %d)", id, a.next))
	}
	a.free.push(id)
	a.mu.Unlock()
	a.releases.Inc()
}

// Stats returns a consistent snapshot of the allocator's counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	s := Stats{
		HighWater: a.next,
		Free:      a.free.len(),
	}
	a.mu.Unlock()
	s.Live = s.HighWater - uint(s.Free)
	s.Acquires = a.acquires.Load()
	s.Releases = a.releases.Load()
	return s
}

// freeList holds released ids as a LIFO stack or as a min-heap depending on
// the policy. Callers hold the allocator lock.
type freeList struct {
	policy Policy
	ids    idHeap
}

func (f *freeList) reserve(n int) {
	f.ids = make(idHeap, 0, n)
}

func (f *freeList) len() int {
	return len(f.ids)
}

func (f *freeList) push(id ID) {
	if f.policy == SmallestFirst {
		heap.Push(&f.ids, id)
		return
	}
	f.ids = append(f.ids, id)
}

func (f *freeList) pop() (ID, bool) {
	if len(f.ids) == 0 {
		return 0, false
	}
	if f.policy == SmallestFirst {
		return heap.Pop(&f.ids).(ID), true
	}
	last := len(f.ids) - 1
	id := f.ids[last]
	f.ids = f.ids[:last]
	return id, true
}

type idHeap []ID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(ID)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	id := old[n-1]
	*h = old[:n-1]
	return id
}
