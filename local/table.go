// Package local keeps one value per live thread in a table indexed by the
// thread's LiveID. A table serves the threads of one domain, since live ids
// of different domains overlap.
//
// Because live ids are packed near zero the table stays about as large as the
// peak number of threads that used it. Storage is split into buckets of
// doubling size (1, 2, 4, ...); a bucket is allocated on first use and never
// moved, so a value's address is stable for as long as its thread lives.
package local

import (
	"math/bits"
	"sync/atomic"

	"github.com/moontrade/threadid"
	"github.com/moontrade/threadid/pkg/pmath"
	"github.com/moontrade/threadid/pkg/spinlock"
	"github.com/pkg/errors"
)

// ErrForeignDomain is returned by Get for a thread of another domain.
var ErrForeignDomain = errors.New("local: thread belongs to another domain")

const numBuckets = bits.UintSize

// Table holds a *T per live thread. The zero value is not usable; call New.
type Table[T any] struct {
	buckets [numBuckets]atomic.Pointer[[]slot[T]]
	grow    spinlock.Mutex
	domain  *threadid.Domain
	create  func() *T
}

type slot[T any] struct {
	value atomic.Pointer[T]
}

// New returns a Table for the threads of d that builds missing values with
// create. A nil d means threadid.Default(); a nil create allocates a zero T.
func New[T any](d *threadid.Domain, create func() *T) *Table[T] {
	if d == nil {
		d = threadid.Default()
	}
	if create == nil {
		create = func() *T { return new(T) }
	}
	return &Table[T]{domain: d, create: create}
}

// Domain returns the domain whose threads the table serves.
func (tb *Table[T]) Domain() *threadid.Domain {
	return tb.domain
}

func locate(id threadid.LiveID) (bucket, offset int) {
	n := uint(id) + 1
	bucket = pmath.Log2Floor(n)
	return bucket, int(n - 1<<uint(bucket))
}

func (tb *Table[T]) slot(id threadid.LiveID, allocate bool) *slot[T] {
	b, off := locate(id)
	s := tb.buckets[b].Load()
	if s == nil {
		if !allocate {
			return nil
		}
		tb.grow.Lock()
		if s = tb.buckets[b].Load(); s == nil {
			fresh := make([]slot[T], 1<<uint(b))
			s = &fresh
			tb.buckets[b].Store(s)
		}
		tb.grow.Unlock()
	}
	return &(*s)[off]
}

// Get returns t's value, building it on first use. The value is dropped when
// t detaches, so a thread that later inherits the same live id starts fresh.
// The pointer must only be dereferenced by t, or with external
// synchronization.
func (tb *Table[T]) Get(t *threadid.Thread) (*T, error) {
	if t.Domain() != tb.domain {
		return nil, ErrForeignDomain
	}
	if t.Detached() {
		return nil, threadid.ErrDetached
	}
	id, err := t.LiveID()
	if err != nil {
		return nil, err
	}
	s := tb.slot(id, true)
	if v := s.value.Load(); v != nil {
		return v, nil
	}
	v := tb.create()
	s.value.Store(v)
	t.OnExit(func() { s.value.Store(nil) })
	return v, nil
}

// Lookup returns the value stored for id without creating one.
func (tb *Table[T]) Lookup(id threadid.LiveID) (*T, bool) {
	s := tb.slot(id, false)
	if s == nil {
		return nil, false
	}
	v := s.value.Load()
	return v, v != nil
}

// Range calls fn for every stored value in live id order until fn returns
// false. Values of threads attaching or detaching concurrently may or may not
// be visited.
func (tb *Table[T]) Range(fn func(id threadid.LiveID, v *T) bool) {
	for b := range tb.buckets {
		s := tb.buckets[b].Load()
		if s == nil {
			continue
		}
		base := uint(1)<<uint(b) - 1
		for off := range *s {
			if v := (*s)[off].value.Load(); v != nil {
				if !fn(threadid.LiveID(base+uint(off)), v) {
					return
				}
			}
		}
	}
}

// Len counts stored values.
func (tb *Table[T]) Len() int {
	n := 0
	tb.Range(func(threadid.LiveID, *T) bool {
		n++
		return true
	})
	return n
}
