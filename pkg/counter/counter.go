package counter

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrOverflow is returned once every value below the counter's limit has been
// handed out. The counter never wraps.
var ErrOverflow = errors.New("counter: id space exhausted")

// Counter hands out strictly increasing values. Values are never reused.
type Counter struct {
	next  atomic.Uint64
	limit uint64
}

// NewCounter returns a Counter whose first value is start and whose values
// stay strictly below limit.
func NewCounter(start, limit uint64) *Counter {
	c := &Counter{limit: limit}
	c.next.Store(start)
	return c
}

// NewUnbounded returns a Counter starting at 1 that may use the whole uint64
// range except math.MaxUint64.
func NewUnbounded() *Counter {
	return NewCounter(1, math.MaxUint64)
}

// Next draws the next value. The CAS loop gives a total order consistent
// with real time: a Next that returns before another starts gets the smaller
// value.
func (c *Counter) Next() (uint64, error) {
	for {
		cur := c.next.Load()
		if cur >= c.limit {
			return 0, errors.Wrapf(ErrOverflow, "next=%d limit=%d", cur, c.limit)
		}
		if c.next.CAS(cur, cur+1) {
			return cur, nil
		}
	}
}

// Load returns the value the next call to Next would return.
func (c *Counter) Load() uint64 {
	return c.next.Load()
}

// Issued returns how many values have been handed out since start.
func (c *Counter) Issued(start uint64) uint64 {
	return c.next.Load() - start
}
