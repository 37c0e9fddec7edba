// Package timex reads the runtime's monotonic clock without going through
// time.Now.
package timex

import (
	"time"
	_ "unsafe"
)

//go:noescape
//go:linkname NanoTime runtime.nanotime
func NanoTime() int64

// SinceDur returns the time elapsed since start, a NanoTime reading.
func SinceDur(start int64) time.Duration {
	return time.Duration(NanoTime() - start)
}

// StopWatch measures elapsed monotonic time.
type StopWatch int64

func NewStopWatch() StopWatch {
	return StopWatch(NanoTime())
}

// Lap returns the time since the last Lap or NewStopWatch and restarts.
func (s *StopWatch) Lap() time.Duration {
	n := NanoTime()
	d := time.Duration(n - int64(*s))
	*s = StopWatch(n)
	return d
}

func (s *StopWatch) Elapsed() time.Duration {
	return SinceDur(int64(*s))
}

// PerOp divides the elapsed time by ops. It returns 0 when ops is 0.
func (s *StopWatch) PerOp(ops uint64) time.Duration {
	if ops == 0 {
		return 0
	}
	return s.Elapsed() / time.Duration(ops)
}
