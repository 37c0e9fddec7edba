package threadid

import (
	"github.com/moontrade/threadid/pkg/counter"
	"github.com/moontrade/threadid/pkg/slots"
	"github.com/pkg/errors"
)

var (
	// ErrDetached is returned when a cached id is requested for a goroutine
	// that is not attached, or by a thread that has already detached.
	ErrDetached = errors.New("threadid: goroutine is not attached")

	// ErrExhausted is returned when the live id space of a domain is used up.
	ErrExhausted = slots.ErrExhausted

	// ErrOverflow is returned when the unique id counter is used up.
	ErrOverflow = counter.ErrOverflow
)
