// Package gid reads the Go runtime's id for the calling goroutine.
//
// The runtime does not export goroutine ids, so the id is parsed out of the
// header line of runtime.Stack ("goroutine 123 [running]:"). The parse does
// not allocate; the stack buffer lives on the caller's stack.
package gid

import "runtime"

const prefix = "goroutine "

// GID returns the id of the calling goroutine. Ids are assigned by the
// runtime, start at 1 and are not reused while the process runs.
func GID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	id, ok := Parse(buf[:n])
	if !ok {
		panic("gid: unexpected runtime.Stack header")
	}
	return id
}

// Parse extracts the goroutine id from a runtime.Stack header.
func Parse(stack []byte) (id uint64, ok bool) {
	if len(stack) <= len(prefix) || string(stack[:len(prefix)]) != prefix {
		return 0, false
	}
	for _, c := range stack[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		d := uint64(c - '0')
		if id > (^uint64(0)-d)/10 {
			return 0, false
		}
		id = id*10 + d
		ok = true
	}
	return id, ok && id != 0
}
