package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// PanicToError converts a recovered panic value into an error, keeping the
// original error when one was panicked.
func PanicToError(e any) (err error) {
	switch v := e.(type) {
	case nil:
		return nil
	case error:
		err = v
	case string:
		err = errors.New(v)
	case fmt.Stringer:
		err = errors.New(v.String())
	default:
		err = errors.Errorf("panic: %v", v)
	}
	return
}
