package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestPanicToError(t *testing.T) {
	sentinel := errors.New("sentinel")
	assert.Nil(t, PanicToError(nil))
	assert.True(t, errors.Is(PanicToError(sentinel), sentinel))
	assert.EqualError(t, PanicToError("boom"), "boom")
	assert.EqualError(t, PanicToError(stringer{}), "stringer")
	assert.EqualError(t, PanicToError(42), "panic: 42")
}
