package pmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCeilToPowerOf2(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024, 1024: 1024}
	for in, want := range cases {
		assert.Equal(t, want, CeilToPowerOf2(in), "n=%d", in)
	}
}

func TestLog2Floor(t *testing.T) {
	assert.Equal(t, -1, Log2Floor(0))
	assert.Equal(t, 0, Log2Floor(1))
	assert.Equal(t, 1, Log2Floor(3))
	assert.Equal(t, 3, Log2Floor(8))
	assert.Equal(t, 9, Log2Floor(1023))
}
