package pmath

import "math/bits"

// CeilToPowerOf2 returns the smallest power of two >= n. Values below 2
// return 1.
func CeilToPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Log2Floor returns floor(log2(n)) for n > 0 and -1 for n == 0.
func Log2Floor(n uint) int {
	return bits.Len(n) - 1
}
