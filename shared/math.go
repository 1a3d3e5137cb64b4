package shared

import "math/bits"

// NextPowerOf2 is a fast computation of 2^x
// see: https://stackoverflow.com/questions/466204/rounding-up-to-next-power-of-2
func NextPowerOf2(i uint64) uint64 {
	i--
	i |= i >> 1
	i |= i >> 2
	i |= i >> 4
	i |= i >> 8
	i |= i >> 16
	i |= i >> 32
	i++
	return i
}

// IsPowerOf2 reports whether i has exactly one bit set. Zero is not a
// power of two.
func IsPowerOf2(i uint64) bool {
	return bits.OnesCount64(i) == 1
}

// Log2 returns log2(i) for a power of two i.
func Log2(i uint64) uint64 {
	return uint64(bits.TrailingZeros64(i))
}
