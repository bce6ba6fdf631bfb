package format

import "golang.org/x/exp/constraints"

// CeilDiv returns n / d rounded up. d must be non-zero.
//
// Example:
//
//	CeilDiv(20, 16) = 2
//	CeilDiv(32, 16) = 2
//	CeilDiv(1, 16)  = 1
func CeilDiv[T constraints.Integer](n, d T) T {
	return (n + d - 1) / d
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](n T) bool {
	return n > 0 && n&(n-1) == 0
}
