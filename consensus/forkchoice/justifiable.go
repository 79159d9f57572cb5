package forkchoice

import (
	"fmt"
	"math"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// IsJustifiableAfter reports whether a checkpoint at candidate may be
// justified given the latest finalized slot. With delta = candidate - finalized
// the slot is justifiable if delta <= 5, delta is a perfect square, or delta is
// a pronic number (4*delta+1 is an odd perfect square).
func IsJustifiableAfter(candidate, finalized lean.Slot) (bool, error) {
	if candidate < finalized {
		return false, fmt.Errorf("candidate slot %d is below the finalized slot %d", candidate, finalized)
	}
	delta := candidate - finalized
	if delta <= 5 {
		return true, nil
	}
	if isPerfectSquare(delta) {
		return true, nil
	}
	// overflow guard, no realistic delta gets here
	if delta > (math.MaxUint64-1)/4 {
		return false, nil
	}
	x := 4*delta + 1
	return x%2 == 1 && isPerfectSquare(x), nil
}

func isPerfectSquare(n uint64) bool {
	r := isqrt(n)
	return r*r == n
}

// isqrt returns floor(sqrt(n)).
func isqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	r := uint64(math.Sqrt(float64(n)))
	// float rounding can be off by one in either direction
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// hasJustifiableBetween reports whether any slot strictly between from and to
// is justifiable after finalized.
func hasJustifiableBetween(from, to, finalized lean.Slot) bool {
	for s := from + 1; s < to; s++ {
		ok, err := IsJustifiableAfter(s, finalized)
		if err == nil && ok {
			return true
		}
	}
	return false
}
