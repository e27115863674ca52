package utils

import (
	"math"
	"math/bits"

	"github.com/golang/geo/r3"
)

// RoundTo rounds x to the given number of decimal places. Halves go to the even neighbor, so a
// refined time of 5.03125 exports as 5.0312.
func RoundTo(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	pow := math.Pow(10, float64(places))
	return math.RoundToEven(x*pow) / pow
}

// RoundVector rounds each component of v to the given number of decimal places.
func RoundVector(v r3.Vector, places int) r3.Vector {
	return r3.Vector{X: RoundTo(v.X, places), Y: RoundTo(v.Y, places), Z: RoundTo(v.Z, places)}
}

// CeilLog2 returns the smallest k such that 2^k >= n, and 0 for n <= 1.
func CeilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
