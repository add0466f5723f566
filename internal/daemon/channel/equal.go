package channel

import (
	"math"
	"reflect"
)

// DefaultEpsilon is the tolerance for normalized 0..1 levels.
const DefaultEpsilon = 0.001

// Numeric treats floats within eps of each other as equal.
func Numeric(eps float64) func(a, b float64) bool {
	return func(a, b float64) bool {
		return math.Abs(a-b) <= eps
	}
}

// Structural compares values field by field.
func Structural[V any](a, b V) bool {
	return reflect.DeepEqual(a, b)
}
