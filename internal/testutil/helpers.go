// Package testutil provides reusable assertions and fixtures for heightmap tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	GridTolerance    = 1e-5
	WindowTolerance  = 1e-10
)

// Float is the element type of the slices these helpers inspect.
type Float interface {
	float32 | float64
}

// AssertSymmetric verifies that s[i] == s[n-1-i].
func AssertSymmetric[F Float](t *testing.T, s []F, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if !assert.InDelta(t, float64(s[i]), float64(s[j]), tolerance,
			"slice not symmetric at i=%d", i) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that every element is finite.
func AssertNoNaNOrInf[F Float](t *testing.T, s []F) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return assert.Fail(t, "non-finite value", "s[%d]=%v", i, f)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [minVal, maxVal].
func AssertAllInRange[F Float](t *testing.T, s []F, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if float64(v) < minVal || float64(v) > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%v is outside range [%v, %v]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertCenterIsMax verifies that the center element is the maximum.
func AssertCenterIsMax[F Float](t *testing.T, s []F) bool {
	t.Helper()
	if len(s) == 0 {
		return assert.Fail(t, "empty slice")
	}
	c := len(s) / 2
	for i, v := range s {
		if v > s[c] {
			return assert.Fail(t, "center is not max", "s[%d]=%v > s[%d]=%v", i, v, c, s[c])
		}
	}
	return true
}

// AssertRelativeError verifies |actual-expected|/|expected| <= tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	rel := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, rel, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		rel, tolerance, expected, actual)
}

// AssertLengthEquals verifies that a slice has the expected length.
func AssertLengthEquals[F Float](t *testing.T, s []F, n int) bool {
	t.Helper()
	return assert.Len(t, s, n)
}

// AssertOddLength verifies that a slice has an odd length.
func AssertOddLength[F Float](t *testing.T, s []F) bool {
	t.Helper()
	return assert.Equal(t, 1, len(s)%2, "slice length %d is not odd", len(s))
}
