package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Ramp returns a width x height row-major grid where cell (x, y) holds
// x + y*width + 1, so no two cells are equal and none is zero.
func Ramp(width, height int) []float32 {
	g := make([]float32, width*height)
	for i := range g {
		g[i] = float32(i + 1)
	}
	return g
}

// Constant returns a grid filled with v.
func Constant(width, height int, v float32) []float32 {
	g := make([]float32, width*height)
	for i := range g {
		g[i] = v
	}
	return g
}

// Sine returns n samples of a unit sine at hz, sampled at rate.
func Sine(n int, hz, rate float64) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(math.Sin(2 * math.Pi * hz * float64(i) / rate))
	}
	return s
}

// AssertGridInDelta compares two grids cell by cell.
func AssertGridInDelta(t *testing.T, want, got []float32, width int, tolerance float64) bool {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return false
	}
	for i := range want {
		if !assert.InDelta(t, want[i], got[i], tolerance, "cell (%d, %d)", i%width, i/width) {
			return false
		}
	}
	return true
}
