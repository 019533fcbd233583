package simdops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOps_Float32(t *testing.T) {
	ops := Float32Ops()
	a := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}

	assert.InDelta(t, 45, ops.Sum(a), 1e-5)

	dst := make([]float32, len(a))
	ops.Scale(dst, a, 0.5)
	assert.InDelta(t, 4.5, dst[8], 1e-6)
	assert.InDelta(t, 0.5, dst[0], 1e-6)

	assert.InDelta(t, 285, Energy(a), 1e-3)
}

func TestOps_Float64(t *testing.T) {
	ops := For[float64]()
	a := []float64{0.5, -1.5, 2}
	b := []float64{2, 2, 2}

	assert.InDelta(t, 2.0, ops.DotProductUnsafe(a, b), 1e-12)
	assert.InDelta(t, 1.0, ops.Sum(a), 1e-12)
	assert.Same(t, Float64Ops(), ops)
}

// BenchmarkScaleGrid measures slope scaling over a 128x256 block.
func BenchmarkScaleGrid(b *testing.B) {
	ops := Float32Ops()
	src := make([]float32, 128*256)
	for i := range src {
		src[i] = float32(i%97) * 0.01
	}
	dst := make([]float32, len(src))

	b.ReportAllocs()
	for b.Loop() {
		ops.Scale(dst, src, 1.5)
	}
}
