package tile

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() Layout {
	return Layout{
		SampleRate: 44100,
		NumSamples: 10 * 44100,
		ScaleCount: 512,
		Width:      128,
		Height:     256,
		Slack:      0.25,
	}
}

func TestLayout_Extents(t *testing.T) {
	l := testLayout()

	minExtent := l.MinExtent()
	assert.InDelta(t, 0.25/44100, minExtent.Time, 1e-15)
	assert.InDelta(t, 0.25/512, minExtent.Scale, 1e-15)

	maxExtent := l.MaxExtent()
	assert.InDelta(t, 2*10.0/128, maxExtent.Time, 1e-12)
	assert.InDelta(t, 1.0/256, maxExtent.Scale, 1e-12)

	lo, hi := l.MinLog2(), l.MaxLog2()
	assert.LessOrEqual(t, lo[TimeAxis], hi[TimeAxis])
	assert.LessOrEqual(t, lo[ScaleAxis], hi[ScaleAxis])
}

func TestLayout_MaxExtentWithEmptySignal(t *testing.T) {
	l := testLayout()
	l.NumSamples = 0

	assert.Equal(t, l.MinExtent().Time, l.MaxExtent().Time)

	ref := l.FindReference(Position{Time: 3, Scale: 0.5}, Position{Time: 1, Scale: 0.01})
	assert.Equal(t, uint32(0), ref.Index[TimeAxis])
	assert.True(t, l.ContainsSignal(ref))
}

func TestFindReference_EndToEndExample(t *testing.T) {
	l := testLayout()

	point := Position{Time: 5.0, Scale: 0.5}
	ref := l.FindReference(point, Position{Time: 0.01, Scale: 0.01})

	assert.True(t, l.ContainsSignal(ref))
	assert.False(t, l.TooLarge(ref))
	assert.True(t, l.Valid(ref))
	assert.True(t, l.Bounds(ref).Contains(point))

	// 0.01 rounds down to 2^-7 seconds per column.
	assert.Equal(t, -7, ref.Log2Size[TimeAxis])
	r := l.Bounds(ref)
	assert.InDelta(t, 128*math.Ldexp(1, -7), r.T1-r.T0, 1e-12)
}

// TestFindReference_RoundTrip checks that every point lands in the returned
// block and the density stays within one power of two of the request.
func TestFindReference_RoundTrip(t *testing.T) {
	l := testLayout()
	rng := rand.New(rand.NewSource(1))
	minExtent, maxExtent := l.MinExtent(), l.MaxExtent()
	length := l.Length()

	logUniform := func(lo, hi float64) float64 {
		return math.Exp(math.Log(lo) + rng.Float64()*(math.Log(hi)-math.Log(lo)))
	}

	for range 5000 {
		p := Position{Time: rng.Float64() * length, Scale: rng.Float64()}
		switch rng.Intn(10) {
		case 0:
			p.Time = length
		case 1:
			p.Scale = 1
		case 2:
			p.Time = 0
		}
		desired := Position{
			Time:  logUniform(minExtent.Time, maxExtent.Time),
			Scale: logUniform(minExtent.Scale, maxExtent.Scale),
		}

		ref := l.FindReference(p, desired)
		require.True(t, l.Bounds(ref).Contains(p), "%v does not contain %+v", ref, p)
		require.True(t, l.Valid(ref), "%v invalid for %+v", ref, p)

		extent := l.Geometry(ref).Extent()
		require.GreaterOrEqual(t, extent.Time, desired.Time/2)
		require.LessOrEqual(t, extent.Time, desired.Time*2)
		require.GreaterOrEqual(t, extent.Scale, desired.Scale/2)
		require.LessOrEqual(t, extent.Scale, desired.Scale*2)
	}
}

func TestFindReference_ClampsInput(t *testing.T) {
	l := testLayout()

	ref := l.FindReference(Position{Time: -5, Scale: 7}, Position{Time: 1e9, Scale: 1e-9})
	assert.True(t, l.Valid(ref))
	assert.Equal(t, l.MaxLog2()[TimeAxis], ref.Log2Size[TimeAxis])
	assert.Equal(t, l.MinLog2()[ScaleAxis], ref.Log2Size[ScaleAxis])
	assert.Equal(t, uint32(0), ref.Index[TimeAxis])
	assert.InDelta(t, 1.0, l.Bounds(ref).S1, 1e-12)
}

func TestFindReference_CoarsestBlockCoversSignal(t *testing.T) {
	l := testLayout()

	ref := l.FindReference(Position{Time: 0, Scale: 0}, l.MaxExtent())
	r := l.Bounds(ref)
	assert.LessOrEqual(t, r.T0, 0.0)
	assert.GreaterOrEqual(t, r.T1, l.Length())
	assert.GreaterOrEqual(t, r.S1, 1.0)
}

func TestReference_Navigation(t *testing.T) {
	ref := Reference{Log2Size: [2]int{-5, -10}, Index: [2]uint32{7, 3}}

	assert.Equal(t, Reference{Log2Size: [2]int{-4, -9}, Index: [2]uint32{3, 1}}, ref.Parent())
	assert.Equal(t, Reference{Log2Size: [2]int{-4, -10}, Index: [2]uint32{3, 3}}, ref.ParentHorizontal())
	assert.Equal(t, Reference{Log2Size: [2]int{-5, -9}, Index: [2]uint32{7, 1}}, ref.ParentVertical())

	assert.Equal(t, uint32(6), ref.Left().Index[TimeAxis])
	assert.Equal(t, uint32(8), ref.Right().Index[TimeAxis])
	assert.Equal(t, uint32(4), ref.Top().Index[ScaleAxis])
	assert.Equal(t, uint32(2), ref.Bottom().Index[ScaleAxis])

	assert.Equal(t, ref, ref.ChildLeft().ParentHorizontal())
	assert.Equal(t, ref, ref.ChildRight().ParentHorizontal())
	assert.Equal(t, ref, ref.ChildTop().ParentVertical())
	assert.Equal(t, ref, ref.ChildBottom().ParentVertical())
	for _, child := range ref.Children() {
		assert.Equal(t, ref, child.Parent())
		assert.True(t, child.FinerOrEqual(ref))
		assert.False(t, ref.FinerOrEqual(child))
	}
}

func TestLayout_ChildrenPartitionParent(t *testing.T) {
	l := testLayout()
	ref := l.FindReference(Position{Time: 3.3, Scale: 0.4}, Position{Time: 0.02, Scale: 0.002})

	parent := l.SampleInterval(ref)
	left := l.SampleInterval(ref.ChildLeft())
	right := l.SampleInterval(ref.ChildRight())

	assert.Equal(t, parent.Start, left.Start)
	assert.Equal(t, left.End, right.Start)
	assert.Equal(t, parent.End, right.End)

	neighbour := l.SampleInterval(ref.Right())
	assert.Equal(t, parent.End, neighbour.Start, "siblings share a boundary without overlap")
}

func TestGeometry_ColumnsSpanInterval(t *testing.T) {
	l := testLayout()
	g := l.Geometry(l.FindReference(Position{Time: 1, Scale: 0.1}, Position{Time: 1e-3, Scale: 1e-3}))

	iv := g.Interval()
	assert.Equal(t, iv.Start, g.ColumnSample(0))
	assert.Equal(t, iv.End, g.ColumnSample(g.Width))
	for c := 1; c <= g.Width; c++ {
		assert.GreaterOrEqual(t, g.ColumnSample(c), g.ColumnSample(c-1))
	}
	assert.InDelta(t, g.Rect().S0, g.RowScale(0), 1e-15)
}

func TestLayout_ValidityPredicates(t *testing.T) {
	l := testLayout()
	ref := l.FindReference(Position{Time: 9.99, Scale: 0.99}, Position{Time: 0.01, Scale: 0.01})

	assert.True(t, l.Valid(ref))
	assert.False(t, l.ContainsSignal(ref.Right()), "block past the end of the signal")
	assert.False(t, l.ContainsSignal(ref.Top()), "block above scale 1")

	coarse := ref
	for !l.TooLarge(coarse) {
		coarse = coarse.Parent()
	}
	assert.False(t, l.Valid(coarse))

	fine := ref
	for !l.TooSmall(fine) {
		fine = fine.Children()[0]
	}
	assert.False(t, l.Valid(fine))
}

func TestLayout_Cover(t *testing.T) {
	l := testLayout()
	desired := Position{Time: 0.01, Scale: 0.01}

	refs := l.Cover(Position{Time: 1, Scale: 0.1}, Position{Time: 3.5, Scale: 0.9}, desired)
	require.NotEmpty(t, refs)

	for _, ref := range refs {
		assert.Equal(t, refs[0].Log2Size, ref.Log2Size)
		assert.True(t, l.Valid(ref))
	}

	first, last := l.Bounds(refs[0]), l.Bounds(refs[len(refs)-1])
	assert.LessOrEqual(t, first.T0, 1.0)
	assert.GreaterOrEqual(t, last.T1, 3.5)
	assert.LessOrEqual(t, first.S0, 0.1)
	assert.GreaterOrEqual(t, last.S1, 0.9)
}
