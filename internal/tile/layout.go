package tile

import (
	"math"

	"github.com/tphakala/go-heightmap/internal/interval"
)

// Layout holds everything needed to turn References into world
// rectangles and native sample ranges.
type Layout struct {
	// SampleRate is the native sample rate of the signal in Hz.
	SampleRate float64

	// NumSamples is the current signal length in native samples.
	NumSamples int64

	// ScaleCount is the number of frequency scales the transform resolves
	// across the normalized scale range [0, 1].
	ScaleCount int

	// Width and Height are the block grid dimensions (columns along time,
	// rows along scale).
	Width  int
	Height int

	// Slack widens the minimum extent to allow some magnification before
	// a denser block would be needed. 1 means no slack.
	Slack float64
}

// Rect is a world-space rectangle [T0, T1) x [S0, S1).
type Rect struct {
	T0, T1 float64
	S0, S1 float64
}

// Contains reports whether p lies in the closed rectangle.
func (r Rect) Contains(p Position) bool {
	return p.Time >= r.T0 && p.Time <= r.T1 && p.Scale >= r.S0 && p.Scale <= r.S1
}

// Length returns the signal duration in seconds.
func (l Layout) Length() float64 {
	if l.SampleRate <= 0 {
		return 0
	}
	return float64(l.NumSamples) / l.SampleRate
}

// MinExtent returns the smallest per-sample extent a block may have.
func (l Layout) MinExtent() Position {
	return Position{
		Time:  l.Slack / l.SampleRate,
		Scale: l.Slack / float64(l.ScaleCount),
	}
}

// MaxExtent returns the largest per-sample extent a block may have: one
// block spans at least the whole signal and the whole scale range.
func (l Layout) MaxExtent() Position {
	minExtent := l.MinExtent()
	return Position{
		Time:  max(minExtent.Time, 2*l.Length()/float64(l.Width)),
		Scale: max(minExtent.Scale, 1/float64(l.Height)),
	}
}

// MinLog2 returns the densest Log2Size FindReference can produce.
func (l Layout) MinLog2() [2]int {
	minExtent, maxExtent := l.MinExtent(), l.MaxExtent()
	return [2]int{
		l.pickLog2(minExtent.Time, minExtent.Time, maxExtent.Time, l.NumSamples > 0),
		l.pickLog2(minExtent.Scale, minExtent.Scale, maxExtent.Scale, true),
	}
}

// MaxLog2 returns the coarsest Log2Size FindReference can produce.
func (l Layout) MaxLog2() [2]int {
	minExtent, maxExtent := l.MinExtent(), l.MaxExtent()
	return [2]int{
		l.pickLog2(maxExtent.Time, minExtent.Time, maxExtent.Time, l.NumSamples > 0),
		l.pickLog2(maxExtent.Scale, minExtent.Scale, maxExtent.Scale, true),
	}
}

// pickLog2 rounds a desired extent down to a power of two and nudges the
// exponent back into [minExtent, maxExtent] when rounding pushed it out.
func (l Layout) pickLog2(desired, minExtent, maxExtent float64, mayShrink bool) int {
	log2 := int(math.Floor(math.Log2(desired)))
	if math.Ldexp(1, log2) < minExtent {
		log2++
	}
	if mayShrink && math.Ldexp(1, log2) > maxExtent {
		log2--
	}
	return log2
}

// FindReference returns the block containing point whose per-sample
// extent is the power of two just below desired, after clamping desired
// into [MinExtent, MaxExtent] and point into the signal rectangle.
//
// It is called once per visible block per frame and does not allocate.
func (l Layout) FindReference(point, desired Position) Reference {
	minExtent, maxExtent := l.MinExtent(), l.MaxExtent()
	length := l.Length()

	desired.Time = clamp(desired.Time, minExtent.Time, maxExtent.Time)
	desired.Scale = clamp(desired.Scale, minExtent.Scale, maxExtent.Scale)
	point.Time = clamp(point.Time, 0, length)
	point.Scale = clamp(point.Scale, 0, 1)

	var ref Reference
	ref.Log2Size[TimeAxis] = l.pickLog2(desired.Time, minExtent.Time, maxExtent.Time, length > 0)
	ref.Log2Size[ScaleAxis] = l.pickLog2(desired.Scale, minExtent.Scale, maxExtent.Scale, true)

	spanT := float64(l.Width) * math.Ldexp(1, ref.Log2Size[TimeAxis])
	spanS := float64(l.Height) * math.Ldexp(1, ref.Log2Size[ScaleAxis])

	ref.Index[TimeAxis] = uint32(math.Floor(point.Time / spanT))
	ref.Index[ScaleAxis] = uint32(math.Floor(point.Scale / spanS))

	// The last sample and the top scale belong to the block that ends there.
	if length > 0 && ref.Index[TimeAxis] > 0 && float64(ref.Index[TimeAxis])*spanT >= length {
		ref.Index[TimeAxis]--
	}
	if ref.Index[ScaleAxis] > 0 && float64(ref.Index[ScaleAxis])*spanS >= 1 {
		ref.Index[ScaleAxis]--
	}
	return ref
}

// Bounds returns the world rectangle covered by ref.
func (l Layout) Bounds(ref Reference) Rect {
	return l.Geometry(ref).Rect()
}

// SampleInterval returns the native sample range covered by ref. Adjacent
// blocks at the same density partition the sample axis exactly.
func (l Layout) SampleInterval(ref Reference) interval.Interval {
	return l.Geometry(ref).Interval()
}

// ContainsSignal reports whether ref overlaps the signal rectangle.
func (l Layout) ContainsSignal(ref Reference) bool {
	r := l.Bounds(ref)
	if r.S0 >= 1 {
		return false
	}
	if l.NumSamples == 0 {
		return ref.Index[TimeAxis] == 0
	}
	return r.T0 < l.Length()
}

// TooLarge reports whether ref is coarser than any block FindReference returns.
func (l Layout) TooLarge(ref Reference) bool {
	hi := l.MaxLog2()
	return ref.Log2Size[TimeAxis] > hi[TimeAxis] || ref.Log2Size[ScaleAxis] > hi[ScaleAxis]
}

// TooSmall reports whether ref is denser than any block FindReference returns.
func (l Layout) TooSmall(ref Reference) bool {
	lo := l.MinLog2()
	return ref.Log2Size[TimeAxis] < lo[TimeAxis] || ref.Log2Size[ScaleAxis] < lo[ScaleAxis]
}

// Valid reports whether ref addresses a block worth creating.
func (l Layout) Valid(ref Reference) bool {
	return l.ContainsSignal(ref) && !l.TooLarge(ref) && !l.TooSmall(ref)
}

// Cover returns the References at one density that together cover the
// rectangle spanned by from and to, ordered by time then scale.
func (l Layout) Cover(from, to, desired Position) []Reference {
	first := l.FindReference(from, desired)
	last := l.FindReference(to, desired)
	if last.Log2Size != first.Log2Size {
		// Both corners were clamped to the same extent, so this only
		// happens for inverted input.
		last = first
	}

	var refs []Reference
	for i := first.Index[TimeAxis]; i <= last.Index[TimeAxis]; i++ {
		for j := first.Index[ScaleAxis]; j <= last.Index[ScaleAxis]; j++ {
			refs = append(refs, Reference{Log2Size: first.Log2Size, Index: [2]uint32{i, j}})
		}
	}
	return refs
}

// Geometry resolves ref against the layout.
func (l Layout) Geometry(ref Reference) Geometry {
	return Geometry{
		Ref:        ref,
		SampleRate: l.SampleRate,
		Width:      l.Width,
		Height:     l.Height,
	}
}

// Geometry is a Reference resolved to concrete columns, rows and samples.
type Geometry struct {
	Ref        Reference
	SampleRate float64
	Width      int
	Height     int
}

// Extent returns the per-sample extent along both axes.
func (g Geometry) Extent() Position {
	return Position{
		Time:  math.Ldexp(1, g.Ref.Log2Size[TimeAxis]),
		Scale: math.Ldexp(1, g.Ref.Log2Size[ScaleAxis]),
	}
}

// ColumnTime returns the time of column c; c may equal Width for the end.
func (g Geometry) ColumnTime(c int) float64 {
	col := float64(g.Ref.Index[TimeAxis])*float64(g.Width) + float64(c)
	return math.Ldexp(col, g.Ref.Log2Size[TimeAxis])
}

// ColumnSample returns the first native sample covered by column c.
// Column c covers [ColumnSample(c), ColumnSample(c+1)).
func (g Geometry) ColumnSample(c int) int64 {
	return int64(math.Floor(g.ColumnTime(c) * g.SampleRate))
}

// RowScale returns the normalized scale of row r; r may equal Height.
func (g Geometry) RowScale(r int) float64 {
	row := float64(g.Ref.Index[ScaleAxis])*float64(g.Height) + float64(r)
	return math.Ldexp(row, g.Ref.Log2Size[ScaleAxis])
}

// Rect returns the world rectangle.
func (g Geometry) Rect() Rect {
	return Rect{
		T0: g.ColumnTime(0),
		T1: g.ColumnTime(g.Width),
		S0: g.RowScale(0),
		S1: g.RowScale(g.Height),
	}
}

// Interval returns the native sample range covered by the block.
func (g Geometry) Interval() interval.Interval {
	return interval.New(g.ColumnSample(0), g.ColumnSample(g.Width))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
