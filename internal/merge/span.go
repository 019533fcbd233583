package merge

import "math"

// span maps one destination cell onto source cells. Source cell j covers
// the fractional range [j, j+1) and holds the value at its centre.
//
// When the destination cell is at most one source cell wide the value is
// interpolated linearly between the two nearest centres; when it is wider,
// every source cell it touches is reduced with max.
type span struct {
	lo, hi int
	frac   float32
	interp bool
	empty  bool
}

// mapSpan maps the fractional source range [from, to) onto source cells
// [first, end). Ranges entirely outside the cells are empty.
func mapSpan(from, to float64, first, end int) span {
	if end <= first || to <= float64(first) || from >= float64(end) {
		return span{empty: true}
	}
	if to-from <= 1 {
		c := (from+to)/2 - 0.5
		c = math.Max(float64(first), math.Min(c, float64(end-1)))
		lo := int(math.Floor(c))
		s := span{lo: lo, hi: lo + 1, interp: true}
		if lo+1 < end {
			s.frac = float32(c - float64(lo))
		}
		return s
	}
	lo := max(int(math.Floor(from)), first)
	hi := min(int(math.Ceil(to)), end)
	return span{lo: lo, hi: max(hi, lo+1)}
}

// reduce evaluates the span against a source accessor.
func (s span) reduce(at func(i int) float32) float32 {
	v := at(s.lo)
	if s.interp {
		if s.frac > 0 {
			v += s.frac * (at(s.lo+1) - v)
		}
		return v
	}
	for i := s.lo + 1; i < s.hi; i++ {
		v = max(v, at(i))
	}
	return v
}
