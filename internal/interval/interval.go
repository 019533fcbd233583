// Package interval implements sets of half-open integer sample ranges.
//
// A Set is kept as a sorted slice of disjoint, non-adjacent intervals, so
// every operation is a linear merge over both operands. Sets are values:
// operations never modify their receiver and never alias its storage.
package interval

import (
	"fmt"
	"math"
	"strings"
)

// Bounds of the sample index space.
const (
	MinSample int64 = math.MinInt64
	MaxSample int64 = math.MaxInt64
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start int64
	End   int64
}

// New returns [start, end). An inverted range yields an empty interval.
func New(start, end int64) Interval {
	if end < start {
		end = start
	}
	return Interval{Start: start, End: end}
}

// Everything covers the whole sample index space.
func Everything() Interval {
	return Interval{Start: MinSample, End: MaxSample}
}

// Empty reports whether the interval has no samples.
func (i Interval) Empty() bool {
	return i.End <= i.Start
}

// Count returns the number of samples in the interval, saturating at
// MaxSample for ranges wider than int64 can hold.
func (i Interval) Count() int64 {
	if i.Empty() {
		return 0
	}
	if i.Start < 0 && i.End > MaxSample+i.Start {
		return MaxSample
	}
	return i.End - i.Start
}

// Contains reports whether sample lies inside the interval.
func (i Interval) Contains(sample int64) bool {
	return sample >= i.Start && sample < i.End
}

// Overlaps reports whether the two intervals share at least one sample.
func (i Interval) Overlaps(o Interval) bool {
	return !i.Empty() && !o.Empty() && i.Start < o.End && o.Start < i.End
}

// Intersect returns the samples present in both intervals.
func (i Interval) Intersect(o Interval) Interval {
	return New(max(i.Start, o.Start), min(i.End, o.End))
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d)", i.Start, i.End)
}

// Set is a set of samples stored as disjoint intervals.
// The zero value is the empty set.
type Set struct {
	spans []Interval
}

// Of builds a set from arbitrary, possibly overlapping intervals.
func Of(intervals ...Interval) Set {
	var s Set
	for _, i := range intervals {
		s = s.Add(i)
	}
	return s
}

// Empty reports whether the set contains no samples.
func (s Set) Empty() bool {
	return len(s.spans) == 0
}

// Len returns the number of disjoint intervals.
func (s Set) Len() int {
	return len(s.spans)
}

// Count returns the total number of samples in the set.
func (s Set) Count() int64 {
	var n int64
	for _, i := range s.spans {
		c := i.Count()
		if n > MaxSample-c {
			return MaxSample
		}
		n += c
	}
	return n
}

// Intervals returns a copy of the disjoint intervals in ascending order.
func (s Set) Intervals() []Interval {
	out := make([]Interval, len(s.spans))
	copy(out, s.spans)
	return out
}

// First returns the lowest interval.
func (s Set) First() (Interval, bool) {
	if len(s.spans) == 0 {
		return Interval{}, false
	}
	return s.spans[0], true
}

// Next returns the first interval that ends after sample, clipped so that
// it does not start before sample.
func (s Set) Next(sample int64) (Interval, bool) {
	for _, i := range s.spans {
		if i.End > sample {
			return New(max(i.Start, sample), i.End), true
		}
	}
	return Interval{}, false
}

// Spanned returns the smallest interval enclosing the whole set.
func (s Set) Spanned() Interval {
	if len(s.spans) == 0 {
		return Interval{}
	}
	return Interval{Start: s.spans[0].Start, End: s.spans[len(s.spans)-1].End}
}

// Contains reports whether sample is in the set.
func (s Set) Contains(sample int64) bool {
	for _, i := range s.spans {
		if i.Start > sample {
			return false
		}
		if i.Contains(sample) {
			return true
		}
	}
	return false
}

// Covers reports whether every sample of i is in the set.
func (s Set) Covers(i Interval) bool {
	if i.Empty() {
		return true
	}
	for _, span := range s.spans {
		if span.Start <= i.Start && i.End <= span.End {
			return true
		}
	}
	return false
}

// Overlaps reports whether the set shares at least one sample with i.
func (s Set) Overlaps(i Interval) bool {
	for _, span := range s.spans {
		if span.Overlaps(i) {
			return true
		}
	}
	return false
}

// Equal reports whether both sets contain the same samples.
func (s Set) Equal(o Set) bool {
	if len(s.spans) != len(o.spans) {
		return false
	}
	for k := range s.spans {
		if s.spans[k] != o.spans[k] {
			return false
		}
	}
	return true
}

// Add returns s ∪ {i}.
func (s Set) Add(i Interval) Set {
	if i.Empty() {
		return s.clone()
	}
	out := make([]Interval, 0, len(s.spans)+1)
	k := 0
	for ; k < len(s.spans) && s.spans[k].End < i.Start; k++ {
		out = append(out, s.spans[k])
	}
	// Absorb every span touching or overlapping i.
	for ; k < len(s.spans) && s.spans[k].Start <= i.End; k++ {
		i.Start = min(i.Start, s.spans[k].Start)
		i.End = max(i.End, s.spans[k].End)
	}
	out = append(out, i)
	out = append(out, s.spans[k:]...)
	return Set{spans: out}
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	out := s.clone()
	for _, i := range o.spans {
		out = out.Add(i)
	}
	return out
}

// Remove returns s − {i}.
func (s Set) Remove(i Interval) Set {
	if i.Empty() {
		return s.clone()
	}
	out := make([]Interval, 0, len(s.spans)+1)
	for _, span := range s.spans {
		if !span.Overlaps(i) {
			out = append(out, span)
			continue
		}
		if span.Start < i.Start {
			out = append(out, Interval{Start: span.Start, End: i.Start})
		}
		if i.End < span.End {
			out = append(out, Interval{Start: i.End, End: span.End})
		}
	}
	return Set{spans: out}
}

// Difference returns s − o.
func (s Set) Difference(o Set) Set {
	out := s.clone()
	for _, i := range o.spans {
		out = out.Remove(i)
	}
	return out
}

// Clip returns s ∩ {i}.
func (s Set) Clip(i Interval) Set {
	out := make([]Interval, 0, len(s.spans))
	for _, span := range s.spans {
		if c := span.Intersect(i); !c.Empty() {
			out = append(out, c)
		}
	}
	return Set{spans: out}
}

// Intersection returns s ∩ o.
func (s Set) Intersection(o Set) Set {
	var out []Interval
	a, b := 0, 0
	for a < len(s.spans) && b < len(o.spans) {
		if c := s.spans[a].Intersect(o.spans[b]); !c.Empty() {
			out = append(out, c)
		}
		if s.spans[a].End < o.spans[b].End {
			a++
		} else {
			b++
		}
	}
	return Set{spans: out}
}

func (s Set) clone() Set {
	if len(s.spans) == 0 {
		return Set{}
	}
	out := make([]Interval, len(s.spans))
	copy(out, s.spans)
	return Set{spans: out}
}

func (s Set) String() string {
	if len(s.spans) == 0 {
		return "{}"
	}
	parts := make([]string, len(s.spans))
	for k, i := range s.spans {
		parts[k] = i.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
