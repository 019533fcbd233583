// Package chunk describes transform output handed to the heightmap cache.
//
// A chunk is a grid of magnitudes: columns advance in time at a fixed
// column rate, bins advance along a frequency axis. Different transforms
// lay their payload out differently, so the cache only talks to them
// through the [Chunk] capability interface.
package chunk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidChunk indicates inconsistent chunk metadata or payload.
var ErrInvalidChunk = errors.New("invalid chunk")

// AxisKind selects how normalized positions map to Hz.
type AxisKind int

const (
	// Linear spaces frequencies evenly, as FFT bins are.
	Linear AxisKind = iota

	// Logarithmic spaces frequencies evenly per octave, as wavelet scales are.
	Logarithmic
)

func (k AxisKind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Logarithmic:
		return "logarithmic"
	default:
		return fmt.Sprintf("AxisKind(%d)", int(k))
	}
}

// FrequencyAxis maps a normalized position in [0, 1] to a frequency in Hz.
type FrequencyAxis struct {
	Kind  AxisKind
	MinHz float64
	MaxHz float64
}

// LinearAxis returns a linear axis from minHz to maxHz.
func LinearAxis(minHz, maxHz float64) FrequencyAxis {
	return FrequencyAxis{Kind: Linear, MinHz: minHz, MaxHz: maxHz}
}

// LogAxis returns a logarithmic axis from minHz to maxHz.
func LogAxis(minHz, maxHz float64) FrequencyAxis {
	return FrequencyAxis{Kind: Logarithmic, MinHz: minHz, MaxHz: maxHz}
}

// Validate checks that the axis is usable.
func (a FrequencyAxis) Validate() error {
	if !(a.MaxHz > a.MinHz) {
		return fmt.Errorf("%w: axis max %v Hz must exceed min %v Hz", ErrInvalidChunk, a.MaxHz, a.MinHz)
	}
	switch a.Kind {
	case Linear:
		if a.MinHz < 0 {
			return fmt.Errorf("%w: negative linear axis start", ErrInvalidChunk)
		}
	case Logarithmic:
		if a.MinHz <= 0 {
			return fmt.Errorf("%w: logarithmic axis must start above 0 Hz", ErrInvalidChunk)
		}
	default:
		return fmt.Errorf("%w: unknown axis kind %v", ErrInvalidChunk, a.Kind)
	}
	return nil
}

// Hz returns the frequency at normalized position pos.
func (a FrequencyAxis) Hz(pos float64) float64 {
	if a.Kind == Logarithmic {
		return a.MinHz * math.Pow(a.MaxHz/a.MinHz, pos)
	}
	return a.MinHz + pos*(a.MaxHz-a.MinHz)
}

// Position returns the normalized position of hz. Frequencies outside the
// axis map outside [0, 1]; non-positive frequencies on a logarithmic axis
// map to -Inf.
func (a FrequencyAxis) Position(hz float64) float64 {
	if a.Kind == Logarithmic {
		if hz <= 0 {
			return math.Inf(-1)
		}
		return math.Log(hz/a.MinHz) / math.Log(a.MaxHz/a.MinHz)
	}
	return (hz - a.MinHz) / (a.MaxHz - a.MinHz)
}
