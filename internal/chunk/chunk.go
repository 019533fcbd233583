package chunk

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tphakala/go-heightmap/internal/interval"
)

// Chunk is one piece of transform output.
type Chunk interface {
	// Interval is the native sample range the valid columns cover.
	Interval() interval.Interval

	// ColumnAt returns the fractional column index of a native sample position.
	ColumnAt(sample float64) float64

	// ValidColumns returns the trustworthy column range [first, end).
	ValidColumns() (first, end int)

	// FrequencyAxis maps bin positions to Hz.
	FrequencyAxis() FrequencyAxis

	// Bins returns the number of frequency bins per column.
	Bins() int

	// Value returns the magnitude at (col, bin).
	Value(col, bin int) float32
}

// Header carries the metadata shared by every chunk layout.
type Header struct {
	// Offset is the native sample index where column 0 starts.
	Offset int64

	// SignalRate is the native sample rate in Hz.
	SignalRate float64

	// ColumnRate is the number of columns per second.
	ColumnRate float64

	// FirstValid and NumValid select the columns free of edge effects.
	FirstValid int
	NumValid   int

	// Axis maps bins to Hz: bin b sits at position b/(bins-1).
	Axis FrequencyAxis
}

// Interval implements Chunk.
func (h Header) Interval() interval.Interval {
	return interval.New(h.columnSample(h.FirstValid), h.columnSample(h.FirstValid+h.NumValid))
}

// ColumnAt implements Chunk.
func (h Header) ColumnAt(sample float64) float64 {
	return (sample - float64(h.Offset)) * h.ColumnRate / h.SignalRate
}

// ValidColumns implements Chunk.
func (h Header) ValidColumns() (first, end int) {
	return h.FirstValid, h.FirstValid + h.NumValid
}

// FrequencyAxis implements Chunk.
func (h Header) FrequencyAxis() FrequencyAxis {
	return h.Axis
}

func (h Header) columnSample(col int) int64 {
	return h.Offset + int64(math.Round(float64(col)*h.SignalRate/h.ColumnRate))
}

func (h Header) validate(columns int) error {
	if h.SignalRate <= 0 || h.ColumnRate <= 0 {
		return fmt.Errorf("%w: rates must be positive", ErrInvalidChunk)
	}
	if h.FirstValid < 0 || h.NumValid < 0 || h.FirstValid+h.NumValid > columns {
		return fmt.Errorf("%w: valid columns [%d, +%d) outside %d columns", ErrInvalidChunk, h.FirstValid, h.NumValid, columns)
	}
	return h.Axis.Validate()
}

// BinAt returns the fractional bin of c closest to hz.
func BinAt(c Chunk, hz float64) float64 {
	return c.FrequencyAxis().Position(hz) * float64(c.Bins()-1)
}

// RawBins stores magnitudes column-major: Data[col*Bins+bin]. Wavelet
// style transforms produce this layout directly.
type RawBins struct {
	Header
	NumBins int
	Data    []float32
}

// NewRawBins validates and wraps a magnitude grid.
func NewRawBins(h Header, bins int, data []float32) (*RawBins, error) {
	if bins < 2 {
		return nil, fmt.Errorf("%w: need at least 2 bins, got %d", ErrInvalidChunk, bins)
	}
	if len(data)%bins != 0 {
		return nil, fmt.Errorf("%w: %d values is not a multiple of %d bins", ErrInvalidChunk, len(data), bins)
	}
	if err := h.validate(len(data) / bins); err != nil {
		return nil, err
	}
	return &RawBins{Header: h, NumBins: bins, Data: data}, nil
}

// Bins implements Chunk.
func (r *RawBins) Bins() int {
	return r.NumBins
}

// Value implements Chunk.
func (r *RawBins) Value(col, bin int) float32 {
	return r.Data[col*r.NumBins+bin]
}

// WindowedFrames stores complex spectra, one frame per column, as produced
// by a short-time Fourier transform.
type WindowedFrames struct {
	Header
	Frames [][]complex128

	// Scale multiplies every magnitude, e.g. window normalisation.
	Scale float64
}

// NewWindowedFrames validates and wraps a sequence of spectra.
func NewWindowedFrames(h Header, frames [][]complex128, scale float64) (*WindowedFrames, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalidChunk)
	}
	bins := len(frames[0])
	if bins < 2 {
		return nil, fmt.Errorf("%w: need at least 2 bins, got %d", ErrInvalidChunk, bins)
	}
	for i, f := range frames {
		if len(f) != bins {
			return nil, fmt.Errorf("%w: frame %d has %d bins, want %d", ErrInvalidChunk, i, len(f), bins)
		}
	}
	if err := h.validate(len(frames)); err != nil {
		return nil, err
	}
	return &WindowedFrames{Header: h, Frames: frames, Scale: scale}, nil
}

// Bins implements Chunk.
func (w *WindowedFrames) Bins() int {
	return len(w.Frames[0])
}

// Value implements Chunk.
func (w *WindowedFrames) Value(col, bin int) float32 {
	return float32(cmplx.Abs(w.Frames[col][bin]) * w.Scale)
}

var (
	_ Chunk = (*RawBins)(nil)
	_ Chunk = (*WindowedFrames)(nil)
)
