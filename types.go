package heightmap

import (
	"github.com/tphakala/go-heightmap/internal/block"
	"github.com/tphakala/go-heightmap/internal/chunk"
	"github.com/tphakala/go-heightmap/internal/gpu"
	"github.com/tphakala/go-heightmap/internal/interval"
	"github.com/tphakala/go-heightmap/internal/tile"
)

// Addressing.
type (
	// Position is a point on the (time seconds, normalized scale) plane.
	Position = tile.Position

	// Reference identifies one block.
	Reference = tile.Reference

	// Rect is a world-space rectangle.
	Rect = tile.Rect
)

// Sample ranges.
type (
	Interval    = interval.Interval
	IntervalSet = interval.Set
)

// Transform output.
type (
	Chunk          = chunk.Chunk
	FrequencyAxis  = chunk.FrequencyAxis
	ChunkHeader    = chunk.Header
	RawBins        = chunk.RawBins
	WindowedFrames = chunk.WindowedFrames
)

// Texture storage.
type (
	Device  = gpu.Device
	Texture = gpu.Texture
)

// Block is one cached tile.
type Block = block.Block

// NewInterval returns the half-open sample range [start, end).
func NewInterval(start, end int64) Interval {
	return interval.New(start, end)
}

// LinearAxis returns a linear frequency axis.
func LinearAxis(minHz, maxHz float64) FrequencyAxis {
	return chunk.LinearAxis(minHz, maxHz)
}

// LogAxis returns a logarithmic frequency axis.
func LogAxis(minHz, maxHz float64) FrequencyAxis {
	return chunk.LogAxis(minHz, maxHz)
}

// NewMemoryDevice returns a host-memory Device holding at most budget bytes.
func NewMemoryDevice(budget uint64) *gpu.MemoryDevice {
	return gpu.NewMemoryDevice(budget)
}

// NewRawBins wraps magnitudes stored column by column, bins values each.
func NewRawBins(h ChunkHeader, bins int, data []float32) (*RawBins, error) {
	return chunk.NewRawBins(h, bins, data)
}
