// Package block holds one heightmap tile: a fixed-size grid of magnitudes
// covering the world rectangle of a tile.Reference, the native sample
// range that grid currently reflects, and the texture it is drawn from.
package block

import (
	"fmt"

	"github.com/tphakala/go-heightmap/internal/gpu"
	"github.com/tphakala/go-heightmap/internal/interval"
	"github.com/tphakala/go-heightmap/internal/simdops"
	"github.com/tphakala/go-heightmap/internal/tile"
)

// Block is one tile of the heightmap.
//
// Data is row-major with Width columns along time and Height rows along
// scale: Data[row*Width+col]. Valid is expressed in native sample indices
// and never extends beyond the block's own sample interval.
type Block struct {
	tile.Geometry

	Data       []float32
	SlopeTime  []float32
	SlopeScale []float32
	Valid      interval.Set

	// LastUsed is the frame in which the block was last fetched.
	LastUsed uint64

	device  gpu.Device
	texture gpu.Texture
	dirty   bool
	mapped  bool
}

// New allocates a block and its texture. Allocation failures are returned
// unchanged so callers can test for gpu.ErrOutOfMemory.
func New(device gpu.Device, g tile.Geometry) (*Block, error) {
	tex, err := device.Allocate(g.Width, g.Height)
	if err != nil {
		return nil, err
	}
	n := g.Width * g.Height
	return &Block{
		Geometry:   g,
		Data:       make([]float32, n),
		SlopeTime:  make([]float32, n),
		SlopeScale: make([]float32, n),
		device:     device,
		texture:    tex,
		dirty:      true,
	}, nil
}

func (b *Block) String() string {
	return fmt.Sprintf("block %v %v valid %v", b.Ref, b.Interval(), b.Valid)
}

// Texture returns the backing texture, or 0 after Release.
func (b *Block) Texture() gpu.Texture {
	return b.texture
}

// At returns the value at (col, row).
func (b *Block) At(col, row int) float32 {
	return b.Data[row*b.Width+col]
}

// Touch records that the block was used in frame.
func (b *Block) Touch(frame uint64) {
	b.LastUsed = frame
}

// Invalid returns the part of the block's sample interval, clipped to
// limit, that is not covered by Valid.
func (b *Block) Invalid(limit interval.Interval) interval.Set {
	return interval.Of(b.Interval().Intersect(limit)).Difference(b.Valid)
}

// FullyValid reports whether Valid covers the block's sample interval
// clipped to limit.
func (b *Block) FullyValid(limit interval.Interval) bool {
	return b.Valid.Covers(b.Interval().Intersect(limit))
}

// Invalidate forgets validity for samples in iv. The grid is kept as an
// approximation until new data arrives.
func (b *Block) Invalidate(iv interval.Interval) {
	b.Valid = b.Valid.Remove(iv)
}

// UpdateSlope recomputes the slope grids from Data and marks the block for
// upload. It must follow every change to Data.
func (b *Block) UpdateSlope() {
	w, h := b.Width, b.Height
	ext := b.Extent()
	for y := range h {
		row := b.Data[y*w : (y+1)*w]
		out := b.SlopeTime[y*w : (y+1)*w]
		for x := range w {
			l, r := max(x-1, 0), min(x+1, w-1)
			out[x] = (row[r] - row[l]) / float32(r-l)
		}
		up, down := min(y+1, h-1), max(y-1, 0)
		above := b.Data[up*w : (up+1)*w]
		below := b.Data[down*w : (down+1)*w]
		out = b.SlopeScale[y*w : (y+1)*w]
		for x := range w {
			out[x] = (above[x] - below[x]) / float32(max(up-down, 1))
		}
	}

	ops := simdops.Float32Ops()
	ops.Scale(b.SlopeTime, b.SlopeTime, float32(1/ext.Time))
	ops.Scale(b.SlopeScale, b.SlopeScale, float32(1/ext.Scale))
	b.dirty = true
}

// Dirty reports whether Data changed since the last Upload.
func (b *Block) Dirty() bool {
	return b.dirty
}

// Upload copies Data into the texture if it changed.
func (b *Block) Upload() error {
	if !b.dirty {
		return nil
	}
	if err := b.device.Write(b.texture, b.Data); err != nil {
		return fmt.Errorf("upload %v: %w", b.Ref, err)
	}
	b.dirty = false
	return nil
}

// Mapped reports whether the texture is mapped for drawing.
func (b *Block) Mapped() bool {
	return b.mapped
}

// Map makes the texture available to the renderer.
func (b *Block) Map() error {
	if b.mapped {
		return nil
	}
	if err := b.device.Map(b.texture); err != nil {
		return err
	}
	b.mapped = true
	return nil
}

// Unmap releases the renderer's mapping.
func (b *Block) Unmap() error {
	if !b.mapped {
		return nil
	}
	b.mapped = false
	return b.device.Unmap(b.texture)
}

// Release frees the texture. Calling it twice is a no-op.
func (b *Block) Release() error {
	if b.texture == 0 {
		return nil
	}
	tex := b.texture
	b.texture = 0
	b.mapped = false
	return b.device.Release(tex)
}

// Mean returns the average magnitude of the grid.
func (b *Block) Mean() float32 {
	return simdops.Float32Ops().Sum(b.Data) / float32(len(b.Data))
}
