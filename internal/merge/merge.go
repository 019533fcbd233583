// Package merge writes transform output and neighbouring blocks into a
// block's grid.
//
// Both entry points restrict writes to the destination columns whose native
// sample footprint intersects
//
//	(source coverage ∩ destination interval) − destination valid region
//
// and then grow the destination's valid region by that transfer region.
// Merging the same source twice is therefore a no-op. Upsampling
// interpolates linearly per axis, downsampling keeps the per-axis maximum.
//
// Shape mismatches are programming errors and panic. The caller owns
// locking and must call UpdateSlope on the block when a merge reports a
// change.
package merge

import (
	"fmt"

	"github.com/tphakala/go-heightmap/internal/block"
	"github.com/tphakala/go-heightmap/internal/chunk"
	"github.com/tphakala/go-heightmap/internal/interval"
	"github.com/tphakala/go-heightmap/internal/tile"
)

// ChunkIntoBlock merges c into dst. display maps dst's normalized scale
// rows to Hz. Rows outside the chunk's frequency range are written as
// zero. It reports whether anything was written.
func ChunkIntoBlock(dst *block.Block, c chunk.Chunk, display chunk.FrequencyAxis) bool {
	return chunkIntoBlock(dst, c, display, true)
}

// ChunkPixels writes c into dst like ChunkIntoBlock but leaves the valid
// region alone. It is used for approximate fills.
func ChunkPixels(dst *block.Block, c chunk.Chunk, display chunk.FrequencyAxis) bool {
	return chunkIntoBlock(dst, c, display, false)
}

func chunkIntoBlock(dst *block.Block, c chunk.Chunk, display chunk.FrequencyAxis, validate bool) bool {
	checkShape(dst)
	bins := c.Bins()
	if bins < 2 {
		panic(fmt.Sprintf("merge: chunk has %d bins", bins))
	}
	first, end := c.ValidColumns()
	if end <= first {
		return false
	}

	region := interval.Of(c.Interval().Intersect(dst.Interval())).Difference(dst.Valid)
	if region.Empty() {
		return false
	}

	rows := make([]span, dst.Height)
	for y := range rows {
		lo := chunk.BinAt(c, display.Hz(dst.RowScale(y))) + 0.5
		hi := chunk.BinAt(c, display.Hz(dst.RowScale(y+1))) + 0.5
		rows[y] = mapSpan(lo, hi, 0, bins)
	}

	written := false
	for x := range dst.Width {
		fp := footprint(dst.Geometry, x)
		if !region.Overlaps(fp) {
			continue
		}
		// The chunk interval is rounded to whole samples, so a footprint
		// inside it may still land a fraction of a column outside.
		from := min(c.ColumnAt(float64(fp.Start)), float64(end)-0.5)
		to := max(c.ColumnAt(float64(fp.End)), float64(first)+0.5)
		cols := mapSpan(from, to, first, end)
		blend := dst.Valid.Overlaps(fp)
		for y, rs := range rows {
			var v float32
			if !rs.empty {
				v = cols.reduce(func(col int) float32 {
					return rs.reduce(func(bin int) float32 { return c.Value(col, bin) })
				})
			}
			store(dst, x, y, v, blend)
		}
		written = true
	}

	if validate {
		dst.Valid = dst.Valid.Union(region)
	}
	return written
}

// BlockIntoBlock merges the valid part of src into dst. Only a source at
// least as dense as dst on both axes whose scale range spans dst's grows
// dst's valid region; other sources contribute pixels only. Rows outside
// src's scale range are left untouched. It reports whether anything was
// written.
func BlockIntoBlock(dst, src *block.Block) bool {
	if dst == src {
		panic("merge: block merged into itself")
	}
	checkShape(dst)
	checkShape(src)
	if dst.Width != src.Width || dst.Height != src.Height {
		panic(fmt.Sprintf("merge: block sizes differ, %dx%d and %dx%d",
			dst.Width, dst.Height, src.Width, src.Height))
	}

	region := src.Valid.Clip(dst.Interval()).Difference(dst.Valid)
	if region.Empty() {
		return false
	}

	sr, dr := src.Rect(), dst.Rect()
	se := src.Extent()
	rows := make([]span, dst.Height)
	for y := range rows {
		lo := (dst.RowScale(y) - sr.S0) / se.Scale
		hi := (dst.RowScale(y+1) - sr.S0) / se.Scale
		rows[y] = mapSpan(lo, hi, 0, src.Height)
	}

	written := false
	for x := range dst.Width {
		fp := footprint(dst.Geometry, x)
		if !region.Overlaps(fp) {
			continue
		}
		lo := (dst.ColumnTime(x) - sr.T0) / se.Time
		hi := (dst.ColumnTime(x+1) - sr.T0) / se.Time
		cols := mapSpan(lo, hi, 0, src.Width)
		if cols.empty {
			continue
		}
		blend := dst.Valid.Overlaps(fp)
		for y, rs := range rows {
			if rs.empty {
				continue
			}
			v := cols.reduce(func(col int) float32 {
				return rs.reduce(func(row int) float32 { return src.At(col, row) })
			})
			store(dst, x, y, v, blend)
			written = true
		}
	}

	if Validates(src.Ref, dst.Ref, sr, dr) {
		dst.Valid = dst.Valid.Union(region)
	}
	return written
}

// Validates reports whether data merged from src may be trusted as valid
// data in dst.
func Validates(src, dst tile.Reference, sr, dr tile.Rect) bool {
	return src.FinerOrEqual(dst) && sr.S0 <= dr.S0 && sr.S1 >= dr.S1
}

// footprint returns the native samples column x of g stands for. Columns
// narrower than a sample still stand for the sample they start in.
func footprint(g tile.Geometry, x int) interval.Interval {
	a, b := g.ColumnSample(x), g.ColumnSample(x+1)
	return interval.New(a, max(b, a+1))
}

func store(dst *block.Block, x, y int, v float32, blend bool) {
	i := y*dst.Width + x
	if blend {
		v = max(v, dst.Data[i])
	}
	dst.Data[i] = v
}

func checkShape(b *block.Block) {
	if b.Width <= 0 || b.Height <= 0 || len(b.Data) != b.Width*b.Height {
		panic(fmt.Sprintf("merge: %v has %d values for a %dx%d grid", b.Ref, len(b.Data), b.Width, b.Height))
	}
}
