// Package tile addresses heightmap blocks on the continuous
// (time, normalized scale) plane.
//
// A Reference selects one block out of an implicit pyramid: Log2Size fixes
// the per-sample extent along each axis (2^Log2Size seconds per column,
// 2^Log2Size scale units per row) and Index selects the block at that
// density. All navigation is plain index arithmetic; whether the result is
// meaningful for the current signal is answered by [Layout.Valid].
package tile

import "fmt"

// Axis indices into Reference fields and Position-like pairs.
const (
	TimeAxis  = 0
	ScaleAxis = 1
)

// Position is a point on the (time seconds, normalized scale) plane.
type Position struct {
	Time  float64
	Scale float64
}

// Reference identifies one block. It is a comparable value type and is used
// directly as a map key.
type Reference struct {
	Log2Size [2]int
	Index    [2]uint32
}

func (r Reference) String() string {
	return fmt.Sprintf("ref(log2=%d,%d idx=%d,%d)", r.Log2Size[0], r.Log2Size[1], r.Index[0], r.Index[1])
}

// Parent is the block one density step coarser on both axes that contains r.
func (r Reference) Parent() Reference {
	return r.ParentHorizontal().ParentVertical()
}

// ParentHorizontal is coarser along time only.
func (r Reference) ParentHorizontal() Reference {
	r.Log2Size[TimeAxis]++
	r.Index[TimeAxis] >>= 1
	return r
}

// ParentVertical is coarser along scale only.
func (r Reference) ParentVertical() Reference {
	r.Log2Size[ScaleAxis]++
	r.Index[ScaleAxis] >>= 1
	return r
}

// Left is the adjacent block at the same density, earlier in time.
func (r Reference) Left() Reference {
	r.Index[TimeAxis]--
	return r
}

// Right is the adjacent block at the same density, later in time.
func (r Reference) Right() Reference {
	r.Index[TimeAxis]++
	return r
}

// Top is the adjacent block at the same density, higher in scale.
func (r Reference) Top() Reference {
	r.Index[ScaleAxis]++
	return r
}

// Bottom is the adjacent block at the same density, lower in scale.
func (r Reference) Bottom() Reference {
	r.Index[ScaleAxis]--
	return r
}

// ChildLeft is the earlier half of r at twice the time density.
func (r Reference) ChildLeft() Reference {
	r.Log2Size[TimeAxis]--
	r.Index[TimeAxis] <<= 1
	return r
}

// ChildRight is the later half of r at twice the time density.
func (r Reference) ChildRight() Reference {
	r.Log2Size[TimeAxis]--
	r.Index[TimeAxis] = r.Index[TimeAxis]<<1 + 1
	return r
}

// ChildBottom is the lower half of r at twice the scale density.
func (r Reference) ChildBottom() Reference {
	r.Log2Size[ScaleAxis]--
	r.Index[ScaleAxis] <<= 1
	return r
}

// ChildTop is the upper half of r at twice the scale density.
func (r Reference) ChildTop() Reference {
	r.Log2Size[ScaleAxis]--
	r.Index[ScaleAxis] = r.Index[ScaleAxis]<<1 + 1
	return r
}

// Children returns the four quadrants of r, one density step finer on both axes.
func (r Reference) Children() [4]Reference {
	return [4]Reference{
		r.ChildLeft().ChildBottom(),
		r.ChildRight().ChildBottom(),
		r.ChildLeft().ChildTop(),
		r.ChildRight().ChildTop(),
	}
}

// FinerOrEqual reports whether r is at least as dense as o on both axes.
func (r Reference) FinerOrEqual(o Reference) bool {
	return r.Log2Size[TimeAxis] <= o.Log2Size[TimeAxis] && r.Log2Size[ScaleAxis] <= o.Log2Size[ScaleAxis]
}
