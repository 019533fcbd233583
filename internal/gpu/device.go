// Package gpu abstracts the texture storage behind heightmap blocks.
//
// The cache never touches a graphics API directly. It allocates one
// single-channel float texture per block through a [Device], uploads the
// block's CPU grid into it and maps it for the frame that draws it.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
)

var (
	// ErrOutOfMemory is returned when a texture cannot be allocated.
	ErrOutOfMemory = errors.New("gpu: out of texture memory")

	// ErrUnknownTexture is returned for released or never allocated textures.
	ErrUnknownTexture = errors.New("gpu: unknown texture")

	// ErrSizeMismatch is returned when data does not match the texture shape.
	ErrSizeMismatch = errors.New("gpu: data size mismatch")
)

// BytesPerTexel is the storage cost of one float32 texel.
const BytesPerTexel = 4

// Texture identifies an allocated texture. The zero value is never issued.
type Texture uint64

// Device allocates and fills block textures.
type Device interface {
	Allocate(width, height int) (Texture, error)
	Release(t Texture) error
	Write(t Texture, data []float32) error
	Read(t Texture, dst []float32) error
	Map(t Texture) error
	Unmap(t Texture) error
}

type texture struct {
	width, height int
	data          []float32
	mapped        bool
}

// MemoryDevice is a Device backed by host memory with a fixed budget.
// It is safe for concurrent use.
type MemoryDevice struct {
	mu       sync.Mutex
	budget   uint64
	used     uint64
	next     Texture
	textures map[Texture]*texture
	failures int
	allocs   uint64
}

// NewMemoryDevice returns a device that holds at most budget bytes of texels.
func NewMemoryDevice(budget uint64) *MemoryDevice {
	return &MemoryDevice{
		budget:   budget,
		textures: make(map[Texture]*texture),
	}
}

// FailNext makes the next n allocations fail with ErrOutOfMemory.
func (d *MemoryDevice) FailNext(n int) {
	d.mu.Lock()
	d.failures = n
	d.mu.Unlock()
}

// Allocate implements Device.
func (d *MemoryDevice) Allocate(width, height int) (Texture, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrSizeMismatch, width, height)
	}
	size := uint64(width) * uint64(height) * BytesPerTexel

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failures > 0 {
		d.failures--
		return 0, fmt.Errorf("%w: injected failure", ErrOutOfMemory)
	}
	if d.used+size > d.budget {
		return 0, fmt.Errorf("%w: need %s, %s of %s in use", ErrOutOfMemory,
			humanize.Bytes(size), humanize.Bytes(d.used), humanize.Bytes(d.budget))
	}

	d.next++
	d.textures[d.next] = &texture{width: width, height: height, data: make([]float32, width*height)}
	d.used += size
	d.allocs++
	return d.next, nil
}

// Release implements Device.
func (d *MemoryDevice) Release(t Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.textures[t]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, t)
	}
	d.used -= uint64(len(tex.data)) * BytesPerTexel
	delete(d.textures, t)
	return nil
}

// Write implements Device.
func (d *MemoryDevice) Write(t Texture, data []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, err := d.lookup(t)
	if err != nil {
		return err
	}
	if len(data) != len(tex.data) {
		return fmt.Errorf("%w: %d values for %dx%d texture", ErrSizeMismatch, len(data), tex.width, tex.height)
	}
	copy(tex.data, data)
	return nil
}

// Read implements Device.
func (d *MemoryDevice) Read(t Texture, dst []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, err := d.lookup(t)
	if err != nil {
		return err
	}
	if len(dst) != len(tex.data) {
		return fmt.Errorf("%w: %d values for %dx%d texture", ErrSizeMismatch, len(dst), tex.width, tex.height)
	}
	copy(dst, tex.data)
	return nil
}

// Map implements Device.
func (d *MemoryDevice) Map(t Texture) error {
	return d.setMapped(t, true)
}

// Unmap implements Device.
func (d *MemoryDevice) Unmap(t Texture) error {
	return d.setMapped(t, false)
}

func (d *MemoryDevice) setMapped(t Texture, mapped bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, err := d.lookup(t)
	if err != nil {
		return err
	}
	tex.mapped = mapped
	return nil
}

func (d *MemoryDevice) lookup(t Texture) (*texture, error) {
	tex, ok := d.textures[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTexture, t)
	}
	return tex, nil
}

// Stats reports device occupancy.
type Stats struct {
	Live        int
	Mapped      int
	UsedBytes   uint64
	BudgetBytes uint64
	Allocations uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d textures (%d mapped), %s of %s",
		s.Live, s.Mapped, humanize.Bytes(s.UsedBytes), humanize.Bytes(s.BudgetBytes))
}

// Stats returns a snapshot of the device occupancy.
func (d *MemoryDevice) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Stats{
		Live:        len(d.textures),
		UsedBytes:   d.used,
		BudgetBytes: d.budget,
		Allocations: d.allocs,
	}
	for _, tex := range d.textures {
		if tex.mapped {
			s.Mapped++
		}
	}
	return s
}

var _ Device = (*MemoryDevice)(nil)
