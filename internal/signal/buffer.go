// Package signal holds the growing mono sample buffer that transforms read from.
package signal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tphakala/go-heightmap/internal/interval"
)

// ErrInvalidRate is returned for a non-positive sample rate.
var ErrInvalidRate = errors.New("signal: sample rate must be positive")

// Buffer is an append-only sample store. Readers see a consistent prefix
// while a writer appends. It is safe for concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	rate float64
	data []float32
}

// NewBuffer creates an empty buffer at the given sample rate.
func NewBuffer(rate float64, capacity int) (*Buffer, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	return &Buffer{rate: rate, data: make([]float32, 0, max(capacity, 0))}, nil
}

// SampleRate returns the native sample rate in Hz.
func (b *Buffer) SampleRate() float64 {
	return b.rate
}

// Append adds samples to the end and returns the interval they now occupy.
func (b *Buffer) Append(samples []float32) interval.Interval {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := int64(len(b.data))
	b.data = append(b.data, samples...)
	return interval.New(start, int64(len(b.data)))
}

// Len returns the number of samples stored.
func (b *Buffer) Len() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.data))
}

// Read copies the samples of [start, start+len(dst)) into dst. Positions
// outside the stored signal read as zero. It returns the number of real
// samples copied.
func (b *Buffer) Read(start int64, dst []float32) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clear(dst)
	n := int64(len(b.data))
	lo := max(start, 0)
	hi := min(start+int64(len(dst)), n)
	if lo >= hi {
		return 0
	}
	return copy(dst[lo-start:], b.data[lo:hi])
}
