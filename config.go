package heightmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/go-heightmap/internal/gpu"
)

// Common errors returned by the heightmap.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid heightmap configuration")

	// ErrClosed is returned by handoff operations after Close.
	ErrClosed = errors.New("heightmap: collection closed")

	// ErrOutOfMemory is the allocation failure a Device reports when it
	// runs out of texture memory.
	ErrOutOfMemory = gpu.ErrOutOfMemory
)

// StubProducer supplies a fast, low-fidelity fill for new blocks. It is
// asked for roughly columns frames covering iv.
type StubProducer interface {
	Produce(ctx context.Context, iv Interval, columns int) (Chunk, error)
}

// Config holds heightmap configuration. Zero fields other than SampleRate
// take their defaults in New.
type Config struct {
	// SampleRate is the native sample rate of the signal in Hz.
	SampleRate float64

	// NumSamples is the current signal length. It may grow later through
	// SetSignalLength.
	NumSamples int64

	// ScaleCount is the number of distinct frequency scales the transform
	// resolves over the display axis.
	ScaleCount int

	// BlockWidth and BlockHeight are the grid dimensions of every block,
	// columns along time and rows along scale.
	BlockWidth  int
	BlockHeight int

	// InterpolationSlack widens the smallest block extent so that slight
	// magnification does not require denser blocks.
	InterpolationSlack float64

	// RedundancyFactor bounds the cache to this many times the number of
	// blocks used in the current frame.
	RedundancyFactor int

	// MinRetained is the number of blocks never evicted by the redundancy
	// bound.
	MinRetained int

	// DisplayAxis maps normalized scale to Hz. Defaults to a logarithmic
	// axis from 20 Hz to Nyquist.
	DisplayAxis FrequencyAxis

	// Device allocates block textures. Defaults to a host-memory device
	// with a DefaultDeviceBudget budget.
	Device Device

	// Stub, when set, pre-fills new blocks.
	Stub StubProducer

	// QueueDepth is the capacity of the producer handoff queue.
	QueueDepth int

	// LoggerFactory overrides the default pion logger factory.
	LoggerFactory logging.LoggerFactory

	// Registerer, when set, receives the collection's metrics.
	Registerer prometheus.Registerer
}

// DefaultConfig returns a configuration for a signal of numSamples
// samples at sampleRate.
func DefaultConfig(sampleRate float64, numSamples int64) Config {
	c := Config{SampleRate: sampleRate, NumSamples: numSamples}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ScaleCount == 0 {
		c.ScaleCount = DefaultScaleCount
	}
	if c.BlockWidth == 0 {
		c.BlockWidth = DefaultBlockWidth
	}
	if c.BlockHeight == 0 {
		c.BlockHeight = DefaultBlockHeight
	}
	if c.InterpolationSlack == 0 {
		c.InterpolationSlack = DefaultInterpolationSlack
	}
	if c.RedundancyFactor == 0 {
		c.RedundancyFactor = DefaultRedundancyFactor
	}
	if c.MinRetained == 0 {
		c.MinRetained = DefaultMinRetained
	}
	if c.DisplayAxis == (FrequencyAxis{}) && c.SampleRate > 2*defaultDisplayMinHz {
		c.DisplayAxis = LogAxis(defaultDisplayMinHz, c.SampleRate/2)
	}
	if c.Device == nil {
		c.Device = gpu.NewMemoryDevice(DefaultDeviceBudget)
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = DefaultQueueDepth
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}

	if c.NumSamples < 0 {
		return fmt.Errorf("%w: negative signal length", ErrInvalidConfig)
	}

	if c.ScaleCount < 1 {
		return fmt.Errorf("%w: scale count must be at least 1", ErrInvalidConfig)
	}

	if err := validateBlockSize(c.BlockWidth, c.BlockHeight); err != nil {
		return err
	}

	if c.InterpolationSlack < minInterpolationSlack || c.InterpolationSlack > maxInterpolationSlack {
		return fmt.Errorf("%w: interpolation slack must be in [%v, %v]",
			ErrInvalidConfig, minInterpolationSlack, maxInterpolationSlack)
	}

	if c.RedundancyFactor < minRedundancyFactor || c.RedundancyFactor > maxRedundancyFactor {
		return fmt.Errorf("%w: redundancy factor must be %d-%d",
			ErrInvalidConfig, minRedundancyFactor, maxRedundancyFactor)
	}

	if c.MinRetained < 1 {
		return fmt.Errorf("%w: min retained must be at least 1", ErrInvalidConfig)
	}

	if err := c.DisplayAxis.Validate(); err != nil {
		return fmt.Errorf("%w: display axis: %w", ErrInvalidConfig, err)
	}

	if c.Device == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidConfig)
	}

	if c.QueueDepth < 1 {
		return fmt.Errorf("%w: queue depth must be at least 1", ErrInvalidConfig)
	}

	return nil
}

func validateBlockSize(width, height int) error {
	if width < minBlockSize || width > maxBlockSize || height < minBlockSize || height > maxBlockSize {
		return fmt.Errorf("%w: block size %dx%d outside %d-%d",
			ErrInvalidConfig, width, height, minBlockSize, maxBlockSize)
	}
	return nil
}
