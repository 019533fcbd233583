package heightmap

import "github.com/tphakala/go-heightmap/internal/gpu"

// Block grid limits.
const (
	DefaultBlockWidth  = 128
	DefaultBlockHeight = 256
	minBlockSize       = 8
	maxBlockSize       = 4096
)

// Addressing defaults.
const (
	DefaultScaleCount         = 512
	DefaultInterpolationSlack = 0.25
	minInterpolationSlack     = 1.0 / minBlockSize
	maxInterpolationSlack     = 1.0
)

// Eviction policy.
const (
	DefaultRedundancyFactor = 16
	minRedundancyFactor     = 1
	maxRedundancyFactor     = 64

	DefaultMinRetained = 16
)

// Display axis defaults.
const (
	defaultDisplayMinHz = 20.0
)

// Device and handoff defaults.
const (
	DefaultDeviceBudget = 256 << 20
	DefaultQueueDepth   = 8
	bytesPerTexel       = gpu.BytesPerTexel
)
