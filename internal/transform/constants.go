package transform

// Defaults for Config.
const (
	DefaultWindowSize  = 1024
	DefaultHop         = 256
	DefaultAttenuation = 80.0 // dB, Kaiser sidelobe level

	// DefaultMaxSamples bounds a single full-resolution request.
	DefaultMaxSamples = 1 << 22
)

// Stub (coarse mode) limits.
const (
	// MaxStubSamples bounds the range a stub fill will analyse. Blocks
	// covering more than this are left blank until real data arrives.
	MaxStubSamples = 1 << 20

	minStubWindow = 32
	maxStubWindow = 1024
)
