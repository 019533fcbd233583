// Package transform computes short-time Fourier transforms of a sample
// source and packages them as chunks for the heightmap.
//
// Every request carries its own Config; there is no shared tuning state
// between requests.
package transform

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/pion/logging"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-heightmap/internal/chunk"
	"github.com/tphakala/go-heightmap/internal/interval"
	hmlog "github.com/tphakala/go-heightmap/internal/logging"
	"github.com/tphakala/go-heightmap/internal/mathutil"
	"github.com/tphakala/go-heightmap/internal/simdops"
)

var (
	// ErrInvalidRequest indicates an unusable Config or interval.
	ErrInvalidRequest = errors.New("transform: invalid request")

	// ErrRangeTooLarge indicates a request larger than Config.MaxSamples.
	ErrRangeTooLarge = errors.New("transform: range too large")
)

// WindowKind selects the analysis window.
type WindowKind int

const (
	Hann WindowKind = iota
	Kaiser
)

// Source is a readable sample store. Reads outside the stored range
// yield zeros.
type Source interface {
	SampleRate() float64
	Len() int64
	Read(start int64, dst []float32) int
}

// Config tunes one transform request.
type Config struct {
	// WindowSize is the FFT length in samples.
	WindowSize int

	// Hop is the distance between frames in samples; one frame becomes
	// one chunk column.
	Hop int

	Window WindowKind

	// Attenuation is the Kaiser sidelobe level in dB.
	Attenuation float64

	// MaxSamples bounds the interval a single request may cover.
	MaxSamples int64
}

// DefaultConfig returns a Hann STFT configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:  DefaultWindowSize,
		Hop:         DefaultHop,
		Window:      Hann,
		Attenuation: DefaultAttenuation,
		MaxSamples:  DefaultMaxSamples,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.WindowSize < 2 {
		return fmt.Errorf("%w: window size %d", ErrInvalidRequest, c.WindowSize)
	}
	if c.Hop < 1 || c.Hop > c.WindowSize {
		return fmt.Errorf("%w: hop %d for window %d", ErrInvalidRequest, c.Hop, c.WindowSize)
	}
	if c.Window != Hann && c.Window != Kaiser {
		return fmt.Errorf("%w: unknown window %d", ErrInvalidRequest, c.Window)
	}
	if c.MaxSamples <= 0 {
		return fmt.Errorf("%w: max samples %d", ErrInvalidRequest, c.MaxSamples)
	}
	return nil
}

type windowKey struct {
	kind WindowKind
	size int
	att  float64
}

// STFT produces WindowedFrames chunks from a Source. FFT plans and windows
// are cached per size; it is safe for concurrent use.
type STFT struct {
	src Source
	log logging.LeveledLogger

	mu      sync.Mutex
	plans   map[int]*fourier.FFT
	windows map[windowKey][]float64
}

// New returns an STFT over src. A nil factory uses the default one.
func New(src Source, factory logging.LoggerFactory) *STFT {
	return &STFT{
		src:     src,
		log:     hmlog.From(factory, "heightmap/transform"),
		plans:   make(map[int]*fourier.FFT),
		windows: make(map[windowKey][]float64),
	}
}

// Produce analyses iv with cfg. The returned chunk covers iv rounded out to
// whole hops; all of its columns are valid.
func (s *STFT) Produce(ctx context.Context, iv interval.Interval, cfg Config) (*chunk.WindowedFrames, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if iv.Empty() || iv.Start < 0 {
		return nil, fmt.Errorf("%w: interval %v", ErrInvalidRequest, iv)
	}
	if iv.Count() > cfg.MaxSamples {
		return nil, fmt.Errorf("%w: %d samples, limit %d", ErrRangeTooLarge, iv.Count(), cfg.MaxSamples)
	}

	hop := int64(cfg.Hop)
	offset := iv.Start / hop * hop
	columns := int((iv.End - offset + hop - 1) / hop)

	window := s.window(cfg)
	plan := s.plan(cfg.WindowSize)

	buf := make([]float32, cfg.WindowSize)
	seq := make([]float64, cfg.WindowSize)
	frames := make([][]complex128, columns)
	for j := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Centre the window on the column.
		start := offset + int64(j)*hop + hop/2 - int64(cfg.WindowSize/2)
		s.src.Read(start, buf)
		for i, v := range buf {
			seq[i] = float64(v) * window[i]
		}
		frames[j] = s.transform(plan, seq)
	}

	rate := s.src.SampleRate()
	h := chunk.Header{
		Offset:     offset,
		SignalRate: rate,
		ColumnRate: rate / float64(cfg.Hop),
		NumValid:   columns,
		Axis:       chunk.LinearAxis(0, rate/2),
	}
	scale := 2 / simdops.Float64Ops().Sum(window)
	s.log.Debugf("stft %v: %d frames of %d", iv, columns, cfg.WindowSize)
	return chunk.NewWindowedFrames(h, frames, scale)
}

func (s *STFT) transform(plan *fourier.FFT, seq []float64) []complex128 {
	// gonum FFT plans keep scratch space and must not be shared.
	s.mu.Lock()
	defer s.mu.Unlock()
	return plan.Coefficients(nil, seq)
}

func (s *STFT) plan(n int) *fourier.FFT {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[n]
	if !ok {
		p = fourier.NewFFT(n)
		s.plans[n] = p
	}
	return p
}

func (s *STFT) window(cfg Config) []float64 {
	key := windowKey{kind: cfg.Window, size: cfg.WindowSize}
	if cfg.Window == Kaiser {
		key.att = cfg.Attenuation
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok {
		if cfg.Window == Kaiser {
			w = mathutil.Kaiser(cfg.WindowSize, mathutil.KaiserBeta(cfg.Attenuation))
		} else {
			w = mathutil.Hann(cfg.WindowSize)
		}
		s.windows[key] = w
	}
	return w
}

// Coarse is the low-fidelity stub fill: one short frame per requested
// column, refusing ranges above MaxStubSamples.
type Coarse struct {
	STFT   *STFT
	Window WindowKind
}

// Produce analyses iv into roughly columns frames.
func (c *Coarse) Produce(ctx context.Context, iv interval.Interval, columns int) (chunk.Chunk, error) {
	if columns < 1 {
		return nil, fmt.Errorf("%w: %d columns", ErrInvalidRequest, columns)
	}
	if iv.Count() > MaxStubSamples {
		return nil, fmt.Errorf("%w: stub of %d samples, limit %d", ErrRangeTooLarge, iv.Count(), MaxStubSamples)
	}
	hop := max(int(math.Ceil(float64(iv.Count())/float64(columns))), 1)
	win := 1 << bitsFor(hop)
	win = min(max(win, minStubWindow), maxStubWindow)

	return c.STFT.Produce(ctx, iv, Config{
		WindowSize:  win,
		Hop:         min(hop, win),
		Window:      c.Window,
		Attenuation: DefaultAttenuation,
		MaxSamples:  MaxStubSamples,
	})
}

// bitsFor returns the smallest b with 1<<b >= n.
func bitsFor(n int) int {
	b := 0
	for 1<<b < n {
		b++
	}
	return b
}
