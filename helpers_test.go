package heightmap

import (
	"bytes"
	"context"
	"io"
	"math"
	"testing"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-heightmap/internal/chunk"
	"github.com/tphakala/go-heightmap/internal/gpu"
	"github.com/tphakala/go-heightmap/internal/interval"
)

const (
	smallRate    = 8000
	smallSamples = 8000
	smallBlock   = 16
)

func quietLogs() logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{
		Writer:          io.Discard,
		DefaultLogLevel: logging.LogLevelDisabled,
		ScopeLevels:     map[string]logging.LogLevel{},
	}
}

func captureLogs(buf *bytes.Buffer) logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{
		Writer:          buf,
		DefaultLogLevel: logging.LogLevelWarn,
		ScopeLevels:     map[string]logging.LogLevel{},
	}
}

// newSmall returns a one second 8 kHz collection with 16x16 blocks.
func newSmall(t *testing.T, mutate func(*Config)) (*Collection, *gpu.MemoryDevice) {
	t.Helper()
	dev := gpu.NewMemoryDevice(1 << 30)
	cfg := Config{
		SampleRate:    smallRate,
		NumSamples:    smallSamples,
		ScaleCount:    64,
		BlockWidth:    smallBlock,
		BlockHeight:   smallBlock,
		Device:        dev,
		LoggerFactory: quietLogs(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dev
}

// flatChunk returns a chunk holding value everywhere, 64 samples per column,
// covering at least iv.
func flatChunk(t *testing.T, rate float64, iv interval.Interval, value float32) Chunk {
	t.Helper()
	const hop, bins = 64, 32
	cols := int((iv.Count() + hop - 1) / hop)
	data := make([]float32, cols*bins)
	for i := range data {
		data[i] = value
	}
	c, err := chunk.NewRawBins(chunk.Header{
		Offset:     iv.Start,
		SignalRate: rate,
		ColumnRate: rate / hop,
		NumValid:   cols,
		Axis:       chunk.LinearAxis(0, rate/2),
	}, bins, data)
	require.NoError(t, err)
	return c
}

// distinctRefs returns n valid references at one density, scanning time
// first.
func distinctRefs(t *testing.T, c *Collection, extent Position, n int) []Reference {
	t.Helper()
	all := c.BlocksInView(Position{Time: 0, Scale: 0}, Position{Time: c.layout.Length(), Scale: 1}, extent)
	require.GreaterOrEqual(t, len(all), n)
	return all[:n]
}

// checkIndices verifies that the primary index and the recency list hold
// the same blocks.
func checkIndices(t *testing.T, c *Collection) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	require.Len(t, c.index, c.recent.len())
	for ref, s := range c.index {
		require.Equal(t, ref, c.recent.block(s).Ref)
	}

	forward := 0
	prevUsed := uint64(math.MaxUint64)
	for s := c.recent.front(); s != noSlot; s = c.recent.nextOf(s) {
		b := c.recent.block(s)
		got, ok := c.index[b.Ref]
		require.True(t, ok, "%v in recency list but not in index", b.Ref)
		require.Equal(t, s, got)
		require.LessOrEqual(t, b.LastUsed, prevUsed, "recency list out of order")
		prevUsed = b.LastUsed
		forward++
	}
	require.Equal(t, c.recent.len(), forward)

	backward := 0
	for s := c.recent.back(); s != noSlot; s = c.recent.entries[s].prev {
		backward++
	}
	require.Equal(t, forward, backward)
}

// fullScanInvalid computes InvalidSamples by visiting every cached block.
func fullScanInvalid(c *Collection) IntervalSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out interval.Set
	for _, s := range c.index {
		b := c.recent.block(s)
		if b.LastUsed == c.frame {
			out = out.Union(b.Invalid(c.limit()))
		}
	}
	return out
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	assert.Failf(t, "metric not found", "%s", name)
	return 0
}

// fakeStub returns a flat chunk or a fixed error.
type fakeStub struct {
	rate  float64
	value float32
	err   error
	t     *testing.T
	calls int
}

func (f *fakeStub) Produce(_ context.Context, iv Interval, columns int) (Chunk, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	require.Positive(f.t, columns)
	return flatChunk(f.t, f.rate, iv, f.value), nil
}
