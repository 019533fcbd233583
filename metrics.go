package heightmap

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics are always live; they are only exported when a Registerer is
// configured.
type metrics struct {
	created       prometheus.Counter
	evicted       prometheus.Counter
	allocFailures prometheus.Counter
	chunksMerged  prometheus.Counter
	stubFailures  prometheus.Counter
	cached        prometheus.Gauge
	unfinished    prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heightmap_blocks_created_total",
			Help: "Blocks allocated and filled on a cache miss.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heightmap_blocks_evicted_total",
			Help: "Blocks removed by eviction or garbage collection.",
		}),
		allocFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heightmap_alloc_failures_total",
			Help: "Block allocations that failed after the gc retry.",
		}),
		chunksMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heightmap_chunks_merged_total",
			Help: "Chunk merges that changed a cached block.",
		}),
		stubFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heightmap_stub_failures_total",
			Help: "Stub fills that failed and left a block blank.",
		}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heightmap_blocks_cached",
			Help: "Blocks currently cached.",
		}),
		unfinished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heightmap_unfinished_blocks",
			Help: "Blocks fetched in the last completed frame that were not fully valid.",
		}),
	}
	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{
		m.created, m.evicted, m.allocFailures, m.chunksMerged, m.stubFailures, m.cached, m.unfinished,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return nil, fmt.Errorf("%w: metrics already registered", ErrInvalidConfig)
			}
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}
