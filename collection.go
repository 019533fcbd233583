package heightmap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/logging"

	"github.com/tphakala/go-heightmap/internal/block"
	"github.com/tphakala/go-heightmap/internal/gpu"
	"github.com/tphakala/go-heightmap/internal/interval"
	hmlog "github.com/tphakala/go-heightmap/internal/logging"
	"github.com/tphakala/go-heightmap/internal/merge"
	"github.com/tphakala/go-heightmap/internal/tile"
)

// Collection caches heightmap blocks by Reference.
//
// A single mutex guards the primary index, the recency list and the
// contents of every block. Blocks returned by GetTile stay owned by the
// collection; callers must not keep them across NextFrame, and must not
// read them while another goroutine calls ApplyProducedChunk.
type Collection struct {
	cfg     Config
	log     logging.LeveledLogger
	metrics *metrics
	handoff *Handoff

	mu         sync.Mutex
	layout     tile.Layout
	index      map[Reference]slot
	recent     arena
	frame      uint64
	unfinished int
	closed     bool
}

// New creates a collection. Zero configuration fields take defaults.
func New(cfg Config) (*Collection, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	c := &Collection{
		cfg:     cfg,
		log:     hmlog.From(cfg.LoggerFactory, "heightmap/collection"),
		metrics: m,
		handoff: newHandoff(cfg.QueueDepth),
		layout: tile.Layout{
			SampleRate: cfg.SampleRate,
			NumSamples: cfg.NumSamples,
			ScaleCount: cfg.ScaleCount,
			Width:      cfg.BlockWidth,
			Height:     cfg.BlockHeight,
			Slack:      cfg.InterpolationSlack,
		},
		index:  make(map[Reference]slot),
		recent: newArena(),
	}
	c.log.Debugf("collection %dx%d blocks, %d samples at %v Hz",
		cfg.BlockWidth, cfg.BlockHeight, cfg.NumSamples, cfg.SampleRate)
	return c, nil
}

// Handoff returns the queue producer goroutines push chunks into.
func (c *Collection) Handoff() *Handoff {
	return c.handoff
}

// MinExtent returns the smallest per-sample extent of any block.
func (c *Collection) MinExtent() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.MinExtent()
}

// MaxExtent returns the largest per-sample extent of any block.
func (c *Collection) MaxExtent() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.MaxExtent()
}

// FindReference returns the block containing point at the density
// closest to, and not coarser than, extent.
func (c *Collection) FindReference(point, extent Position) Reference {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.FindReference(point, extent)
}

// BlocksInView returns the references covering the rectangle between two
// corners at one density, ordered by time then scale.
func (c *Collection) BlocksInView(from, to, extent Position) []Reference {
	c.mu.Lock()
	defer c.mu.Unlock()

	var refs []Reference
	for _, ref := range c.layout.Cover(from, to, extent) {
		if c.layout.ContainsSignal(ref) {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Bounds returns the world rectangle covered by ref.
func (c *Collection) Bounds(ref Reference) Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.Bounds(ref)
}

// SampleInterval returns the native samples covered by ref.
func (c *Collection) SampleInterval(ref Reference) Interval {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.SampleInterval(ref)
}

// Valid reports whether ref addresses a block GetTile will serve.
func (c *Collection) Valid(ref Reference) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.Valid(ref)
}

// GetTile returns the block for ref, creating it on a miss. It returns nil
// when ref does not address a block of the current signal, when texture
// memory is exhausted even after garbage collection, or after Close.
// Callers draw a placeholder in that case.
//
// GetTile must be called from the goroutine that owns the device: it
// uploads pending data and maps the texture.
func (c *Collection) GetTile(ref Reference) *Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if !c.layout.Valid(ref) {
		c.log.Debugf("%v is outside the signal or density range", ref)
		return nil
	}

	s, ok := c.index[ref]
	if !ok {
		s, ok = c.createTile(ref)
		if !ok {
			return nil
		}
	}

	b := c.recent.block(s)
	c.touch(s, b)

	if err := b.Upload(); err != nil {
		c.log.Warnf("%v", err)
	}
	if err := b.Map(); err != nil {
		c.log.Warnf("map %v: %v", ref, err)
	}
	return b
}

func (c *Collection) touch(s slot, b *Block) {
	b.Touch(c.frame)
	c.recent.moveToFront(s)
	if !b.FullyValid(c.limit()) {
		c.unfinished++
	}
}

// createTile allocates, fills and registers a block. The caller holds mu.
func (c *Collection) createTile(ref Reference) (slot, bool) {
	b, err := c.allocate(ref)
	if err != nil {
		c.metrics.allocFailures.Inc()
		if errors.Is(err, gpu.ErrOutOfMemory) {
			c.log.Warnf("%v unavailable: %v", ref, err)
		} else {
			c.log.Errorf("%v unavailable: %v", ref, err)
		}
		return noSlot, false
	}

	b.Touch(c.frame)
	c.fillStub(b)
	c.fillFromNeighbours(b)
	b.UpdateSlope()

	s := c.recent.insert(b)
	c.index[ref] = s
	c.metrics.created.Inc()
	c.metrics.cached.Set(float64(c.recent.len()))
	c.log.Debugf("created %v", b)

	c.evictRedundant()
	return s, true
}

// allocate creates a block, collecting garbage and retrying once if the
// device is out of memory.
func (c *Collection) allocate(ref Reference) (*Block, error) {
	g := c.layout.Geometry(ref)
	b, err := block.New(c.cfg.Device, g)
	if err == nil || !errors.Is(err, gpu.ErrOutOfMemory) || c.recent.len() == 0 {
		return b, err
	}

	c.log.Debugf("allocating %v: %v, collecting garbage", ref, err)
	c.gc()
	return block.New(c.cfg.Device, g)
}

// fillStub writes the stub producer's approximation without marking
// anything valid. Failures leave the block blank.
func (c *Collection) fillStub(b *Block) {
	if c.cfg.Stub == nil {
		return
	}
	iv := b.Interval().Intersect(c.limit())
	if iv.Empty() {
		return
	}
	ch, err := c.cfg.Stub.Produce(context.Background(), iv, b.Width)
	if err != nil {
		c.metrics.stubFailures.Inc()
		c.log.Warnf("stub fill for %v: %v", b.Ref, err)
		return
	}
	merge.ChunkPixels(b, ch, c.cfg.DisplayAxis)
}

// fillFromNeighbours merges cached blocks one density step finer, then one
// step coarser. Parents contain b entirely, so their same-density
// siblings never overlap it and are not consulted.
func (c *Collection) fillFromNeighbours(b *Block) {
	r := b.Ref
	finer := [...]Reference{r.ChildLeft(), r.ChildRight(), r.ChildBottom(), r.ChildTop()}
	coarser := [...]Reference{r.ParentHorizontal(), r.ParentVertical(), r.Parent()}

	for _, refs := range [][]Reference{finer[:], coarser[:]} {
		for _, n := range refs {
			s, ok := c.index[n]
			if !ok {
				continue
			}
			if merge.BlockIntoBlock(b, c.recent.block(s)) {
				c.log.Debugf("filled %v from %v", r, n)
			}
		}
	}
}

// evictRedundant drops the least recently used blocks while the cache
// holds more than RedundancyFactor times the blocks used alongside the
// most recent one, keeping at least MinRetained.
func (c *Collection) evictRedundant() {
	front := c.recent.front()
	if front == noSlot {
		return
	}
	youngest := c.recent.block(front).LastUsed
	count := 0
	c.recent.all(func(_ slot, b *Block) bool {
		if b.LastUsed != youngest {
			return false
		}
		count++
		return true
	})

	bound := max(c.cfg.MinRetained, c.cfg.RedundancyFactor*count)
	for c.recent.len() > bound {
		c.evict(c.recent.back())
	}
}

func (c *Collection) evict(s slot) {
	b := c.recent.remove(s)
	delete(c.index, b.Ref)
	if err := b.Release(); err != nil {
		c.log.Warnf("release %v: %v", b.Ref, err)
	}
	c.metrics.evicted.Inc()
	c.metrics.cached.Set(float64(c.recent.len()))
	c.log.Debugf("evicted %v", b.Ref)
}

// ApplyProducedChunk merges ch into every cached block it overlaps and
// returns the number of blocks that changed. Chunks for blocks that are no
// longer cached are ignored.
func (c *Collection) ApplyProducedChunk(ch Chunk) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ch)
}

func (c *Collection) apply(ch Chunk) int {
	iv := ch.Interval()
	changed := 0
	c.recent.all(func(_ slot, b *Block) bool {
		if !b.Interval().Overlaps(iv) {
			return true
		}
		if merge.ChunkIntoBlock(b, ch, c.cfg.DisplayAxis) {
			b.UpdateSlope()
			changed++
		}
		return true
	})
	if changed > 0 {
		c.metrics.chunksMerged.Add(float64(changed))
	}
	return changed
}

// Update merges every chunk waiting in the handoff queue and releases
// producers blocked in PushAndWait. Call it once per frame from the render
// goroutine. It returns the number of chunks applied.
func (c *Collection) Update() int {
	return c.handoff.drain(func(ch Chunk) {
		c.ApplyProducedChunk(ch)
	})
}

// GC releases every block not used in the current frame and returns how
// many were released.
func (c *Collection) GC() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gc()
}

func (c *Collection) gc() int {
	n := 0
	c.recent.all(func(s slot, b *Block) bool {
		if b.LastUsed != c.frame {
			c.evict(s)
			n++
		}
		return true
	})
	return n
}

// NextFrame ends the current frame. It returns the number of fetches in
// the ended frame that returned a block that was not fully valid, and
// unmaps textures of blocks that frame did not use.
func (c *Collection) NextFrame() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recent.all(func(_ slot, b *Block) bool {
		if b.Mapped() && b.LastUsed != c.frame {
			if err := b.Unmap(); err != nil {
				c.log.Warnf("unmap %v: %v", b.Ref, err)
			}
		}
		return true
	})

	n := c.unfinished
	c.unfinished = 0
	c.frame++
	c.metrics.unfinished.Set(float64(n))
	return uint(n)
}

// Frame returns the current frame number.
func (c *Collection) Frame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// InvalidateSamples forgets validity of iv in every cached block. Blocks
// keep their current contents until new chunks arrive.
func (c *Collection) InvalidateSamples(iv Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recent.all(func(_ slot, b *Block) bool {
		b.Invalidate(iv)
		return true
	})
}

// InvalidSamples returns the samples that blocks used in the current frame
// still need. Only the current frame's working set is visited.
func (c *Collection) InvalidSamples() IntervalSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out interval.Set
	limit := c.limit()
	c.recent.all(func(_ slot, b *Block) bool {
		if b.LastUsed != c.frame {
			return false
		}
		out = out.Union(b.Invalid(limit))
		return true
	})
	return out
}

// SetSignalLength updates the signal length. Cached blocks are kept;
// references that become invalid are simply no longer requested.
func (c *Collection) SetSignalLength(numSamples int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout.NumSamples = max(numSamples, 0)
}

// SetBlockSize changes the grid dimensions of every block and clears the
// cache.
func (c *Collection) SetBlockSize(width, height int) error {
	if err := validateBlockSize(width, height); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if width == c.layout.Width && height == c.layout.Height {
		return nil
	}
	c.clear()
	c.layout.Width, c.layout.Height = width, height
	c.cfg.BlockWidth, c.cfg.BlockHeight = width, height
	return nil
}

// Clear releases every cached block.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

func (c *Collection) clear() {
	c.recent.all(func(s slot, _ *Block) bool {
		c.evict(s)
		return true
	})
}

// Close releases every block and stops the handoff queue. Producers
// blocked in Push or PushAndWait return ErrClosed.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.handoff.close()
	c.clear()
	return nil
}

// Len returns the number of cached blocks.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recent.len()
}

// Blocks returns the cached blocks from most to least recently used.
func (c *Collection) Blocks() []*Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Block, 0, c.recent.len())
	c.recent.all(func(_ slot, b *Block) bool {
		out = append(out, b)
		return true
	})
	return out
}

// Stats is a snapshot of the collection.
type Stats struct {
	Blocks      int
	UsedInFrame int
	FullyValid  int
	Frame       uint64
	TextureSize uint64
	Pending     int
}

func (s Stats) String() string {
	return fmt.Sprintf("frame %d: %d blocks (%d this frame, %d fully valid), %d pending chunks",
		s.Frame, s.Blocks, s.UsedInFrame, s.FullyValid, s.Pending)
}

// Stats returns a snapshot of the collection.
func (c *Collection) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Blocks:  c.recent.len(),
		Frame:   c.frame,
		Pending: c.handoff.Pending(),
	}
	limit := c.limit()
	c.recent.all(func(_ slot, b *Block) bool {
		if b.LastUsed == c.frame {
			s.UsedInFrame++
		}
		if b.FullyValid(limit) {
			s.FullyValid++
		}
		return true
	})
	s.TextureSize = uint64(s.Blocks) * uint64(c.layout.Width) * uint64(c.layout.Height) * bytesPerTexel
	return s
}

func (c *Collection) limit() interval.Interval {
	return interval.New(0, c.layout.NumSamples)
}
