package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	heightmap "github.com/tphakala/go-heightmap"
	"github.com/tphakala/go-heightmap/internal/interval"
	"github.com/tphakala/go-heightmap/internal/signal"
	"github.com/tphakala/go-heightmap/internal/transform"
)

// wavInput is a decoded, downmixed WAV file.
type wavInput struct {
	buffer   *signal.Buffer
	rate     int
	channels int
	bitDepth int
}

// loadWAV decodes path and mixes all channels down to mono.
func loadWAV(path string, verbose bool) (*wavInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	in := &wavInput{
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: int(decoder.BitDepth),
	}
	if in.channels < 1 {
		return nil, fmt.Errorf("invalid WAV file: %d channels", in.channels)
	}
	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", in.rate, in.channels, in.bitDepth)
	}

	capacity := 0
	if d, err := decoder.Duration(); err == nil {
		capacity = int(d.Seconds() * float64(in.rate))
	}
	in.buffer, err = signal.NewBuffer(float64(in.rate), capacity)
	if err != nil {
		return nil, err
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, bufferSize*in.channels),
		Format: format,
	}
	mono := make([]float32, bufferSize)
	scale := 1 / getMaxValue(in.bitDepth)

	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}
		frames := n / in.channels
		downmixInto(buf.Data[:frames*in.channels], mono[:frames], in.channels, scale)
		in.buffer.Append(mono[:frames])
	}
	return in, nil
}

// downmixInto averages each frame of interleaved samples into dst and
// multiplies the mean by scale.
func downmixInto(data []int, dst []float32, channels int, scale float64) {
	for i := range dst {
		sum := 0
		for _, s := range data[i*channels : (i+1)*channels] {
			sum += s
		}
		dst[i] = float32(float64(sum) / float64(channels) * scale)
	}
}

// getMaxValue returns the maximum sample value for the given bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// view is one viewport: the visible world rectangle and the extent of a
// screen pixel.
type view struct {
	from, to heightmap.Position
	extent   heightmap.Position
}

// zoomViews returns steps viewports zooming geometrically from the whole
// signal to 1/zoom of it, centred on center times the duration.
func zoomViews(duration, center, zoom float64, steps, screenW, screenH int) []view {
	steps = max(steps, 1)
	zoom = max(zoom, 1)
	screenW, screenH = max(screenW, 1), max(screenH, 1)

	views := make([]view, steps)
	for i := range views {
		z := 1.0
		if steps > 1 {
			z = math.Pow(zoom, float64(i)/float64(steps-1))
		}
		span := duration / z
		t0 := min(max(center*duration-span/2, 0), duration-span)
		views[i] = view{
			from:   heightmap.Position{Time: t0, Scale: 0},
			to:     heightmap.Position{Time: t0 + span, Scale: 1},
			extent: heightmap.Position{Time: span / float64(screenW), Scale: 1 / float64(screenH)},
		}
	}
	return views
}

// producer computes exact chunks for requested samples and hands them to
// the render loop.
type producer struct {
	stft    *transform.STFT
	cfg     transform.Config
	handoff *heightmap.Handoff
}

// run serves work until ctx is done, work is closed or the collection
// closes.
func (p *producer) run(ctx context.Context, work <-chan heightmap.IntervalSet) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case set, ok := <-work:
			if !ok {
				return nil
			}
			if err := p.produce(ctx, set); err != nil {
				if errors.Is(err, heightmap.ErrClosed) || ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (p *producer) produce(ctx context.Context, set heightmap.IntervalSet) error {
	for _, iv := range set.Intervals() {
		for _, part := range split(iv, p.cfg.MaxSamples) {
			ch, err := p.stft.Produce(ctx, part, p.cfg)
			if err != nil {
				return err
			}
			if err := p.handoff.Push(ctx, ch); err != nil {
				return err
			}
		}
	}
	return nil
}

// split cuts iv into consecutive pieces of at most limit samples.
func split(iv interval.Interval, limit int64) []interval.Interval {
	var parts []interval.Interval
	for start := iv.Start; start < iv.End; start += limit {
		parts = append(parts, interval.New(start, min(start+limit, iv.End)))
	}
	return parts
}

// simulation is a render loop over a fixed sequence of viewports.
type simulation struct {
	collection *heightmap.Collection
	producer   *producer
	maxFrames  int
	frameEvery time.Duration
	verbose    bool
}

type simResult struct {
	frames    int
	converged int
	drawn     int
	missing   int
	chunks    int
	stats     heightmap.Stats
	steps     []stepResult
}

// stepResult describes one zoom step. stats is taken after its last frame.
type stepResult struct {
	span      float64
	frames    int
	converged bool
	stats     heightmap.Stats
}

// run renders every view until its blocks are fully valid or maxFrames
// frames have passed, then stops the producer.
func (s *simulation) run(ctx context.Context, views []view) (simResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan heightmap.IntervalSet, 1)
	var (
		wg      sync.WaitGroup
		prodErr error
	)
	wg.Go(func() {
		prodErr = s.producer.run(ctx, work)
	})

	ticker := time.NewTicker(s.frameEvery)
	defer ticker.Stop()

	var res simResult
	for i, v := range views {
		frames, done := s.render(ctx, v, work, ticker.C, &res)
		step := stepResult{
			span:      v.to.Time - v.from.Time,
			frames:    frames,
			converged: done,
			stats:     s.collection.Stats(),
		}
		res.steps = append(res.steps, step)
		res.frames += frames
		if done {
			res.converged++
		}
		if s.verbose {
			log.Printf("Step %d: %.3fs wide, %d frames, converged %v, %v",
				i+1, step.span, frames, done, step.stats)
		}
		if ctx.Err() != nil {
			break
		}
	}
	res.stats = s.collection.Stats()

	cancel()
	wg.Wait()
	return res, prodErr
}

func (s *simulation) render(ctx context.Context, v view, work chan<- heightmap.IntervalSet, tick <-chan time.Time, res *simResult) (int, bool) {
	c := s.collection
	for f := range s.maxFrames {
		missing := res.missing
		res.chunks += c.Update()
		for _, ref := range c.BlocksInView(v.from, v.to, v.extent) {
			if c.GetTile(ref) == nil {
				res.missing++
			} else {
				res.drawn++
			}
		}

		invalid := c.InvalidSamples()
		if c.NextFrame() == 0 && res.missing == missing {
			return f + 1, true
		}
		if !invalid.Empty() {
			select {
			case work <- invalid:
			default:
			}
		}

		select {
		case <-ctx.Done():
			return f + 1, false
		case <-tick:
		}
	}
	return s.maxFrames, false
}
