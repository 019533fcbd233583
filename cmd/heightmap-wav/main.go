// Command heightmap-wav drives the heightmap cache over a WAV file.
//
// It decodes the file, then simulates a viewer zooming in on the signal:
// every frame it fetches the visible blocks while a producer goroutine
// computes STFT chunks for the samples those blocks still need. Each zoom
// step is held until all visible blocks are exact or the frame cap is hit.
//
// Usage:
//
//	heightmap-wav input.wav
//	heightmap-wav -zoom 64 -steps 8 -center 0.25 input.wav
//	heightmap-wav -block 256x256 -budget 64 -metrics input.wav
//	heightmap-wav -config profile.yaml input.wav
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/prometheus/client_golang/prometheus"

	heightmap "github.com/tphakala/go-heightmap"
	"github.com/tphakala/go-heightmap/internal/transform"
)

const (
	// Decoding
	bufferSize = 65536

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
	maxInt16        = 32767.0
	maxInt24        = 8388607.0
	maxInt32        = 2147483647.0

	// CLI defaults
	defaultBlock     = "128x256"
	defaultScreenW   = 1920
	defaultScreenH   = 1080
	defaultZoom      = 16.0
	defaultSteps     = 5
	defaultCenter    = 0.5
	defaultMaxFrames = 600
	defaultFPS       = 120
	defaultBudgetMB  = 256
	minRequiredArgs  = 1
	bytesPerMB       = 1 << 20
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	block := flag.String("block", defaultBlock, "Block size as WIDTHxHEIGHT texels")
	screenW := flag.Int("width", defaultScreenW, "Viewport width in pixels")
	screenH := flag.Int("height", defaultScreenH, "Viewport height in pixels")
	zoom := flag.Float64("zoom", defaultZoom, "Final time magnification relative to the whole file")
	steps := flag.Int("steps", defaultSteps, "Number of zoom steps")
	center := flag.Float64("center", defaultCenter, "Zoom target as a fraction of the file duration")
	maxFrames := flag.Int("frames", defaultMaxFrames, "Frame cap per zoom step")
	fps := flag.Int("fps", defaultFPS, "Simulated frame rate")
	budgetMB := flag.Uint64("budget", defaultBudgetMB, "Texture memory budget in MB")
	kaiser := flag.Bool("kaiser", false, "Use a Kaiser window instead of Hann")
	configPath := flag.String("config", "", "YAML profile overriding block and transform settings")
	metrics := flag.Bool("metrics", false, "Print cache metrics on exit")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s music.wav                        # Zoom 16x into the middle\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -zoom 256 -center 0.1 speech.wav # Zoom deep near the start\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}
	inputPath := args[0]

	width, height, err := parseBlockSize(*block)
	if err != nil {
		return err
	}
	if *fps < 1 {
		return fmt.Errorf("fps must be positive, got %d", *fps)
	}

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Blocks: %dx%d, budget %s", width, height, humanize.IBytes(*budgetMB*bytesPerMB))
		log.Printf("Viewport: %dx%d, zoom %gx in %d steps at %.0f%%", *screenW, *screenH, *zoom, *steps, *center*100)
	}

	start := time.Now()
	input, err := loadWAV(inputPath, *verbose)
	if err != nil {
		return err
	}
	loaded := time.Since(start)

	window := transform.Hann
	if *kaiser {
		window = transform.Kaiser
	}

	dev := heightmap.NewMemoryDevice(*budgetMB * bytesPerMB)
	reg := prometheus.NewRegistry()
	cfg := heightmap.Config{
		SampleRate:  input.buffer.SampleRate(),
		NumSamples:  input.buffer.Len(),
		BlockWidth:  width,
		BlockHeight: height,
		Device:      dev,
		Registerer:  reg,
	}
	tc := transform.DefaultConfig()
	tc.Window = window
	if *configPath != "" {
		p, err := loadProfile(*configPath)
		if err != nil {
			return err
		}
		if err := p.apply(&cfg, &tc); err != nil {
			return fmt.Errorf("profile %s: %w", *configPath, err)
		}
		if *verbose {
			log.Printf("Profile: %s", *configPath)
		}
	}

	stft := transform.New(input.buffer, nil)
	cfg.Stub = &transform.Coarse{STFT: stft, Window: tc.Window}
	c, err := heightmap.New(cfg)
	if err != nil {
		return err
	}

	sim := &simulation{
		collection: c,
		producer:   &producer{stft: stft, cfg: tc, handoff: c.Handoff()},
		maxFrames:  *maxFrames,
		frameEvery: time.Second / time.Duration(*fps),
		verbose:    *verbose,
	}
	views := zoomViews(float64(input.buffer.Len())/input.buffer.SampleRate(),
		*center, *zoom, *steps, *screenW, *screenH)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start = time.Now()
	result, err := sim.run(ctx, views)
	if closeErr := c.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Rendered %s\n", filepath.Base(inputPath))
	fmt.Printf("  %s samples at %d Hz, %d channels, %d-bit (decoded in %s)\n",
		humanize.Comma(input.buffer.Len()), input.rate, input.channels, input.bitDepth, loaded.Round(time.Millisecond))
	fmt.Printf("  %d of %d zoom steps converged in %d frames (%s)\n",
		result.converged, len(views), result.frames, elapsed.Round(time.Millisecond))
	fmt.Printf("  %d blocks drawn, %d placeholders, %d chunks merged\n",
		result.drawn, result.missing, result.chunks)
	fmt.Printf("  Cache at exit: %v\n", result.stats)
	fmt.Printf("  Textures: %s, device: %v\n", humanize.Bytes(result.stats.TextureSize), dev.Stats())
	fmt.Println(renderSteps(result.steps))

	if *metrics {
		return printMetrics(reg)
	}
	return nil
}

func parseBlockSize(s string) (width, height int, err error) {
	if _, err := fmt.Sscanf(s, "%dx%d", &width, &height); err != nil {
		return 0, 0, fmt.Errorf("invalid block size %q: %w", s, err)
	}
	return width, height, nil
}

// renderSteps formats one row per zoom step.
func renderSteps(steps []stepResult) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.AppendHeader(table.Row{"Step", "Span", "Frames", "Converged", "Blocks", "Fully valid", "Textures"})
	for i, s := range steps {
		tbl.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.3fs", s.span),
			s.frames,
			s.converged,
			s.stats.Blocks,
			s.stats.FullyValid,
			humanize.Bytes(s.stats.TextureSize),
		})
	}
	return tbl.Render()
}

func printMetrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Println("Metrics:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetGauge().GetValue()
			if m.GetCounter() != nil {
				v = m.GetCounter().GetValue()
			}
			fmt.Printf("  %-36s %s\n", mf.GetName(), humanize.Commaf(v))
		}
	}
	return nil
}
