package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	heightmap "github.com/tphakala/go-heightmap"
	"github.com/tphakala/go-heightmap/internal/transform"
)

// profile holds cache and transform tuning loaded from a YAML file. Zero
// fields leave the command-line value in place.
type profile struct {
	BlockWidth         int     `yaml:"block_width"`
	BlockHeight        int     `yaml:"block_height"`
	ScaleCount         int     `yaml:"scale_count"`
	InterpolationSlack float64 `yaml:"interpolation_slack"`
	RedundancyFactor   int     `yaml:"redundancy_factor"`
	MinRetained        int     `yaml:"min_retained"`
	QueueDepth         int     `yaml:"queue_depth"`
	MinHz              float64 `yaml:"min_hz"`
	WindowSize         int     `yaml:"window_size"`
	Hop                int     `yaml:"hop"`
	Window             string  `yaml:"window"`
}

// loadProfile reads a profile, rejecting unknown keys.
func loadProfile(path string) (profile, error) {
	var p profile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return p, nil
}

// apply overrides cfg and tc with the non-zero profile fields.
func (p profile) apply(cfg *heightmap.Config, tc *transform.Config) error {
	setInt(&cfg.BlockWidth, p.BlockWidth)
	setInt(&cfg.BlockHeight, p.BlockHeight)
	setInt(&cfg.ScaleCount, p.ScaleCount)
	setInt(&cfg.RedundancyFactor, p.RedundancyFactor)
	setInt(&cfg.MinRetained, p.MinRetained)
	setInt(&cfg.QueueDepth, p.QueueDepth)
	setInt(&tc.WindowSize, p.WindowSize)
	setInt(&tc.Hop, p.Hop)
	if p.InterpolationSlack != 0 {
		cfg.InterpolationSlack = p.InterpolationSlack
	}
	if p.MinHz != 0 {
		cfg.DisplayAxis = heightmap.LogAxis(p.MinHz, cfg.SampleRate/2)
	}

	switch p.Window {
	case "":
	case "hann":
		tc.Window = transform.Hann
	case "kaiser":
		tc.Window = transform.Kaiser
	default:
		return fmt.Errorf("unknown window %q", p.Window)
	}
	return tc.Validate()
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
