package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	heightmap "github.com/tphakala/go-heightmap"
	"github.com/tphakala/go-heightmap/internal/transform"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
block_width: 64
block_height: 128
redundancy_factor: 4
min_hz: 50
window_size: 512
hop: 128
window: kaiser
`)
	p, err := loadProfile(path)
	require.NoError(t, err)

	cfg := heightmap.Config{SampleRate: 44100, BlockWidth: 256, BlockHeight: 256, MinRetained: 7}
	tc := transform.DefaultConfig()
	require.NoError(t, p.apply(&cfg, &tc))

	assert.Equal(t, 64, cfg.BlockWidth)
	assert.Equal(t, 128, cfg.BlockHeight)
	assert.Equal(t, 4, cfg.RedundancyFactor)
	assert.Equal(t, 7, cfg.MinRetained, "zero profile fields keep the flag value")
	assert.Equal(t, heightmap.LogAxis(50, 22050), cfg.DisplayAxis)
	assert.Equal(t, 512, tc.WindowSize)
	assert.Equal(t, 128, tc.Hop)
	assert.Equal(t, transform.Kaiser, tc.Window)
}

func TestLoadProfile_UnknownKey(t *testing.T) {
	_, err := loadProfile(writeProfile(t, "block_widht: 64\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid profile")
}

func TestLoadProfile_Missing(t *testing.T) {
	_, err := loadProfile("/nonexistent/profile.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read profile")
}

func TestProfileApply_Rejects(t *testing.T) {
	cfg := heightmap.Config{SampleRate: 8000}
	tc := transform.DefaultConfig()
	assert.Error(t, profile{Window: "blackman"}.apply(&cfg, &tc))

	tc = transform.DefaultConfig()
	assert.ErrorIs(t, profile{Hop: 4096}.apply(&cfg, &tc), transform.ErrInvalidRequest)
}
