package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  name: test-run\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-run", cfg.Pipeline.Name)
	assert.Equal(t, 180.0, cfg.Audio.SegmentSeconds)
	assert.Equal(t, 3.0, cfg.Audio.OverlapSeconds)
	assert.Equal(t, 0.3, cfg.Timeline.MergeToleranceSeconds)
	assert.Equal(t, 400, cfg.Chunking.MinTokens)
	assert.Equal(t, 1000, cfg.Chunking.MaxTokens)
	assert.Equal(t, 800, cfg.Chunking.TargetTokens)
	assert.Equal(t, 0.15, cfg.Chunking.OverlapRatio)
	assert.True(t, cfg.Chunking.DropShortParts)
	assert.Equal(t, 3, cfg.Workers.Retries)
	assert.Equal(t, 600.0, cfg.Workers.CallTimeoutSeconds)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelpipe.yaml")
	content := `
audio:
  segment_seconds: 300
  expected_speakers: 5
timeline:
  merge_tolerance_seconds: 0.5
services:
  transcription:
    url: http://localhost:9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300.0, cfg.Audio.SegmentSeconds)
	assert.Equal(t, 5, cfg.Audio.ExpectedSpeakers)
	assert.Equal(t, 0.5, cfg.Timeline.MergeToleranceSeconds)
	assert.Equal(t, "http://localhost:9000", cfg.Services.Transcription.URL)
	// untouched knobs keep defaults
	assert.Equal(t, 800, cfg.Chunking.TargetTokens)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Root {
		path := filepath.Join(t.TempDir(), "panelpipe.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		cfg, err := Load(path)
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Root)
	}{
		{"zero segment", func(c *Root) { c.Audio.SegmentSeconds = 0 }},
		{"overlap >= segment", func(c *Root) { c.Audio.OverlapSeconds = c.Audio.SegmentSeconds }},
		{"max below min tokens", func(c *Root) { c.Chunking.MaxTokens = c.Chunking.MinTokens - 1 }},
		{"overlap ratio 1", func(c *Root) { c.Chunking.OverlapRatio = 1 }},
		{"negative tolerance", func(c *Root) { c.Timeline.MergeToleranceSeconds = -0.1 }},
		{"zero pool", func(c *Root) { c.Workers.PoolSize = 0 }},
		{"zero retries", func(c *Root) { c.Workers.Retries = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDumpRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	out, err := cfg.Dump()
	require.NoError(t, err)
	assert.Contains(t, out, "segment_seconds: 180")
	assert.Contains(t, out, "min_tokens: 400")
}
