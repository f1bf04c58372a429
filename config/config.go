package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Service struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type Services struct {
	Transcription Service `mapstructure:"transcription" yaml:"transcription"`
	Diarization   Service `mapstructure:"diarization" yaml:"diarization"`
	Indexer       Service `mapstructure:"indexer" yaml:"indexer"`
}

type Audio struct {
	SegmentSeconds   float64 `mapstructure:"segment_seconds" yaml:"segment_seconds"`
	OverlapSeconds   float64 `mapstructure:"overlap_seconds" yaml:"overlap_seconds"`
	ExpectedSpeakers int     `mapstructure:"expected_speakers" yaml:"expected_speakers"`
}

type Chunking struct {
	MinTokens    int     `mapstructure:"min_tokens" yaml:"min_tokens"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	TargetTokens int     `mapstructure:"target_tokens" yaml:"target_tokens"`
	OverlapRatio float64 `mapstructure:"overlap_ratio" yaml:"overlap_ratio"`
	// DropShortParts controls whether sub-minimum parts are discarded when a
	// turn produced more than one part. Empirical threshold, kept tunable.
	DropShortParts bool   `mapstructure:"drop_short_parts" yaml:"drop_short_parts"`
	Encoding       string `mapstructure:"encoding" yaml:"encoding"`
}

type Timeline struct {
	// MergeToleranceSeconds is the maximum gap between same-speaker
	// diarization intervals that still merges them.
	MergeToleranceSeconds float64 `mapstructure:"merge_tolerance_seconds" yaml:"merge_tolerance_seconds"`
}

type Workers struct {
	PoolSize           int     `mapstructure:"pool_size" yaml:"pool_size"`
	Retries            int     `mapstructure:"retries" yaml:"retries"`
	CallTimeoutSeconds float64 `mapstructure:"call_timeout_seconds" yaml:"call_timeout_seconds"`
}

type Root struct {
	Pipeline struct {
		Name   string `mapstructure:"name" yaml:"name"`
		LogLvl string `mapstructure:"log_level" yaml:"log_level"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Audio    Audio    `mapstructure:"audio" yaml:"audio"`
	Timeline Timeline `mapstructure:"timeline" yaml:"timeline"`
	Chunking Chunking `mapstructure:"chunking" yaml:"chunking"`
	Workers  Workers  `mapstructure:"workers" yaml:"workers"`
	Services Services `mapstructure:"services" yaml:"services"`
	Paths    struct {
		Tmp     string `mapstructure:"tmp" yaml:"tmp"`
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
	} `mapstructure:"paths" yaml:"paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "panelpipe")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("audio.segment_seconds", 180.0)
	v.SetDefault("audio.overlap_seconds", 3.0)
	v.SetDefault("audio.expected_speakers", 0)
	v.SetDefault("timeline.merge_tolerance_seconds", 0.3)
	v.SetDefault("chunking.min_tokens", 400)
	v.SetDefault("chunking.max_tokens", 1000)
	v.SetDefault("chunking.target_tokens", 800)
	v.SetDefault("chunking.overlap_ratio", 0.15)
	v.SetDefault("chunking.drop_short_parts", true)
	v.SetDefault("chunking.encoding", "cl100k_base")
	v.SetDefault("workers.pool_size", 4)
	v.SetDefault("workers.retries", 3)
	v.SetDefault("workers.call_timeout_seconds", 600.0)
	v.SetDefault("paths.tmp", "")
	v.SetDefault("paths.outputs", "outputs")
}

// Load reads panelpipe.yaml from path (when given) or the working directory
// and ~/.panelpipe, applies PANELPIPE_* environment overrides, and validates
// the result. A missing config file is fine; defaults cover every knob.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PANELPIPE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("panelpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.panelpipe")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects parameter combinations the pipeline cannot run with.
func (c *Root) Validate() error {
	if c.Audio.SegmentSeconds <= 0 {
		return fmt.Errorf("audio.segment_seconds must be positive, got %v", c.Audio.SegmentSeconds)
	}
	if c.Audio.OverlapSeconds < 0 || c.Audio.OverlapSeconds >= c.Audio.SegmentSeconds {
		return fmt.Errorf("audio.overlap_seconds must be in [0, segment_seconds), got %v", c.Audio.OverlapSeconds)
	}
	if c.Chunking.MinTokens <= 0 || c.Chunking.MaxTokens < c.Chunking.MinTokens {
		return fmt.Errorf("chunking token bounds invalid: min=%d max=%d", c.Chunking.MinTokens, c.Chunking.MaxTokens)
	}
	if c.Chunking.OverlapRatio < 0 || c.Chunking.OverlapRatio >= 1 {
		return fmt.Errorf("chunking.overlap_ratio must be in [0, 1), got %v", c.Chunking.OverlapRatio)
	}
	if c.Timeline.MergeToleranceSeconds < 0 {
		return fmt.Errorf("timeline.merge_tolerance_seconds must be >= 0, got %v", c.Timeline.MergeToleranceSeconds)
	}
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("workers.pool_size must be >= 1, got %d", c.Workers.PoolSize)
	}
	if c.Workers.Retries < 1 {
		return fmt.Errorf("workers.retries must be >= 1, got %d", c.Workers.Retries)
	}
	return nil
}

// Dump renders the effective configuration as YAML.
func (c *Root) Dump() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Root) CallTimeout() time.Duration {
	return time.Duration(c.Workers.CallTimeoutSeconds * float64(time.Second))
}
