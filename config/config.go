package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Loudness targets for ffmpeg loudnorm.
type LoudnormTarget struct {
	I   float64
	TP  float64
	LRA float64
}

type Config struct {
	OutputDir        string
	SampleRate       string
	Channels         string
	Format           string // pw-record sample format, e.g. s24
	TargetApp        string // exact application.name of the stream
	TargetMediaClass string // media.class prefix
	ActivityWindow   time.Duration
	PollInterval     time.Duration
	StopTimeout      time.Duration
	DrainTimeout     time.Duration
	Normalize        bool
	Loudnorm         LoudnormTarget
	MP3Bitrate       int
}

type fileConfig struct {
	OutputDir        string  `toml:"output_dir"`
	SampleRate       numeric `toml:"sample_rate"`
	Channels         numeric `toml:"channels"`
	Format           string  `toml:"format"`
	TargetApp        string  `toml:"target_app"`
	TargetMediaClass string  `toml:"target_media_class"`
	ActivityWindow   string  `toml:"activity_window"`
	PollInterval     string  `toml:"poll_interval"`
	StopTimeout      string  `toml:"stop_timeout"`
	DrainTimeout     string  `toml:"drain_timeout"`
	Normalize        *bool   `toml:"normalize"`
	MP3Bitrate       int     `toml:"mp3_bitrate"`
	Loudnorm         *struct {
		I   *float64 `toml:"i"`
		TP  *float64 `toml:"tp"`
		LRA *float64 `toml:"lra"`
	} `toml:"loudnorm_target"`
}

// numeric accepts both `sample_rate = 48000` and `sample_rate = "48000"`.
type numeric string

func (n *numeric) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		*n = numeric(strconv.FormatInt(x, 10))
	case string:
		*n = numeric(x)
	default:
		return fmt.Errorf("expected integer or string, got %T", v)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir:        "recordings",
		SampleRate:       "44100",
		Channels:         "2",
		Format:           "s24",
		TargetApp:        "Firefox",
		TargetMediaClass: "Stream/Output/Audio",
		ActivityWindow:   50 * time.Millisecond,
		PollInterval:     50 * time.Millisecond,
		StopTimeout:      5 * time.Second,
		DrainTimeout:     30 * time.Second,
		Normalize:        true,
		Loudnorm:         LoudnormTarget{I: -14, TP: -2, LRA: 7},
		MP3Bitrate:       192,
	}
}

// Load reads the config file and environment, then makes sure the output directory exists.
func Load() (*Config, error) {
	cfg := Default()

	if configPath := configFilePath(); configPath != "" {
		if err := cfg.applyFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.EnsureOutputDir(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureOutputDir creates the output directory if it is missing.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

// Validate checks values that would make the recorder misbehave at runtime.
func (c *Config) Validate() error {
	if c.TargetApp == "" {
		return fmt.Errorf("target_app must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if _, err := strconv.Atoi(c.SampleRate); err != nil {
		return fmt.Errorf("invalid sample_rate %q", c.SampleRate)
	}
	if _, err := strconv.Atoi(c.Channels); err != nil {
		return fmt.Errorf("invalid channels %q", c.Channels)
	}
	if c.ActivityWindow <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("activity_window and poll_interval must be positive")
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("stop_timeout must be positive")
	}
	if c.MP3Bitrate <= 0 {
		return fmt.Errorf("mp3_bitrate must be positive")
	}
	return nil
}

// applyFile layers a TOML file on top of the current values.
func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.OutputDir != "" {
		c.OutputDir = expandTilde(fc.OutputDir)
	}
	if fc.SampleRate != "" {
		c.SampleRate = string(fc.SampleRate)
	}
	if fc.Channels != "" {
		c.Channels = string(fc.Channels)
	}
	if fc.Format != "" {
		c.Format = fc.Format
	}
	if fc.TargetApp != "" {
		c.TargetApp = fc.TargetApp
	}
	if fc.TargetMediaClass != "" {
		c.TargetMediaClass = fc.TargetMediaClass
	}
	if fc.Normalize != nil {
		c.Normalize = *fc.Normalize
	}
	if fc.MP3Bitrate != 0 {
		c.MP3Bitrate = fc.MP3Bitrate
	}
	if fc.Loudnorm != nil {
		if fc.Loudnorm.I != nil {
			c.Loudnorm.I = *fc.Loudnorm.I
		}
		if fc.Loudnorm.TP != nil {
			c.Loudnorm.TP = *fc.Loudnorm.TP
		}
		if fc.Loudnorm.LRA != nil {
			c.Loudnorm.LRA = *fc.Loudnorm.LRA
		}
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"activity_window", fc.ActivityWindow, &c.ActivityWindow},
		{"poll_interval", fc.PollInterval, &c.PollInterval},
		{"stop_timeout", fc.StopTimeout, &c.StopTimeout},
		{"drain_timeout", fc.DrainTimeout, &c.DrainTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parsing %s in %s: %w", d.key, path, err)
		}
		*d.dst = v
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("AUTOREC_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = expandTilde(v)
	}
	if v := os.Getenv("AUTOREC_TARGET_APP"); v != "" {
		cfg.TargetApp = v
	}
	if v := os.Getenv("AUTOREC_TARGET_MEDIA_CLASS"); v != "" {
		cfg.TargetMediaClass = v
	}
	if v := os.Getenv("AUTOREC_ACTIVITY_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing AUTOREC_ACTIVITY_WINDOW: %w", err)
		}
		cfg.ActivityWindow = d
	}
	return nil
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "autorec")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "autorec")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
