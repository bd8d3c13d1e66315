// Package config loads preview settings from built-in defaults, an optional YAML file and
// PREVIEW_* environment variables, in increasing priority. Command-line flags are applied
// last with Resolve.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is relative to the working directory.
const DefaultPath = "config/preview.yaml"

// EnvPrefix prefixes environment overrides, e.g. PREVIEW_BACKEND or PREVIEW_SNAPSHOT_EVERY.
const EnvPrefix = "PREVIEW"

// Backends.
const (
	BackendRaster = "raster"
	BackendRaylib = "raylib"
)

type Config struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Width and Height are the host container size; 0 selects the fallback.
	Width          int  `mapstructure:"width" yaml:"width"`
	Height         int  `mapstructure:"height" yaml:"height"`
	FallbackWidth  int  `mapstructure:"fallback_width" yaml:"fallback_width"`
	FallbackHeight int  `mapstructure:"fallback_height" yaml:"fallback_height"`
	FPS            int  `mapstructure:"fps" yaml:"fps"`
	Supersample    int  `mapstructure:"supersample" yaml:"supersample"`
	MaxPixels      int  `mapstructure:"max_pixels" yaml:"max_pixels"`
	ShowFPS        bool `mapstructure:"show_fps" yaml:"show_fps"`
	// Measurements is a JSON file with a record or a full service response. Empty uses the mock record.
	Measurements string   `mapstructure:"measurements" yaml:"measurements"`
	Snapshot     Snapshot `mapstructure:"snapshot" yaml:"snapshot"`
	MetricsAddr  string   `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Log          Log      `mapstructure:"log" yaml:"log"`
}

type Snapshot struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Every  int    `mapstructure:"every" yaml:"every"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Backend:        BackendRaster,
		FallbackWidth:  400,
		FallbackHeight: 400,
		FPS:            60,
		Supersample:    2,
		MaxPixels:      8192 * 8192,
		Snapshot:       Snapshot{Dir: "snapshots", Format: "webp"},
		Log:            Log{Level: "info", Format: "console", File: "logs/preview.log"},
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("width", d.Width)
	v.SetDefault("height", d.Height)
	v.SetDefault("fallback_width", d.FallbackWidth)
	v.SetDefault("fallback_height", d.FallbackHeight)
	v.SetDefault("fps", d.FPS)
	v.SetDefault("supersample", d.Supersample)
	v.SetDefault("max_pixels", d.MaxPixels)
	v.SetDefault("show_fps", d.ShowFPS)
	v.SetDefault("measurements", d.Measurements)
	v.SetDefault("snapshot.dir", d.Snapshot.Dir)
	v.SetDefault("snapshot.every", d.Snapshot.Every)
	v.SetDefault("snapshot.format", d.Snapshot.Format)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads path on top of the defaults, then applies environment overrides. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return c, nil
}

// Save writes c to path as YAML, creating the directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Flags are command-line overrides. Zero values leave the loaded setting alone.
type Flags struct {
	Backend       string
	Width         int
	Height        int
	FPS           int
	Measurements  string
	MetricsAddr   string
	LogLevel      string
	SnapshotDir   string
	SnapshotEvery int
}

// Resolve applies non-zero flags over the loaded settings.
func (c *Config) Resolve(f Flags) {
	if f.Backend != "" {
		c.Backend = f.Backend
	}
	if f.Width > 0 {
		c.Width = f.Width
	}
	if f.Height > 0 {
		c.Height = f.Height
	}
	if f.FPS > 0 {
		c.FPS = f.FPS
	}
	if f.Measurements != "" {
		c.Measurements = f.Measurements
	}
	if f.MetricsAddr != "" {
		c.MetricsAddr = f.MetricsAddr
	}
	if f.LogLevel != "" {
		c.Log.Level = f.LogLevel
	}
	if f.SnapshotDir != "" {
		c.Snapshot.Dir = f.SnapshotDir
	}
	if f.SnapshotEvery > 0 {
		c.Snapshot.Every = f.SnapshotEvery
	}
}

// Validate rejects settings no backend can run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendRaster, BackendRaylib:
	default:
		errs = append(errs, fmt.Errorf("backend %q: want %s or %s", c.Backend, BackendRaster, BackendRaylib))
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("size %dx%d is negative", c.Width, c.Height))
	}
	if c.FallbackWidth <= 0 || c.FallbackHeight <= 0 {
		errs = append(errs, fmt.Errorf("fallback size %dx%d must be positive", c.FallbackWidth, c.FallbackHeight))
	}
	if c.Supersample < 1 {
		errs = append(errs, fmt.Errorf("supersample %d must be at least 1", c.Supersample))
	}
	if c.Snapshot.Every < 0 {
		errs = append(errs, fmt.Errorf("snapshot.every %d is negative", c.Snapshot.Every))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
