// Package config loads and validates the optional .overseer YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file looked up by Load.
const FileName = ".overseer"

// Default values for runner configuration.
const (
	DefaultTimeout   = 5 * time.Minute
	DefaultMaxOutput = 1 << 20 // 1 MB
	DefaultKillGrace = 2 * time.Second
)

// Config holds the parsed .overseer configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version            int               `yaml:"version"`
	RawTimeout         string            `yaml:"timeout"`           // e.g. "5m", "30s"
	RawNoOutputTimeout string            `yaml:"no_output_timeout"` // empty disables
	RawKillGrace       string            `yaml:"kill_grace"`        // "0s" kills at once
	RawMaxOutput       int               `yaml:"max_output"`        // bytes per stream
	Env                map[string]string `yaml:"env"`               // applied to every run; per-run overrides win
}

// Timeout returns the configured absolute timeout or the default.
func (c *Config) Timeout() time.Duration {
	if d, ok := parsePositive(c.RawTimeout); ok {
		return d
	}
	return DefaultTimeout
}

// NoOutputTimeout returns the configured inactivity timeout, or zero when
// none is configured.
func (c *Config) NoOutputTimeout() time.Duration {
	d, _ := parsePositive(c.RawNoOutputTimeout)
	return d
}

// KillGrace returns the delay between the polite and the forceful
// termination signal.
func (c *Config) KillGrace() time.Duration {
	if c.RawKillGrace == "" {
		return DefaultKillGrace
	}
	d, err := time.ParseDuration(c.RawKillGrace)
	if err != nil || d < 0 {
		return DefaultKillGrace
	}
	return d
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Validate reports durations that cannot be parsed. Accessors fall back
// to defaults silently; Load calls Validate so typos surface early.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name, raw string
	}{
		{"timeout", c.RawTimeout},
		{"no_output_timeout", c.RawNoOutputTimeout},
		{"kill_grace", c.RawKillGrace},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s: must not be negative, got %s", f.name, f.raw)
		}
	}
	if c.RawMaxOutput < 0 {
		return fmt.Errorf("max_output: must not be negative, got %d", c.RawMaxOutput)
	}
	return nil
}

func parsePositive(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// LoadResult holds the parsed config and the directory it was found in.
type LoadResult struct {
	Config *Config
	Root   string // directory containing .overseer; falls back to workspace
	Path   string // path of the file read, empty when defaults are used
}

// Load reads the nearest .overseer file, walking upward from workspace.
// If no file exists, a default Config is returned with workspace as Root.
func Load(workspace string) (*LoadResult, error) {
	path, err := findConfig(workspace)
	if err != nil {
		return &LoadResult{Config: &Config{}, Root: workspace}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Root: filepath.Dir(path), Path: path}, nil
}

// findConfig walks upward from dir looking for a .overseer file.
func findConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}
