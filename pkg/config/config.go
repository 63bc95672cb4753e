// Package config loads engine tuning parameters from a YAML file. Every
// field has a default; an absent file or field leaves the default in place.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config collects the engine's tunable parameters.
type Config struct {
	Scan struct {
		ChunkSize     int `yaml:"chunk_size"`
		TimeoutSec    int `yaml:"timeout_sec"`
		SliceBudgetMs int `yaml:"slice_budget_ms"`
	} `yaml:"scan"`

	Sentence struct {
		MinContextLen int `yaml:"min_context_len"`
	} `yaml:"sentence"`

	Encounter struct {
		BufferSize      int `yaml:"buffer_size"`
		FlushIntervalMs int `yaml:"flush_interval_ms"`
		DedupWindowMin  int `yaml:"dedup_window_min"`
	} `yaml:"encounter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.Scan.ChunkSize = 30
	c.Scan.TimeoutSec = 30
	c.Scan.SliceBudgetMs = 15
	c.Sentence.MinContextLen = 10
	c.Encounter.BufferSize = 200
	c.Encounter.FlushIntervalMs = 2000
	c.Encounter.DedupWindowMin = 240
	return c
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// ScanTimeout returns the scan timeout as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scan.TimeoutSec) * time.Second
}

// SliceBudget returns the lazy-mode slice budget as a duration.
func (c *Config) SliceBudget() time.Duration {
	return time.Duration(c.Scan.SliceBudgetMs) * time.Millisecond
}

// FlushInterval returns the encounter flush interval as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Encounter.FlushIntervalMs) * time.Millisecond
}

// DedupWindow returns the encounter dedup window as a duration.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Encounter.DedupWindowMin) * time.Minute
}
