// Package config loads the engine's tunables from a YAML file, with
// defaults standing in for anything the file omits or that's missing
// entirely.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every knob the engine needs. Fields that the
// specification fixes outright — the level-capacity formula 2^(L+1),
// the MemTable's accounting overhead of 40 bytes per record — are not
// configurable and so have no entry here.
type Config struct {
	// DataDir is the directory under which level-0, level-1, ... and the
	// staging directory tmp/ live.
	DataDir string `yaml:"data_dir"`

	Memtable struct {
		// CeilingBytes is the accumulated record-size estimate at which
		// the MemTable is flushed, and the size compaction slices output
		// SSTs to.
		CeilingBytes int `yaml:"ceiling_bytes"`
	} `yaml:"memtable"`

	Cache struct {
		// Capacity is the read-path value cache's entry limit. Zero
		// does not turn the cache off: it stays in use with no entry
		// limit and never evicts.
		Capacity int `yaml:"capacity"`
	} `yaml:"cache"`

	CompactionRate struct {
		// Capacity is the token bucket's burst size. Zero disables
		// throttling: compaction always proceeds immediately.
		Capacity int `yaml:"capacity"`
		// RefillIntervalSeconds and RefillAmount describe the bucket's
		// steady-state refill rate.
		RefillIntervalSeconds int `yaml:"refill_interval_seconds"`
		RefillAmount          int `yaml:"refill_amount"`
	} `yaml:"compaction_rate"`
}

// Default returns the configuration the engine runs with when no file
// is supplied.
func Default() *Config {
	cfg := &Config{DataDir: "data"}
	cfg.Memtable.CeilingBytes = 2 << 20 // 2 MiB
	cfg.Cache.Capacity = 1000
	// CompactionRate left at its zero value: unlimited.
	return cfg
}

// Load reads path as YAML over the default configuration. A missing
// file is not an error: the defaults are returned unchanged. An empty
// path also returns the defaults, so the engine can run without any
// config file at all.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration error found, if any.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if c.Memtable.CeilingBytes < 1 {
		return errors.New("config: memtable.ceiling_bytes must be at least 1")
	}
	if c.Cache.Capacity < 0 {
		return errors.New("config: cache.capacity must not be negative")
	}
	if c.CompactionRate.Capacity < 0 {
		return errors.New("config: compaction_rate.capacity must not be negative")
	}
	if c.CompactionRate.Capacity > 0 && c.CompactionRate.RefillIntervalSeconds < 1 {
		return errors.New("config: compaction_rate.refill_interval_seconds must be at least 1 when capacity is set")
	}
	return nil
}

// RefillInterval returns the compaction token bucket's refill interval
// as a time.Duration.
func (c *Config) RefillInterval() time.Duration {
	return time.Duration(c.CompactionRate.RefillIntervalSeconds) * time.Second
}
