// Package config holds the runtime knobs for a training run.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	Synthetic  bool   `yaml:"synthetic"`
	MaxSamples int    `yaml:"max_samples"`

	Hidden       []int   `yaml:"hidden"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`

	Shuffle       bool    `yaml:"shuffle"`
	Seed          uint64  `yaml:"seed"`
	NormalizeMean float64 `yaml:"normalize_mean"`
	NormalizeStd  float64 `yaml:"normalize_std"`

	LogEvery int `yaml:"log_every"`
}

// Overrides captures CLI supplied values. Zero values leave the config as is;
// pointer fields apply whenever set, so they can reset a value to zero.
type Overrides struct {
	DataDir      string
	Synthetic    *bool
	MaxSamples   int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Momentum     *float64
	Shuffle      *bool
	Seed         uint64
	LogEvery     int
}

// Default returns the configuration of the classic MNIST exercise:
// 784-128-64-10, batch 64, lr 0.003, inputs normalized with mean 0.5, std 0.5.
func Default() *Config {
	return &Config{
		Hidden:        []int{128, 64},
		Epochs:        5,
		BatchSize:     64,
		LearningRate:  0.003,
		Shuffle:       true,
		Seed:          1,
		NormalizeMean: 0.5,
		NormalizeStd:  0.5,
		LogEvery:      100,
	}
}

// Load reads a Config from YAML on top of Default and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Synthetic != nil {
		c.Synthetic = *o.Synthetic
	}
	if o.MaxSamples > 0 {
		c.MaxSamples = o.MaxSamples
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Momentum != nil {
		c.Momentum = *o.Momentum
	}
	if o.Shuffle != nil {
		c.Shuffle = *o.Shuffle
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" && !c.Synthetic {
		return errors.New("data_dir must be set unless synthetic is true")
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max_samples must be >= 0 (got %d)", c.MaxSamples)
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden[%d] must be > 0 (got %d)", i, h)
		}
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if !(c.LearningRate > 0) {
		return fmt.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1) (got %v)", c.Momentum)
	}
	if c.NormalizeStd < 0 {
		return fmt.Errorf("normalize_std must be >= 0 (got %v)", c.NormalizeStd)
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("log_every must be > 0 (got %d)", c.LogEvery)
	}
	return nil
}
