// Package config loads pipeline configuration from YAML files. Each stage
// binary takes a config path plus a small number of flag overrides.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration.
type Config struct {
	Dir     DirConfig     `yaml:"dir"`
	Prepare PrepareConfig `yaml:"prepare"`
	Train   TrainConfig   `yaml:"train"`
}

// DirConfig names the data roots shared by every stage.
type DirConfig struct {
	// DataDir holds the raw {phase}_series.parquet inputs.
	DataDir string `yaml:"dataDir"`
	// ProcessedDir receives the per-phase feature store trees.
	ProcessedDir string `yaml:"processedDir"`
	// ModelDir receives training checkpoints.
	ModelDir string `yaml:"modelDir"`
	// ManifestPath is the sqlite manifest location; empty disables the
	// manifest.
	ManifestPath string `yaml:"manifestPath"`
}

// PrepareConfig configures the feature preparer.
type PrepareConfig struct {
	Phase string `yaml:"phase"`
}

// TrainConfig configures the training driver.
type TrainConfig struct {
	ExpName       string   `yaml:"expName"`
	Phase         string   `yaml:"phase"`
	Seed          int64    `yaml:"seed"`
	Epochs        int      `yaml:"epochs"`
	BatchSize     int      `yaml:"batchSize"`
	Duration      int      `yaml:"duration"`
	Stride        int      `yaml:"stride"`
	Features      []string `yaml:"features"`
	MonitorMode   string   `yaml:"monitorMode"`
	ValidFraction float64  `yaml:"validFraction"`
}

// Default returns a runnable default configuration.
func Default() Config {
	return Config{
		Dir: DirConfig{
			DataDir:      "./data",
			ProcessedDir: "./processed",
			ModelDir:     "./models",
			ManifestPath: "./manifest.db",
		},
		Prepare: PrepareConfig{Phase: "train"},
		Train: TrainConfig{
			ExpName:   "exp001",
			Phase:     "train",
			Seed:      42,
			Epochs:    50,
			BatchSize: 32,
			Duration:  5760, // 8 hours at one sample per 5 seconds
			Stride:    5760,
			Features: []string{
				"anglez", "enmo",
				"hour_sin", "hour_cos",
				"month_sin", "month_cos",
				"minute_sin", "minute_cos",
			},
			MonitorMode:   "min",
			ValidFraction: 0.2,
		},
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Digest returns a stable hex digest of the configuration, recorded in the
// manifest so reruns can be matched to the exact settings that produced
// them.
func (c Config) Digest() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		// Marshal of a plain struct cannot fail at runtime; keep the
		// digest total anyway.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
