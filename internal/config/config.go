// Package config loads and validates the simulation run
// configuration from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"intraday-sim-lab/internal/strategy"
)

// Storage backends selectable in the config.
const (
	BackendMemory   = "memory"
	BackendFS       = "fs"
	BackendPostgres = "postgres"
)

// Config represents the complete simulation configuration.
type Config struct {
	Team     string         `json:"team" yaml:"team"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Results  ResultsConfig  `json:"results" yaml:"results"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// StrategyConfig names the registered strategy and its parameters.
type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// DataConfig locates the tick feed and the tradable-universe list.
type DataConfig struct {
	TickDir      string `json:"tick_dir" yaml:"tick_dir"`
	UniverseFile string `json:"universe_file,omitempty" yaml:"universe_file,omitempty"`
	WSEndpoint   string `json:"ws_endpoint,omitempty" yaml:"ws_endpoint,omitempty"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `json:"backend" yaml:"backend"` // "memory", "fs" or "postgres"
	FSDir         string `json:"fs_dir,omitempty" yaml:"fs_dir,omitempty"`
	PostgresDSN   string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	ClickhouseDSN string `json:"clickhouse_dsn,omitempty" yaml:"clickhouse_dsn,omitempty"`
}

// ResultsConfig locates the report output directory.
type ResultsConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// MetricsConfig configures the optional Prometheus endpoint. An empty
// Addr disables it.
type MetricsConfig struct {
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON based on
// content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML for .yaml/.yml
// extensions and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Team == "" {
		return fmt.Errorf("team is required")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if !registered(c.Strategy.Name) {
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if c.Data.TickDir == "" {
		return fmt.Errorf("data.tick_dir is required")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFS:
		if c.Storage.FSDir == "" {
			return fmt.Errorf("storage.fs_dir required for fs backend")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q, %q or %q", BackendMemory, BackendFS, BackendPostgres)
	}
	if c.Results.Dir == "" {
		return fmt.Errorf("results.dir is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Team: "teamA",
		Strategy: StrategyConfig{
			Name: "noop",
		},
		Data: DataConfig{
			TickDir: "./data/ticks",
		},
		Storage: StorageConfig{
			Backend: BackendFS,
			FSDir:   "./result",
		},
		Results: ResultsConfig{
			Dir: "./result",
		},
		Metrics: MetricsConfig{
			Namespace: "intraday_sim",
		},
	}
}

func registered(name string) bool {
	for _, n := range strategy.Names() {
		if n == name {
			return true
		}
	}
	return false
}
