// Package config loads and validates simulation run configuration from
// YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stocksim/schedule"
)

const dateLayout = "2006-01-02"

// Config represents a complete simulation configuration.
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// SimulationConfig drives the rebalance loop.
type SimulationConfig struct {
	Start       string   `json:"start" yaml:"start"` // 2006-01-02
	End         string   `json:"end" yaml:"end"`
	Frequency   string   `json:"frequency" yaml:"frequency"` // monthly or quarterly
	InitialCash float64  `json:"initial_cash" yaml:"initial_cash"`
	Commission  float64  `json:"commission" yaml:"commission"`
	Slippage    float64  `json:"slippage" yaml:"slippage"`
	Universe    []string `json:"universe" yaml:"universe"`
	PricesCSV   string   `json:"prices_csv,omitempty" yaml:"prices_csv,omitempty"`
}

// StrategyConfig selects and tunes the stock-selection strategy.
type StrategyConfig struct {
	Name         string `json:"name" yaml:"name"`
	TopN         int    `json:"top_n" yaml:"top_n"`
	LookbackDays int    `json:"lookback_days,omitempty" yaml:"lookback_days,omitempty"`
}

// AnalysisConfig tunes the performance and risk analyzers.
type AnalysisConfig struct {
	RiskFreeRate         float64   `json:"risk_free_rate" yaml:"risk_free_rate"`
	ConfidenceLevels     []float64 `json:"confidence_levels,omitempty" yaml:"confidence_levels,omitempty"`
	HorizonDays          int       `json:"horizon_days,omitempty" yaml:"horizon_days,omitempty"`
	CorrelationThreshold float64   `json:"correlation_threshold,omitempty" yaml:"correlation_threshold,omitempty"`
}

// JournalConfig selects where trades and the equity curve are recorded.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "memory", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StartDate parses the configured start date. Call Validate first.
func (c *Config) StartDate() (time.Time, error) {
	return time.Parse(dateLayout, c.Simulation.Start)
}

// EndDate parses the configured end date. Call Validate first.
func (c *Config) EndDate() (time.Time, error) {
	return time.Parse(dateLayout, c.Simulation.End)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes configuration to a file, YAML or JSON by extension.
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration before any simulation work begins.
func (c *Config) Validate() error {
	start, err := time.Parse(dateLayout, c.Simulation.Start)
	if err != nil {
		return fmt.Errorf("simulation.start: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Simulation.End)
	if err != nil {
		return fmt.Errorf("simulation.end: %w", err)
	}
	if start.After(end) {
		return fmt.Errorf("simulation.start %s is after simulation.end %s", c.Simulation.Start, c.Simulation.End)
	}
	if !schedule.Frequency(c.Simulation.Frequency).Valid() {
		return fmt.Errorf("simulation.frequency must be monthly or quarterly, got %q", c.Simulation.Frequency)
	}
	if c.Simulation.InitialCash <= 0 {
		return fmt.Errorf("simulation.initial_cash must be positive")
	}
	if c.Simulation.Commission < 0 || c.Simulation.Commission > 0.1 {
		return fmt.Errorf("simulation.commission must be in [0, 0.1]")
	}
	if c.Simulation.Slippage < 0 || c.Simulation.Slippage > 0.1 {
		return fmt.Errorf("simulation.slippage must be in [0, 0.1]")
	}
	if len(c.Simulation.Universe) == 0 {
		return fmt.Errorf("simulation.universe is required")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.TopN < 0 {
		return fmt.Errorf("strategy.top_n must not be negative")
	}
	for _, conf := range c.Analysis.ConfidenceLevels {
		if conf <= 0 || conf >= 1 {
			return fmt.Errorf("analysis.confidence_levels must be in (0,1), got %v", conf)
		}
	}
	switch c.Journal.Type {
	case "", "memory":
		// in-process only
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'memory', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Start:       "2018-01-01",
			End:         "2023-12-31",
			Frequency:   string(schedule.Monthly),
			InitialCash: 100000,
			Commission:  0.001,
			Slippage:    0.0005,
			Universe:    []string{"AAPL", "MSFT", "GOOG", "AMZN", "JNJ", "XOM", "JPM", "PG"},
		},
		Strategy: StrategyConfig{
			Name:         "momentum",
			TopN:         5,
			LookbackDays: 90,
		},
		Analysis: AnalysisConfig{
			RiskFreeRate:         0.02,
			ConfidenceLevels:     []float64{0.95, 0.99},
			HorizonDays:          1,
			CorrelationThreshold: 0.8,
		},
		Journal: JournalConfig{
			Type: "memory",
		},
	}
}
