package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	start, err := cfg.StartDate()
	require.NoError(t, err)
	end, err := cfg.EndDate()
	require.NoError(t, err)
	assert.True(t, start.Before(end))
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad start date", func(c *Config) { c.Simulation.Start = "01/02/2020" }},
		{"bad end date", func(c *Config) { c.Simulation.End = "soon" }},
		{"start after end", func(c *Config) { c.Simulation.Start, c.Simulation.End = c.Simulation.End, c.Simulation.Start }},
		{"bad frequency", func(c *Config) { c.Simulation.Frequency = "weekly" }},
		{"zero cash", func(c *Config) { c.Simulation.InitialCash = 0 }},
		{"negative commission", func(c *Config) { c.Simulation.Commission = -0.01 }},
		{"absurd slippage", func(c *Config) { c.Simulation.Slippage = 0.5 }},
		{"empty universe", func(c *Config) { c.Simulation.Universe = nil }},
		{"missing strategy", func(c *Config) { c.Strategy.Name = "" }},
		{"negative top_n", func(c *Config) { c.Strategy.TopN = -1 }},
		{"bad confidence", func(c *Config) { c.Analysis.ConfidenceLevels = []float64{1.5} }},
		{"unknown journal", func(c *Config) { c.Journal.Type = "parquet" }},
		{"csv without paths", func(c *Config) { c.Journal.Type = "csv" }},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	data := `simulation:
  start: "2020-01-01"
  end: "2021-01-01"
  frequency: quarterly
  initial_cash: 25000
  commission: 0.002
  slippage: 0.001
  universe: [AAPL, MSFT]
strategy:
  name: equal-weight
  top_n: 2
analysis:
  risk_free_rate: 0.03
journal:
  type: memory
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "quarterly", cfg.Simulation.Frequency)
	assert.InDelta(t, 25000.0, cfg.Simulation.InitialCash, 1e-9)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Simulation.Universe)
	assert.Equal(t, "equal-weight", cfg.Strategy.Name)
	assert.InDelta(t, 0.03, cfg.Analysis.RiskFreeRate, 1e-12)
}

func TestLoadFromFileJSONFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")

	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Simulation.Universe, loaded.Simulation.Universe)
	assert.Equal(t, cfg.Strategy.Name, loaded.Strategy.Name)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile("/nonexistent/run.yaml")
	require.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not config"), 0o644))

	_, err = LoadFromFile(path)
	require.Error(t, err)
}

func TestSaveToFileYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "run.yml")

	cfg := Default()
	cfg.Journal = JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "run.db")}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", loaded.Journal.Type)
	assert.Equal(t, cfg.Journal.DBPath, loaded.Journal.DBPath)
}
