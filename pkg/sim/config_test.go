package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero grid", func(c *Config) { c.Simulation.GridSize = 0 }},
		{"zero tick rate", func(c *Config) { c.Simulation.TickRate = 0 }},
		{"zero duration", func(c *Config) { c.Simulation.DurationSeconds = 0 }},
		{"margin swallows grid", func(c *Config) { c.Simulation.Margin = 50 }},
		{"zero drones", func(c *Config) { c.Drones.Count = 0 }},
		{"hopper ratio above one", func(c *Config) { c.Drones.HopperRatio = 1.5 }},
		{"unknown mode", func(c *Config) { c.Drones.BehaviorMode = "MOONWALK" }},
		{"unknown death mode", func(c *Config) { c.Drones.DeathMode = "maybe" }},
		{"zero neighbor radius", func(c *Config) { c.Behavior.NeighborRadius = 0 }},
		{"negative separation", func(c *Config) { c.Behavior.SeparationDistance = -1 }},
		{"move probability above one", func(c *Config) { c.Behavior.MoveProbability = 1.1 }},
		{"decay rate of one", func(c *Config) { c.Pheromones.DecayRate = 1 }},
		{"ghost decay of zero", func(c *Config) { c.Pheromones.GhostDecayRate = 0 }},
		{"zero ceiling", func(c *Config) { c.Pheromones.Ceiling = 0 }},
		{"negative food count", func(c *Config) { c.Food.Count = -1 }},
		{"negative food radius", func(c *Config) { c.Food.Radius = -1 }},
		{"zero sample rate", func(c *Config) { c.Metrics.SampleRate = 0 }},
		{"zero snapshot cadence", func(c *Config) { c.Recording.SnapshotEvery = 0 }},
		{"zero keyframe cadence", func(c *Config) { c.Recording.KeyframeEvery = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulation.json")
	body := `{
		"drones": {"count": 7, "behavior_mode": "FORAGE"},
		"pheromones": {"decay_rate": 0.9}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Drones.Count)
	assert.Equal(t, "FORAGE", cfg.Drones.BehaviorMode)
	assert.Equal(t, 0.9, cfg.Pheromones.DecayRate)

	// Untouched sections keep their defaults.
	assert.Equal(t, 100, cfg.Simulation.GridSize)
	assert.Equal(t, 255.0, cfg.Pheromones.Ceiling)
}

func TestLoadConfigRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulation.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadLiveConfig(t *testing.T) {
	dir := t.TempDir()

	// Absence is the steady state, not an error.
	lc, err := LoadLiveConfig(filepath.Join(dir, "hive_config_live.json"))
	require.NoError(t, err)
	assert.Nil(t, lc)

	path := filepath.Join(dir, "hive_config_live.json")
	body := `{"decay_rate": 0.97, "death_mode": "respawn", "timestamp": 1700000000}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	lc, err = LoadLiveConfig(path)
	require.NoError(t, err)
	require.NotNil(t, lc)
	require.NotNil(t, lc.DecayRate)
	assert.Equal(t, 0.97, *lc.DecayRate)
	require.NotNil(t, lc.DeathMode)
	assert.Equal(t, "respawn", *lc.DeathMode)
	assert.Nil(t, lc.DepositAmount, "absent knobs stay nil")

	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err = LoadLiveConfig(path)
	assert.Error(t, err)
}

func TestExportMetricsCSV(t *testing.T) {
	dir := t.TempDir()

	// No samples, no file.
	path, err := ExportMetricsCSV(dir, ModeBoids, 5, "stamp", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	samples := []Sample{
		{Tick: 1, Time: 0.03, AvgNearestNeighbor: 4.2, DroneCount: 5},
		{Tick: 2, Time: 0.07, AvgNearestNeighbor: 4.0, DroneCount: 5},
	}
	path, err = ExportMetricsCSV(dir, ModeBoids, 5, "stamp", samples)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sim_BOIDS_5drones_stamp.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tick,time,avg_neighbor_distance")
	assert.Contains(t, string(data), "\n1,0.03,")
}
