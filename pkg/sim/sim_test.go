package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimehive/hivesim/pkg/snapshot"
)

func TestStepKeepsAgentsInsideBoundary(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Simulation.GridSize = 60
		cfg.Simulation.Margin = 5
		cfg.Drones.Count = 50
		cfg.Drones.BehaviorMode = "RANDOM"
	})

	ctx := t.Context()
	for i := 0; i < 300; i++ {
		s.Step(ctx)
	}

	for _, a := range s.Agents().Live() {
		assert.GreaterOrEqual(t, a.X, 5)
		assert.LessOrEqual(t, a.X, 54)
		assert.GreaterOrEqual(t, a.Y, 5)
		assert.LessOrEqual(t, a.Y, 54)
		assert.LessOrEqual(t, len(a.Trail), TrailCap)
		assert.GreaterOrEqual(t, a.Hunger, 0.0)
		assert.LessOrEqual(t, a.Hunger, 100.0)
	}
}

func TestExtinctionTerminatesEarly(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Drones.Count = 5
		cfg.Drones.DeathMode = "yes"
		cfg.Drones.HungerDecay = 60 // starves everyone on the second tick
	})

	ctx := t.Context()
	s.Step(ctx)
	require.Equal(t, StateRunning, s.State())
	require.Equal(t, 5, s.Agents().LiveCount())

	s.Step(ctx)
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, ReasonExtinction, s.Reason())
	assert.Zero(t, s.Agents().LiveCount())
	assert.Len(t, s.Agents().Dead(), 5)

	deaths := 0
	for _, m := range s.Markers() {
		if m.Type == MarkerDeath {
			deaths++
			assert.NotEmpty(t, m.ID)
			assert.NotEmpty(t, m.AgentID)
		}
	}
	assert.Equal(t, 5, deaths)

	// A terminated simulation ignores further steps.
	tick := s.Tick()
	s.Step(ctx)
	assert.Equal(t, tick, s.Tick())
}

func TestRespawnModeKeepsPopulation(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Drones.Count = 5
		cfg.Drones.DeathMode = "respawn"
		cfg.Drones.HungerDecay = 60
	})

	ctx := t.Context()
	s.Step(ctx)
	s.Step(ctx)
	s.Step(ctx)

	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, 5, s.Agents().LiveCount())
	assert.Empty(t, s.Agents().Dead())

	// Each starvation still drops a death marker before the reset.
	deaths := 0
	for _, m := range s.Markers() {
		if m.Type == MarkerDeath {
			deaths++
		}
	}
	assert.Equal(t, 5, deaths)
}

func TestDeathModeNoLeavesStarvedAgentsAlive(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Drones.Count = 3
		cfg.Drones.DeathMode = "no"
		cfg.Drones.HungerDecay = 60
	})

	ctx := t.Context()
	for i := 0; i < 5; i++ {
		s.Step(ctx)
	}

	assert.Equal(t, 3, s.Agents().LiveCount())
	for _, a := range s.Agents().Live() {
		assert.Zero(t, a.Hunger)
	}
}

func TestFeedingTracksCarryStateAndMarkers(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Drones.Count = 1
		cfg.Behavior.MoveProbability = 0 // hold still on top of the food
	})

	a := place(s, 0, 50, 50)
	a.Hunger = 40
	s.foods = NewFoodStore([]*FoodSource{
		{ID: "F-000", X: 50, Y: 50, Radius: 3, Amount: 0.5, MaxAmount: 0.5},
	}, false, 0)

	ctx := t.Context()
	s.Step(ctx)

	// One bite drained the source: smell on first contact, food on depletion.
	assert.Equal(t, StateCarrying, a.State)
	assert.Greater(t, a.Hunger, 40.0)
	src := s.Foods().Sources()[0]
	assert.True(t, src.Consumed)

	var types []MarkerType
	for _, m := range s.Markers() {
		types = append(types, m.Type)
	}
	assert.Contains(t, types, MarkerSmell)
	assert.Contains(t, types, MarkerFood)

	// Nothing left to eat: the carry state drops back to idle.
	s.Step(ctx)
	assert.Equal(t, StateIdle, a.State)
}

func TestCaptureStateShape(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Drones.Count = 4
	})

	st := s.CaptureState()

	assert.Len(t, st.Drones, 4)
	assert.Empty(t, st.DeadDrones)
	assert.Len(t, st.Grid, 100)
	assert.Len(t, st.GhostGrid, 100)
	assert.Equal(t, "BOIDS", st.SimMode)
	assert.Equal(t, "STEADY", st.Mood) // decay 0.95
	assert.Equal(t, 0.95, st.DecayRate)
	assert.Equal(t, snapshot.Boundary{MinX: 10, MinY: 10, MaxX: 89, MaxY: 89}, st.Boundary)
	assert.Equal(t, snapshot.Point{X: 50, Y: 50}, st.Queen)
	assert.Empty(t, st.Reason, "running simulations carry no stop reason")
}

func TestApplyLiveConfigClampsAndSwitches(t *testing.T) {
	s := newTestSim(t, nil)
	ctx := t.Context()

	decay := 2.0 // clamped to 0.9999
	deposit := -4.0
	boost := 100.0
	death := "respawn"
	mode := "SCATTER"
	s.applyLiveConfig(ctx, &LiveConfig{
		DecayRate:      &decay,
		DepositAmount:  &deposit,
		PheromoneBoost: &boost,
		DeathMode:      &death,
		Mode:           &mode,
	})

	assert.Equal(t, 0.9999, s.Field().DecayRate())
	assert.Zero(t, s.deposit)
	assert.Equal(t, 10.0, s.boost)
	assert.Equal(t, "respawn", s.deathMode)
	assert.Equal(t, ModeScatter, s.Mode())

	// Junk values are dropped, not applied.
	badDeath := "maybe"
	badMode := "MOONWALK"
	s.applyLiveConfig(ctx, &LiveConfig{DeathMode: &badDeath, Mode: &badMode})
	assert.Equal(t, "respawn", s.deathMode)
	assert.Equal(t, ModeScatter, s.Mode())

	// A missing tuning file applies nothing.
	s.applyLiveConfig(ctx, nil)
	assert.Equal(t, ModeScatter, s.Mode())
}

func TestMoodForDecayBands(t *testing.T) {
	assert.Equal(t, "MELLOW", moodFor(0.99))
	assert.Equal(t, "STEADY", moodFor(0.95))
	assert.Equal(t, "RESTLESS", moodFor(0.92))
	assert.Equal(t, "FRENZIED", moodFor(0.5))
}

func TestCollectMetrics(t *testing.T) {
	s := newTestSim(t, func(cfg *Config) {
		cfg.Drones.Count = 2
	})

	a := place(s, 0, 10, 10)
	b := place(s, 1, 13, 14)
	a.VX, a.VY = 1, 0
	b.VX, b.VY = 1, 0

	sample := s.collect()

	assert.Equal(t, 2, sample.DroneCount)
	assert.InDelta(t, 5.0, sample.AvgNeighborDistance, 1e-9)
	assert.InDelta(t, 5.0, sample.AvgNearestNeighbor, 1e-9)
	assert.InDelta(t, 11.5, sample.CenterX, 1e-9)
	assert.InDelta(t, 12.0, sample.CenterY, 1e-9)
	assert.InDelta(t, 3.5, sample.SwarmSpread, 1e-9) // stddev 1.5 + 2.0
	assert.InDelta(t, 1.0, sample.VelocityAlignment, 1e-9)
	assert.Zero(t, sample.Collisions)

	b.X, b.Y = 10, 10
	assert.Equal(t, 1, s.collect().Collisions)
}

func TestRunCompletesAndWritesArtifacts(t *testing.T) {
	dir := t.TempDir()

	s := newTestSim(t, func(cfg *Config) {
		cfg.Simulation.TickRate = 50
		cfg.Simulation.DurationSeconds = 1
		cfg.Drones.Count = 5
		cfg.Metrics.Enabled = true
		cfg.Metrics.ExportCSV = true
		cfg.Metrics.FlightLog = true
		cfg.Recording.Enabled = true
		cfg.Recording.OutputDir = dir
	})

	final, err := s.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, ReasonCompleted, s.Reason())
	assert.Equal(t, "completed", final.Reason)
	assert.Equal(t, 50, final.Tick)

	st, err := snapshot.Read(filepath.Join(dir, "hive_state.json"))
	require.NoError(t, err)
	assert.Equal(t, 50, st.Tick)
	assert.Equal(t, "completed", st.Reason)

	archives, err := filepath.Glob(filepath.Join(dir, "snapshots", "hive_state_ARCHIVE_*.json"))
	require.NoError(t, err)
	assert.Len(t, archives, 1)

	csvs, err := filepath.Glob(filepath.Join(dir, "analysis", "metrics", "sim_BOIDS_5drones_*.csv"))
	require.NoError(t, err)
	assert.Len(t, csvs, 1)

	recs, err := filepath.Glob(filepath.Join(dir, "recordings", "sim_BOIDS_5drones_*.slimehive"))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec, err := snapshot.LoadRecording(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "BOIDS", rec.Meta.Mode)
	assert.NotEmpty(t, rec.Keyframes)

	logs, err := filepath.Glob(filepath.Join(dir, "flight_logs", "session_*.csv"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,drone_id,x,y,intensity,rssi")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()

	s := newTestSim(t, func(cfg *Config) {
		cfg.Recording.OutputDir = dir
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	final, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, ReasonStopped, s.Reason())
	assert.Equal(t, "stopped", final.Reason)
	assert.Zero(t, final.Tick)
}
