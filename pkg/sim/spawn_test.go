package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnPositionsStayInsideMargin(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, pattern := range []string{SpawnRandom, SpawnCenter, SpawnCorners, SpawnLine, SpawnNoise} {
		for _, pos := range spawnPositions(rng, pattern, 40, 100, 10) {
			assert.GreaterOrEqual(t, pos[0], 10, "pattern %s", pattern)
			assert.LessOrEqual(t, pos[0], 89, "pattern %s", pattern)
			assert.GreaterOrEqual(t, pos[1], 10, "pattern %s", pattern)
			assert.LessOrEqual(t, pos[1], 89, "pattern %s", pattern)
		}
	}
}

func TestSpawnCenterClusters(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, pos := range spawnPositions(rng, SpawnCenter, 30, 100, 10) {
		assert.GreaterOrEqual(t, pos[0], 45)
		assert.LessOrEqual(t, pos[0], 55)
		assert.GreaterOrEqual(t, pos[1], 45)
		assert.LessOrEqual(t, pos[1], 55)
	}
}

func TestSpawnLineSitsOnMidRow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	positions := spawnPositions(rng, SpawnLine, 5, 100, 10)
	require.Len(t, positions, 5)
	for _, pos := range positions {
		assert.Equal(t, 50, pos[1])
	}
	assert.Equal(t, 10, positions[0][0])
	assert.Less(t, positions[0][0], positions[4][0])
}

func TestSpawnAgentsSplitsHoppersFromTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Drones.Count = 10
	cfg.Drones.HopperRatio = 0.3

	agents := spawnAgents(rand.New(rand.NewSource(7)), cfg)
	require.Len(t, agents, 10)

	hoppers := 0
	for i, a := range agents {
		assert.Equal(t, 100.0, a.Hunger)
		assert.True(t, a.Alive)
		if a.Type == AgentHopper {
			hoppers++
			assert.GreaterOrEqual(t, i, 7, "hoppers come from the roster tail")
		}
	}
	assert.Equal(t, 3, hoppers)
	assert.Equal(t, "S-000", agents[0].ID)
	assert.Equal(t, "S-009", agents[9].ID)
}

func TestSpawnFoodUsesConfiguredShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Food.Count = 4
	cfg.Food.Amount = 80
	cfg.Food.Radius = 2.5

	sources := spawnFood(rand.New(rand.NewSource(7)), cfg)
	require.Len(t, sources, 4)
	for i, src := range sources {
		assert.Equal(t, 80.0, src.Amount)
		assert.Equal(t, 80.0, src.MaxAmount)
		assert.Equal(t, 2.5, src.Radius)
		assert.False(t, src.Consumed)
		assert.Equal(t, []string{"F-000", "F-001", "F-002", "F-003"}[i], src.ID)
	}
}
