package sim

import (
	"fmt"
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Spawn patterns shared by drones and food sources.
const (
	SpawnRandom  = "random"
	SpawnCenter  = "center"
	SpawnCorners = "corners"
	SpawnLine    = "line"
	SpawnNoise   = "noise"
)

const (
	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinN     = 3
	noiseScale  = 0.1
)

// spawnPositions produces count grid cells following the given pattern,
// kept inside the margin. Unknown patterns fall back to random.
func spawnPositions(rng *rand.Rand, pattern string, count, gridSize, margin int) [][2]int {
	lo := margin
	hi := gridSize - margin
	span := hi - lo

	positions := make([][2]int, 0, count)

	var noise *perlin.Perlin
	if pattern == SpawnNoise {
		noise = perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, rng.Int63())
	}

	for i := 0; i < count; i++ {
		var x, y int

		switch pattern {
		case SpawnCenter:
			x = gridSize/2 + rng.Intn(11) - 5
			y = gridSize/2 + rng.Intn(11) - 5

		case SpawnCorners:
			switch i % 4 {
			case 0:
				x, y = lo+5, lo+5
			case 1:
				x, y = hi-5, lo+5
			case 2:
				x, y = lo+5, hi-5
			default:
				x, y = hi-5, hi-5
			}
			x += rng.Intn(7) - 3
			y += rng.Intn(7) - 3

		case SpawnLine:
			x = lo + i*span/max(count-1, 1)
			y = gridSize / 2

		case SpawnNoise:
			// Rejection-sample cells where the noise ridge is high, so the
			// swarm starts in organic clumps rather than a uniform scatter.
			x, y = noiseCell(rng, noise, lo, hi)

		default:
			x = lo + rng.Intn(span)
			y = lo + rng.Intn(span)
		}

		x = clamp(x, lo, hi-1)
		y = clamp(y, lo, hi-1)
		positions = append(positions, [2]int{x, y})
	}

	return positions
}

func noiseCell(rng *rand.Rand, noise *perlin.Perlin, lo, hi int) (int, int) {
	span := hi - lo
	for attempt := 0; attempt < 64; attempt++ {
		x := lo + rng.Intn(span)
		y := lo + rng.Intn(span)
		if noise.Noise2D(float64(x)*noiseScale, float64(y)*noiseScale) > 0.1 {
			return x, y
		}
	}
	// Flat noise patch; take whatever comes.
	return lo + rng.Intn(span), lo + rng.Intn(span)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// spawnAgents creates the initial live population. The tail of the roster
// becomes hoppers according to the configured ratio.
func spawnAgents(rng *rand.Rand, cfg Config) []*Agent {
	positions := spawnPositions(
		rng,
		cfg.Drones.SpawnPattern,
		cfg.Drones.Count,
		cfg.Simulation.GridSize,
		cfg.Simulation.Margin)

	workers := cfg.Drones.Count - int(float64(cfg.Drones.Count)*cfg.Drones.HopperRatio)

	agents := make([]*Agent, 0, cfg.Drones.Count)
	for i, pos := range positions {
		typ := AgentWorker
		if i >= workers {
			typ = AgentHopper
		}
		agents = append(agents, newAgent(fmt.Sprintf("S-%03d", i), pos[0], pos[1], typ))
	}

	return agents
}

// spawnFood places the configured food sources using the spread pattern.
func spawnFood(rng *rand.Rand, cfg Config) []*FoodSource {
	positions := spawnPositions(
		rng,
		cfg.Food.Spread,
		cfg.Food.Count,
		cfg.Simulation.GridSize,
		cfg.Simulation.Margin)

	sources := make([]*FoodSource, 0, cfg.Food.Count)
	for i, pos := range positions {
		sources = append(sources, &FoodSource{
			ID:        fmt.Sprintf("F-%03d", i),
			X:         pos[0],
			Y:         pos[1],
			Radius:    cfg.Food.Radius,
			Amount:    cfg.Food.Amount,
			MaxAmount: cfg.Food.Amount,
		})
	}

	return sources
}
