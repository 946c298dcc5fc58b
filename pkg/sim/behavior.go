package sim

import (
	"math"
	"math/rand"

	"github.com/alcionai/clues"
)

// Mode selects the movement policy shared by every agent in a run. The set
// is closed: adding a mode means adding a policy type below.
type Mode int

const (
	ModeRandom Mode = iota
	ModeAvoid
	ModeFlock
	ModeBoids
	ModeTrailFollow
	ModeForage
	ModePatrol
	ModeSwarm
	ModeScatter
	ModeFindQueen
)

var modeNames = map[Mode]string{
	ModeRandom:      "RANDOM",
	ModeAvoid:       "AVOID",
	ModeFlock:       "FLOCK",
	ModeBoids:       "BOIDS",
	ModeTrailFollow: "TRAIL_FOLLOW",
	ModeForage:      "FORAGE",
	ModePatrol:      "PATROL",
	ModeSwarm:       "SWARM",
	ModeScatter:     "SCATTER",
	ModeFindQueen:   "FIND_QUEEN",
}

func (m Mode) String() string {
	return modeNames[m]
}

// ParseMode maps a config/CLI string onto a Mode.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeRandom, clues.New("unknown behavior mode").With("mode", name)
}

// policy computes one movement delta per tick. Implementations read
// simulation state but never mutate it; each component of the returned
// delta is in {-1, 0, 1}.
type policy interface {
	move(s *Simulation, a *Agent) (int, int)
}

func policyFor(m Mode) policy {
	switch m {
	case ModeAvoid:
		return avoidPolicy{}
	case ModeFlock:
		return flockPolicy{}
	case ModeBoids:
		return boidsPolicy{}
	case ModeTrailFollow:
		return trailPolicy{}
	case ModeForage:
		return foragePolicy{}
	case ModePatrol:
		return patrolPolicy{}
	case ModeSwarm:
		return swarmPolicy{}
	case ModeScatter:
		return scatterPolicy{}
	case ModeFindQueen:
		return findQueenPolicy{}
	default:
		return randomPolicy{}
	}
}

func signf(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// randStep picks uniformly from {-1, 0, 1}.
func randStep(rng *rand.Rand) int {
	return rng.Intn(3) - 1
}

// randSign picks uniformly from {-1, 1}, used where standing still would
// leave two agents stacked forever.
func randSign(rng *rand.Rand) int {
	return rng.Intn(2)*2 - 1
}

// ---------------------------------------------------------------------------
// RANDOM
// ---------------------------------------------------------------------------

type randomPolicy struct{}

func (randomPolicy) move(s *Simulation, a *Agent) (int, int) {
	return randStep(s.rng), randStep(s.rng)
}

// ---------------------------------------------------------------------------
// AVOID: pure separation. Back directly away from the closest neighbor when
// crowded, otherwise wander.
// ---------------------------------------------------------------------------

type avoidPolicy struct{}

func (avoidPolicy) move(s *Simulation, a *Agent) (int, int) {
	neighbors := s.agents.NeighborsOf(a.ID, s.cfg.Behavior.NeighborRadius)
	_, closest, ok := s.agents.Closest(neighbors)

	if !ok || closest.Distance >= s.cfg.Behavior.SeparationDistance {
		return randStep(s.rng), randStep(s.rng)
	}

	dx := -signf(closest.DX)
	dy := -signf(closest.DY)
	if dx == 0 {
		dx = randSign(s.rng)
	}
	if dy == 0 {
		dy = randSign(s.rng)
	}

	return dx, dy
}

// ---------------------------------------------------------------------------
// FLOCK: cohesion + separation, no alignment. Isolated agents head for the
// population centroid so nobody drifts away forever.
// ---------------------------------------------------------------------------

type flockPolicy struct{}

func (flockPolicy) move(s *Simulation, a *Agent) (int, int) {
	var dx, dy int

	neighbors := s.agents.NeighborsOf(a.ID, s.cfg.Behavior.NeighborRadius)
	if len(neighbors) == 0 {
		if cx, cy, ok := s.agents.Centroid(); ok {
			dx = signf(cx - float64(a.X))
			dy = signf(cy - float64(a.Y))
		}
	} else {
		crowded := false
		for _, n := range neighbors {
			if n.Distance < s.cfg.Behavior.SeparationDistance {
				// Separation wins over cohesion when crowded.
				dx -= signf(n.DX)
				dy -= signf(n.DY)
				crowded = true
			}
		}
		if crowded {
			dx, dy = signf(float64(dx)), signf(float64(dy))
		} else {
			var sumDX, sumDY float64
			for _, n := range neighbors {
				sumDX += n.DX
				sumDY += n.DY
			}
			dx = signf(sumDX / float64(len(neighbors)))
			dy = signf(sumDY / float64(len(neighbors)))
		}
	}

	// Symmetry breaker: a clump of agents all computing the same move can
	// deadlock into lockstep without this.
	if s.rng.Float64() < 0.25 {
		dx, dy = randStep(s.rng), randStep(s.rng)
	}

	return dx, dy
}

// ---------------------------------------------------------------------------
// BOIDS: full separation/cohesion/alignment with configured weights. Each
// combined axis only moves past a small deadband, which keeps the discrete
// grid version from jittering around equilibrium.
// ---------------------------------------------------------------------------

const boidsDeadband = 0.1

type boidsPolicy struct{}

func (boidsPolicy) move(s *Simulation, a *Agent) (int, int) {
	params := s.cfg.Behavior
	neighbors := s.agents.NeighborsOf(a.ID, params.NeighborRadius)

	var dx, dy int

	if len(neighbors) == 0 {
		dx, dy = randStep(s.rng), randStep(s.rng)
	} else {
		var sepX, sepY, cohX, cohY, aliX, aliY float64

		sepDist := params.SeparationDistance + 1
		for _, n := range neighbors {
			if n.Distance < sepDist {
				weight := 1.0 / math.Max(n.Distance, 0.5)
				sepX -= n.DX * weight
				sepY -= n.DY * weight
			}
		}

		count := float64(len(neighbors))
		for id, n := range neighbors {
			cohX += n.DX
			cohY += n.DY
			if other := s.agents.Get(id); other != nil {
				aliX += float64(other.VX)
				aliY += float64(other.VY)
			}
		}
		cohX /= count
		cohY /= count
		aliX /= count
		aliY /= count

		totalX := sepX*params.SeparationWeight + cohX*params.CohesionWeight + aliX*params.AlignmentWeight
		totalY := sepY*params.SeparationWeight + cohY*params.CohesionWeight + aliY*params.AlignmentWeight

		if math.Abs(totalX) > boidsDeadband {
			dx = signf(totalX)
		}
		if math.Abs(totalY) > boidsDeadband {
			dy = signf(totalY)
		}
	}

	if s.rng.Float64() < 0.15 {
		dx = signf(float64(dx + randStep(s.rng)))
		dy = signf(float64(dy + randStep(s.rng)))
	}

	return dx, dy
}

// ---------------------------------------------------------------------------
// TRAIL_FOLLOW: climb the ghost field. Scans the 8 surrounding cells with a
// pinch of noise to break ties, falling back to a random walk when there is
// no trail worth following.
// ---------------------------------------------------------------------------

const trailFloor = 0.1

type trailPolicy struct{}

func (trailPolicy) move(s *Simulation, a *Agent) (int, int) {
	bestDX, bestDY := 0, 0
	bestValue := math.Inf(-1)

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			x, y := a.X+dx, a.Y+dy
			if x < 0 || x >= s.field.Size || y < 0 || y >= s.field.Size {
				continue
			}

			value := s.field.GhostAt(x, y) + s.rng.Float64()*0.1
			if value > bestValue {
				bestValue = value
				bestDX, bestDY = dx, dy
			}
		}
	}

	if bestValue < trailFloor {
		return randStep(s.rng), randStep(s.rng)
	}

	return bestDX, bestDY
}

// ---------------------------------------------------------------------------
// FORAGE: head for detected food; otherwise follow trails; otherwise wander.
// Hoppers scan twice the detection radius. The recruitment deposit for
// agents actually feeding happens in the tick's deposit step.
// ---------------------------------------------------------------------------

type foragePolicy struct{}

func (foragePolicy) move(s *Simulation, a *Agent) (int, int) {
	radius := s.cfg.Food.DetectionRadius
	if a.Type == AgentHopper {
		radius *= 2
	}

	hits := s.foods.Detect(a.X, a.Y, radius)
	if len(hits) == 0 {
		return trailPolicy{}.move(s, a)
	}

	nearest := hits[0]
	return signf(float64(nearest.Source.X - a.X)), signf(float64(nearest.Source.Y - a.Y))
}

// ---------------------------------------------------------------------------
// PATROL: walk the margin perimeter clockwise. Agents off the ring first
// steer onto it.
// ---------------------------------------------------------------------------

type patrolPolicy struct{}

func (patrolPolicy) move(s *Simulation, a *Agent) (int, int) {
	lo := s.cfg.Simulation.Margin
	hi := s.cfg.Simulation.GridSize - 1 - s.cfg.Simulation.Margin

	onRing := a.X == lo || a.X == hi || a.Y == lo || a.Y == hi
	if !onRing {
		// Steer toward the nearest edge of the ring.
		tx, ty := a.X, a.Y
		if a.X-lo <= hi-a.X {
			tx = lo
		} else {
			tx = hi
		}
		if a.Y-lo <= hi-a.Y {
			ty = lo
		} else {
			ty = hi
		}
		if abs(tx-a.X) <= abs(ty-a.Y) {
			return signf(float64(tx - a.X)), 0
		}
		return 0, signf(float64(ty - a.Y))
	}

	switch {
	case a.Y == lo && a.X < hi:
		return 1, 0
	case a.X == hi && a.Y < hi:
		return 0, 1
	case a.Y == hi && a.X > lo:
		return -1, 0
	default:
		return 0, -1
	}
}

// ---------------------------------------------------------------------------
// SWARM: collapse toward the population centroid, milling randomly once
// close enough.
// ---------------------------------------------------------------------------

type swarmPolicy struct{}

func (swarmPolicy) move(s *Simulation, a *Agent) (int, int) {
	var dx, dy int

	cx, cy, ok := s.agents.Centroid()
	if ok && s.agents.LiveCount() > 1 {
		vx := cx - float64(a.X)
		vy := cy - float64(a.Y)
		if math.Hypot(vx, vy) > 5 {
			dx, dy = signf(vx), signf(vy)
		} else {
			dx, dy = randStep(s.rng), randStep(s.rng)
		}
		if s.rng.Float64() < 0.4 {
			dx, dy = randStep(s.rng), randStep(s.rng)
		}
	} else {
		dx, dy = randStep(s.rng), randStep(s.rng)
	}

	return dx, dy
}

// ---------------------------------------------------------------------------
// SCATTER: flee the grid center.
// ---------------------------------------------------------------------------

type scatterPolicy struct{}

func (scatterPolicy) move(s *Simulation, a *Agent) (int, int) {
	center := s.cfg.Simulation.GridSize / 2
	vx := a.X - center
	vy := a.Y - center

	dx, dy := signf(float64(vx)), signf(float64(vy))
	if dx == 0 {
		dx = randSign(s.rng)
	}
	if dy == 0 {
		dy = randSign(s.rng)
	}

	if s.rng.Float64() < 0.3 {
		dx, dy = randStep(s.rng), randStep(s.rng)
	}

	return dx, dy
}

// ---------------------------------------------------------------------------
// FIND_QUEEN: converge on the fixed queen anchor, orbiting loosely once
// within a few cells.
// ---------------------------------------------------------------------------

type findQueenPolicy struct{}

func (findQueenPolicy) move(s *Simulation, a *Agent) (int, int) {
	vx := s.queen.X() - float64(a.X)
	vy := s.queen.Y() - float64(a.Y)

	if math.Hypot(vx, vy) <= 3 {
		return randStep(s.rng), randStep(s.rng)
	}

	return signf(vx), signf(vy)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
