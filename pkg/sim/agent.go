package sim

import "time"

// TrailCap bounds the per-agent position history; the oldest entry is
// evicted once the cap is reached.
const TrailCap = 20

// AgentType distinguishes movement profiles. Hoppers make longer,
// discontinuous jumps and scan a wider radius for food.
type AgentType string

const (
	AgentWorker AgentType = "worker"
	AgentHopper AgentType = "hopper"
)

// CarryState tracks whether an agent is actively feeding at a source.
type CarryState string

const (
	StateIdle     CarryState = "idle"
	StateCarrying CarryState = "carrying"
)

// Agent is one drone (virtual or physical proxy). Position is an integer
// grid cell, always within bounds; hunger stays clamped to [0, 100].
type Agent struct {
	ID       string
	X, Y     int
	VX, VY   int
	Hunger   float64
	State    CarryState
	Type     AgentType
	Trail    [][2]int
	Alive    bool
	LastSeen time.Time
}

func newAgent(id string, x, y int, typ AgentType) *Agent {
	return &Agent{
		ID:       id,
		X:        x,
		Y:        y,
		Hunger:   100,
		State:    StateIdle,
		Type:     typ,
		Trail:    make([][2]int, 0, TrailCap),
		Alive:    true,
		LastSeen: time.Now(),
	}
}

// moveTo applies an already-clamped position, deriving velocity from the
// realized displacement and appending to the trail.
func (a *Agent) moveTo(x, y int) {
	a.VX = x - a.X
	a.VY = y - a.Y
	a.X = x
	a.Y = y
	a.LastSeen = time.Now()

	a.Trail = append(a.Trail, [2]int{x, y})
	if len(a.Trail) > TrailCap {
		a.Trail = a.Trail[1:]
	}
}

// feed replenishes hunger by the consumed amount, clamped at 100.
func (a *Agent) feed(amount float64) {
	a.Hunger = min(100, a.Hunger+amount)
}

// starve applies hunger decay, clamped at 0.
func (a *Agent) starve(amount float64) {
	a.Hunger = max(0, a.Hunger-amount)
}
