package sim

import "math"

// Registry holds the live and dead agent sets. Iteration over live agents
// follows spawn order so a tick visits everyone deterministically. Death is
// one-way: a dead agent is never resurrected back into the live set.
type Registry struct {
	order []string
	live  map[string]*Agent
	dead  map[string]*Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		live: make(map[string]*Agent),
		dead: make(map[string]*Agent),
	}
}

// Add registers a freshly spawned agent.
func (r *Registry) Add(a *Agent) {
	r.order = append(r.order, a.ID)
	r.live[a.ID] = a
}

// Get returns a live agent by id, or nil.
func (r *Registry) Get(id string) *Agent {
	return r.live[id]
}

// Live returns the live agents in spawn order.
func (r *Registry) Live() []*Agent {
	out := make([]*Agent, 0, len(r.live))
	for _, id := range r.order {
		if a, ok := r.live[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// LiveCount returns the number of live agents.
func (r *Registry) LiveCount() int {
	return len(r.live)
}

// Dead returns the dead set keyed by id.
func (r *Registry) Dead() map[string]*Agent {
	return r.dead
}

// Kill moves an agent from the live registry to the dead registry.
func (r *Registry) Kill(id string) *Agent {
	a, ok := r.live[id]
	if !ok {
		return nil
	}

	a.Alive = false
	delete(r.live, id)
	r.dead[id] = a

	return a
}

// Centroid returns the mean live position, and false when empty.
func (r *Registry) Centroid() (float64, float64, bool) {
	if len(r.live) == 0 {
		return 0, 0, false
	}

	var sx, sy float64
	for _, a := range r.live {
		sx += float64(a.X)
		sy += float64(a.Y)
	}
	n := float64(len(r.live))

	return sx / n, sy / n, true
}

// Neighbor describes one agent relative to another. Direction offsets are
// exact, not quantized: behavior policies take the sign of dx/dy to pick a
// discrete move, so rounding here would bias every decision.
type Neighbor struct {
	Distance float64
	DX       float64
	DY       float64
}

// NeighborsOf returns every other live agent within maxDistance of the given
// agent, keyed by id. A linear scan is fine at swarm scale (tens to low
// hundreds of agents per tick).
func (r *Registry) NeighborsOf(id string, maxDistance float64) map[string]Neighbor {
	me, ok := r.live[id]
	if !ok {
		return nil
	}

	neighbors := make(map[string]Neighbor)
	for otherID, other := range r.live {
		if otherID == id {
			continue
		}

		dx := float64(other.X - me.X)
		dy := float64(other.Y - me.Y)
		dist := math.Hypot(dx, dy)

		if dist > 0 && dist <= maxDistance {
			neighbors[otherID] = Neighbor{Distance: dist, DX: dx, DY: dy}
		}
	}

	return neighbors
}

// Closest picks the minimum-distance neighbor, scanning in spawn order so
// the first minimum found wins. Exact ties are not specially resolved.
func (r *Registry) Closest(neighbors map[string]Neighbor) (string, Neighbor, bool) {
	var (
		bestID string
		best   Neighbor
		found  bool
	)

	for _, id := range r.order {
		n, ok := neighbors[id]
		if !ok {
			continue
		}
		if !found || n.Distance < best.Distance {
			bestID, best, found = id, n, true
		}
	}

	return bestID, best, found
}
