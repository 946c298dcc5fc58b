package sim

import (
	"math"
	"sort"
)

// FoodSource is a depletable point resource. Amount only decreases under
// consumption; Consumed flips to true exactly once, when the amount hits
// zero, and stays true. Consumed sources remain in the collection for
// rendering history but are excluded from detection.
type FoodSource struct {
	ID        string
	X, Y      int
	Radius    float64
	Amount    float64
	MaxAmount float64
	Consumed  bool
}

// FoodHit pairs a detected source with its distance from the querying agent.
type FoodHit struct {
	Source   *FoodSource
	Distance float64
}

// FoodStore owns the food sources in spawn order.
type FoodStore struct {
	sources   []*FoodSource
	regen     bool
	regenRate float64
}

// NewFoodStore wraps a list of sources. When regen is enabled each source
// regains regenRate per tick up to its max, independent of consumption.
func NewFoodStore(sources []*FoodSource, regen bool, regenRate float64) *FoodStore {
	return &FoodStore{sources: sources, regen: regen, regenRate: regenRate}
}

// Sources returns the full collection, consumed entries included.
func (fs *FoodStore) Sources() []*FoodSource {
	return fs.sources
}

// Detect returns unconsumed sources within detectionRadius of (ax, ay),
// sorted ascending by distance. Equidistant sources keep list order.
func (fs *FoodStore) Detect(ax, ay int, detectionRadius float64) []FoodHit {
	var hits []FoodHit
	for _, src := range fs.sources {
		if src.Consumed {
			continue
		}
		dist := math.Hypot(float64(src.X-ax), float64(src.Y-ay))
		if dist <= detectionRadius {
			hits = append(hits, FoodHit{Source: src, Distance: dist})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	return hits
}

// Consume feeds the agent at (ax, ay) from the first source in list order
// within radius+1 — deliberately first-match, not nearest-match, since the
// recruitment behavior downstream depends on that ordering. The bite scales
// down with distance from the source center, so a centered agent depletes
// faster. Returns the source and the amount actually consumed.
func (fs *FoodStore) Consume(ax, ay int, rate float64) (*FoodSource, float64) {
	for _, src := range fs.sources {
		if src.Consumed {
			continue
		}

		dist := math.Hypot(float64(src.X-ax), float64(src.Y-ay))
		if dist > src.Radius+1 {
			continue
		}

		bite := rate * (1 - dist/(src.Radius+2))
		if bite >= src.Amount {
			bite = src.Amount
			src.Amount = 0
			src.Consumed = true
		} else {
			src.Amount -= bite
		}

		return src, bite
	}

	return nil, 0
}

// Regenerate applies the per-tick additive regrowth step to every
// still-unconsumed source, capped at max.
func (fs *FoodStore) Regenerate() {
	if !fs.regen {
		return
	}
	for _, src := range fs.sources {
		if src.Consumed {
			continue
		}
		src.Amount = min(src.MaxAmount, src.Amount+fs.regenRate)
	}
}

// Remaining sums the amount left across all sources.
func (fs *FoodStore) Remaining() float64 {
	var total float64
	for _, src := range fs.sources {
		total += src.Amount
	}
	return total
}
