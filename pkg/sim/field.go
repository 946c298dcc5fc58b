package sim

// Rendering thresholds: cells below these values are treated as empty by
// viewers, but are never zeroed in storage (decay is exponential and only
// approaches zero).
const (
	ActiveEpsilon = 5.0
	GhostEpsilon  = 10.0
)

// Field holds the two pheromone layers: the active grid (fast decay,
// short-term signal) and the ghost grid (slow decay, long-term memory trace).
// Both are square, same size as the world, and never hold negative values.
type Field struct {
	Size          int
	active        [][]float64
	ghost         [][]float64
	ceiling       float64
	decayRate     float64
	ghostDecay    float64
	ghostFraction float64
}

// NewField creates an empty field pair. Every deposit saturates at ceiling;
// the ghost grid receives ghostFraction of each deposit.
func NewField(size int, ceiling, decayRate, ghostDecay, ghostFraction float64) *Field {
	active := make([][]float64, size)
	ghost := make([][]float64, size)
	for i := range active {
		active[i] = make([]float64, size)
		ghost[i] = make([]float64, size)
	}

	return &Field{
		Size:          size,
		active:        active,
		ghost:         ghost,
		ceiling:       ceiling,
		decayRate:     decayRate,
		ghostDecay:    ghostDecay,
		ghostFraction: ghostFraction,
	}
}

// Deposit adds amount to the active cell and a fraction of it to the ghost
// cell, both saturating at the ceiling. Coordinates must already be clamped
// by the caller; the field does no bounds policing of its own.
func (f *Field) Deposit(x, y int, amount float64) {
	f.active[x][y] = min(f.ceiling, f.active[x][y]+amount)
	f.ghost[x][y] = min(f.ceiling, f.ghost[x][y]+amount*f.ghostFraction)
}

// DecayAll multiplies every cell by its layer's decay rate. Values shrink
// exponentially and never reach exactly zero.
func (f *Field) DecayAll() {
	for x := range f.active {
		for y := range f.active[x] {
			f.active[x][y] *= f.decayRate
			f.ghost[x][y] *= f.ghostDecay
		}
	}
}

// At returns the current active value at a cell.
func (f *Field) At(x, y int) float64 {
	return f.active[x][y]
}

// GhostAt returns the current ghost value at a cell.
func (f *Field) GhostAt(x, y int) float64 {
	return f.ghost[x][y]
}

// DecayRate reports the active layer's current decay rate.
func (f *Field) DecayRate() float64 {
	return f.decayRate
}

// SetDecayRate adjusts the active layer's decay rate at runtime.
func (f *Field) SetDecayRate(rate float64) {
	if rate > 0 && rate < 1 {
		f.decayRate = rate
	}
}

// CoverageCount returns the number of ghost cells that have ever been
// touched, used for the coverage metric.
func (f *Field) CoverageCount() int {
	count := 0
	for x := range f.ghost {
		for y := range f.ghost[x] {
			if f.ghost[x][y] > 0 {
				count++
			}
		}
	}
	return count
}

// CopyActive returns a deep copy of the active grid for snapshots.
func (f *Field) CopyActive() [][]float64 {
	return copyGrid(f.active)
}

// CopyGhost returns a deep copy of the ghost grid for snapshots.
func (f *Field) CopyGhost() [][]float64 {
	return copyGrid(f.ghost)
}

func copyGrid(src [][]float64) [][]float64 {
	dst := make([][]float64, len(src))
	for i := range src {
		dst[i] = make([]float64, len(src[i]))
		copy(dst[i], src[i])
	}
	return dst
}
