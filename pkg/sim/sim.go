package sim

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/alcionai/clues"
	"github.com/alcionai/clues/clog"
	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/slimehive/hivesim/pkg/snapshot"
)

// RunState is the loop's two-state machine.
type RunState int

const (
	StateRunning RunState = iota
	StateTerminated
)

// StopReason records why the loop terminated. Extinction is a successful
// terminal state, not an error, and must stay distinguishable from an
// ordinary duration-based completion.
type StopReason string

const (
	ReasonCompleted  StopReason = "completed"
	ReasonExtinction StopReason = "extinction"
	ReasonStopped    StopReason = "stopped"
)

// MarkerType tags event log entries.
type MarkerType string

const (
	MarkerDeath MarkerType = "death"
	MarkerFood  MarkerType = "food"
	MarkerSmell MarkerType = "smell"
)

// Marker is one append-only event log entry; never mutated after creation.
type Marker struct {
	ID        string
	X, Y      int
	Tick      int
	Type      MarkerType
	AgentID   string
	AgentType AgentType
}

// Each unit of food restores this much hunger.
const hungerPerFood = 10.0

// Simulation owns all mutable state for one run: field grids, registries,
// food, markers and the active policy. There are no package-level globals;
// every subsystem call goes through this context object, and exactly one
// goroutine (the tick loop) ever mutates it.
type Simulation struct {
	cfg    Config
	rng    *rand.Rand
	field  *Field
	agents *Registry
	foods  *FoodStore

	mode   Mode
	policy policy

	tick    int
	state   RunState
	reason  StopReason
	markers []Marker
	samples []Sample

	bound orb.Bound
	queen orb.Point

	deposit      float64
	ghostDeposit float64
	boost        float64
	deathMode    string

	sessionID string
	startTime time.Time
}

// New validates the configuration and builds a ready-to-run simulation with
// its initial population and food layout.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, clues.Wrap(err, "invalid configuration")
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	mode, err := ParseMode(cfg.Drones.BehaviorMode)
	if err != nil {
		return nil, err
	}

	size := cfg.Simulation.GridSize
	margin := cfg.Simulation.Margin

	ghostFraction := 0.0
	if cfg.Pheromones.DepositAmount > 0 {
		ghostFraction = cfg.Pheromones.GhostDeposit / cfg.Pheromones.DepositAmount
	}

	s := &Simulation{
		cfg: cfg,
		rng: rng,
		field: NewField(
			size,
			cfg.Pheromones.Ceiling,
			cfg.Pheromones.DecayRate,
			cfg.Pheromones.GhostDecayRate,
			ghostFraction),
		agents: NewRegistry(),
		foods:  NewFoodStore(spawnFood(rng, cfg), cfg.Food.Regen, cfg.Food.RegenRate),
		mode:   mode,
		policy: policyFor(mode),
		bound: orb.Bound{
			Min: orb.Point{float64(margin), float64(margin)},
			Max: orb.Point{float64(size - 1 - margin), float64(size - 1 - margin)},
		},
		queen:        orb.Point{float64(size) / 2, float64(size) / 2},
		deposit:      cfg.Pheromones.DepositAmount,
		ghostDeposit: cfg.Pheromones.GhostDeposit,
		boost:        cfg.Pheromones.Boost,
		deathMode:    cfg.Drones.DeathMode,
		sessionID:    uuid.NewString(),
	}

	for _, a := range spawnAgents(rng, cfg) {
		s.agents.Add(a)
	}

	return s, nil
}

// Accessors used by policies, metrics and tests.

func (s *Simulation) Tick() int             { return s.tick }
func (s *Simulation) State() RunState       { return s.state }
func (s *Simulation) Reason() StopReason    { return s.reason }
func (s *Simulation) Mode() Mode            { return s.mode }
func (s *Simulation) Field() *Field         { return s.field }
func (s *Simulation) Agents() *Registry     { return s.agents }
func (s *Simulation) Foods() *FoodStore     { return s.foods }
func (s *Simulation) Markers() []Marker     { return s.markers }
func (s *Simulation) Samples() []Sample     { return s.samples }
func (s *Simulation) Boundary() orb.Bound   { return s.bound }
func (s *Simulation) QueenPoint() orb.Point { return s.queen }

// SetMode swaps the shared behavior policy between ticks.
func (s *Simulation) SetMode(m Mode) {
	s.mode = m
	s.policy = policyFor(m)
}

// Step advances the simulation by exactly one tick. A tick runs to
// completion before anything can observe the state, so subsystems never see
// a half-updated world.
func (s *Simulation) Step(ctx context.Context) {
	if s.state == StateTerminated {
		return
	}
	s.tick++

	// 1. Move every live agent.
	for _, a := range s.agents.Live() {
		s.stepAgent(a)
	}

	// 2. Food consumption and regeneration.
	for _, a := range s.agents.Live() {
		s.consumeFood(a)
	}
	s.foods.Regenerate()

	// 3. Deposit pheromone at each agent's new cell.
	for _, a := range s.agents.Live() {
		amount := s.deposit
		if s.mode == ModeForage && a.State == StateCarrying {
			// Recruitment: feeding agents shout louder so trail followers
			// get drawn in.
			amount *= s.boost
		}
		s.field.Deposit(a.X, a.Y, amount)
	}

	// 4. Global decay.
	s.field.DecayAll()

	// 5. Hunger and death.
	s.applyHunger(ctx)

	// 6. Extinction ends the run early no matter how much configured
	// duration remains. Metrics sampling and snapshot writes run at their
	// own cadences in Run.
	if s.agents.LiveCount() == 0 {
		clog.Ctx(ctx).Infow("swarm extinct, terminating early",
			"tick", s.tick,
			"dead", len(s.agents.Dead()))
		s.terminate(ReasonExtinction)
	}
}

// stepAgent runs one agent's movement: policy, hopper stretch, clamp,
// velocity and trail bookkeeping.
func (s *Simulation) stepAgent(a *Agent) {
	if s.rng.Float64() > s.cfg.Behavior.MoveProbability {
		return
	}

	dx, dy := s.policy.move(s, a)

	// Hoppers occasionally stretch a step into a multi-cell jump.
	if a.Type == AgentHopper && (dx != 0 || dy != 0) && s.rng.Float64() < s.cfg.Behavior.HopChance {
		dx *= s.cfg.Behavior.HopLength
		dy *= s.cfg.Behavior.HopLength
	}

	lo := s.cfg.Simulation.Margin
	hi := s.cfg.Simulation.GridSize - 1 - s.cfg.Simulation.Margin

	nx := clamp(a.X+dx, lo, hi)
	ny := clamp(a.Y+dy, lo, hi)

	a.moveTo(nx, ny)
}

// consumeFood lets an agent feed from the first in-range source and tracks
// the carrying state plus the food/smell event markers.
func (s *Simulation) consumeFood(a *Agent) {
	src, bite := s.foods.Consume(a.X, a.Y, s.cfg.Food.ConsumptionRate)
	if src == nil {
		a.State = StateIdle
		return
	}

	a.feed(bite * hungerPerFood)

	if a.State == StateIdle {
		// First contact with this meal: drop a scent event for the history
		// overlay.
		s.addMarker(MarkerSmell, a.X, a.Y, a)
	}
	a.State = StateCarrying

	if src.Consumed {
		s.addMarker(MarkerFood, src.X, src.Y, a)
	}
}

// applyHunger decays every live agent and handles the configured death
// mode. Death is terminal: agents move to the dead registry and never
// return. Respawn mode trades death for a fresh start instead.
func (s *Simulation) applyHunger(ctx context.Context) {
	for _, a := range s.agents.Live() {
		a.starve(s.cfg.Drones.HungerDecay)
		if a.Hunger > 0 {
			continue
		}

		switch s.deathMode {
		case "yes":
			s.addMarker(MarkerDeath, a.X, a.Y, a)
			s.agents.Kill(a.ID)
			clog.Ctx(ctx).Debugw("agent starved",
				"agent_id", a.ID,
				"tick", s.tick,
				"remaining", s.agents.LiveCount())

		case "respawn":
			pos := spawnPositions(
				s.rng,
				s.cfg.Drones.SpawnPattern,
				1,
				s.cfg.Simulation.GridSize,
				s.cfg.Simulation.Margin)[0]
			s.addMarker(MarkerDeath, a.X, a.Y, a)
			a.X, a.Y = pos[0], pos[1]
			a.VX, a.VY = 0, 0
			a.Hunger = 100
			a.Trail = a.Trail[:0]
		}
	}
}

func (s *Simulation) addMarker(typ MarkerType, x, y int, a *Agent) {
	m := Marker{
		ID:   uuid.NewString(),
		X:    x,
		Y:    y,
		Tick: s.tick,
		Type: typ,
	}
	if a != nil {
		m.AgentID = a.ID
		m.AgentType = a.Type
	}
	s.markers = append(s.markers, m)
}

func (s *Simulation) terminate(reason StopReason) {
	if s.state == StateTerminated {
		return
	}
	s.state = StateTerminated
	s.reason = reason
}

// applyLiveConfig folds runtime tuning from the dashboard into the running
// simulation. Bad values are clamped or ignored; a tuning file must never
// kill a run.
func (s *Simulation) applyLiveConfig(ctx context.Context, lc *LiveConfig) {
	if lc == nil {
		return
	}

	if lc.DecayRate != nil {
		s.field.SetDecayRate(clampf(*lc.DecayRate, 0.1, 0.9999))
	}
	if lc.DepositAmount != nil {
		s.deposit = clampf(*lc.DepositAmount, 0, 20)
	}
	if lc.GhostDeposit != nil {
		s.ghostDeposit = clampf(*lc.GhostDeposit, 0, 5)
		if s.deposit > 0 {
			s.field.ghostFraction = s.ghostDeposit / s.deposit
		}
	}
	if lc.DetectionRadius != nil {
		s.cfg.Food.DetectionRadius = clampf(*lc.DetectionRadius, 5, 50)
	}
	if lc.PheromoneBoost != nil {
		s.boost = clampf(*lc.PheromoneBoost, 1, 10)
	}
	if lc.DeathMode != nil {
		switch *lc.DeathMode {
		case "yes", "no", "respawn":
			s.deathMode = *lc.DeathMode
		}
	}
	if lc.Mode != nil {
		if m, err := ParseMode(*lc.Mode); err == nil && m != s.mode {
			clog.Ctx(ctx).Infow("behavior mode switched", "from", s.mode.String(), "to", m.String())
			s.SetMode(m)
		}
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// moodFor maps the active decay rate onto the dashboard's mood indicator.
func moodFor(decay float64) string {
	switch {
	case decay >= 0.98:
		return "MELLOW"
	case decay >= 0.95:
		return "STEADY"
	case decay >= 0.90:
		return "RESTLESS"
	default:
		return "FRENZIED"
	}
}

// CaptureState builds a live-state snapshot of the whole simulation.
func (s *Simulation) CaptureState() *snapshot.State {
	now := float64(time.Now().UnixNano()) / 1e9

	drones := make(map[string]snapshot.Drone, s.agents.LiveCount())
	for _, a := range s.agents.Live() {
		drones[a.ID] = droneRecord(a, true)
	}

	dead := make(map[string]snapshot.Drone, len(s.agents.Dead()))
	for id, a := range s.agents.Dead() {
		dead[id] = droneRecord(a, false)
	}

	food := make([]snapshot.Food, 0, len(s.foods.Sources()))
	for _, src := range s.foods.Sources() {
		food = append(food, snapshot.Food{
			ID:        src.ID,
			X:         src.X,
			Y:         src.Y,
			Amount:    src.Amount,
			MaxAmount: src.MaxAmount,
			Radius:    src.Radius,
			Consumed:  src.Consumed,
		})
	}

	markers := make([]snapshot.Marker, 0, len(s.markers))
	for _, m := range s.markers {
		markers = append(markers, snapshot.Marker{
			ID:        m.ID,
			X:         m.X,
			Y:         m.Y,
			Tick:      m.Tick,
			Type:      string(m.Type),
			AgentID:   m.AgentID,
			AgentType: string(m.AgentType),
		})
	}

	st := &snapshot.State{
		Tick:       s.tick,
		Timestamp:  now,
		Grid:       s.field.CopyActive(),
		GhostGrid:  s.field.CopyGhost(),
		Drones:     drones,
		DeadDrones: dead,
		Food:       food,
		Markers:    markers,
		SimMode:    s.mode.String(),
		Mood:       moodFor(s.field.DecayRate()),
		DecayRate:  s.field.DecayRate(),
		Boundary: snapshot.Boundary{
			MinX: int(s.bound.Min.X()),
			MinY: int(s.bound.Min.Y()),
			MaxX: int(s.bound.Max.X()),
			MaxY: int(s.bound.Max.Y()),
		},
		Queen: snapshot.Point{X: int(s.queen.X()), Y: int(s.queen.Y())},
	}

	if s.state == StateTerminated {
		st.Reason = string(s.reason)
	}

	return st
}

func droneRecord(a *Agent, withTrail bool) snapshot.Drone {
	d := snapshot.Drone{
		X:        a.X,
		Y:        a.Y,
		VX:       a.VX,
		VY:       a.VY,
		Hunger:   a.Hunger,
		State:    string(a.State),
		Type:     string(a.Type),
		LastSeen: float64(a.LastSeen.UnixNano()) / 1e9,
	}
	if withTrail {
		d.Trail = append([][2]int(nil), a.Trail...)
	}
	return d
}

// captureKeyframe builds the reduced recording sample.
func (s *Simulation) captureKeyframe() snapshot.Keyframe {
	drones := make(map[string]snapshot.Drone, s.agents.LiveCount())
	for _, a := range s.agents.Live() {
		drones[a.ID] = droneRecord(a, false)
	}

	food := make([]snapshot.Food, 0, len(s.foods.Sources()))
	for _, src := range s.foods.Sources() {
		food = append(food, snapshot.Food{
			ID:        src.ID,
			X:         src.X,
			Y:         src.Y,
			Amount:    src.Amount,
			MaxAmount: src.MaxAmount,
			Radius:    src.Radius,
			Consumed:  src.Consumed,
		})
	}

	return snapshot.Keyframe{
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Tick:      s.tick,
		Drones:    drones,
		Food:      food,
	}
}

// Run drives the tick loop at the configured wall-clock rate until the
// duration elapses, the swarm goes extinct, or ctx is cancelled between
// ticks. Overruns are not compensated: a slow tick just lowers the
// effective rate, it never corrupts state. Returns the final state.
func (s *Simulation) Run(ctx context.Context) (*snapshot.State, error) {
	tickRate := s.cfg.Simulation.TickRate
	totalTicks := tickRate * s.cfg.Simulation.DurationSeconds
	interval := time.Second / time.Duration(tickRate)

	baseDir := s.cfg.Recording.OutputDir
	statePath := filepath.Join(baseDir, "hive_state.json")
	liveConfigPath := filepath.Join(baseDir, "hive_config_live.json")
	stamp := time.Now().Format("2006-01-02_150405")

	clog.Ctx(ctx).Infow("simulation starting",
		"session_id", s.sessionID,
		"mode", s.mode.String(),
		"drones", s.cfg.Drones.Count,
		"grid", fmt.Sprintf("%dx%d", s.field.Size, s.field.Size),
		"tick_rate", tickRate,
		"duration_s", s.cfg.Simulation.DurationSeconds,
		"spawn", s.cfg.Drones.SpawnPattern,
		"food_sources", len(s.foods.Sources()))

	var flightLog *snapshot.FlightLog
	if s.cfg.Metrics.Enabled && s.cfg.Metrics.FlightLog {
		fl, err := snapshot.NewFlightLog(baseDir, stamp)
		if err != nil {
			// Flight logging is a side channel; losing it should not stop
			// the run.
			clog.CtxErr(ctx, err).Errorw("flight log disabled")
		} else {
			flightLog = fl
			defer flightLog.Close()
		}
	}

	var recording *snapshot.Recording
	if s.cfg.Recording.Enabled {
		recording = &snapshot.Recording{
			Meta: snapshot.Meta{
				SessionID:       s.sessionID,
				Mode:            s.mode.String(),
				DroneCount:      s.cfg.Drones.Count,
				DurationSeconds: s.cfg.Simulation.DurationSeconds,
				GridSize:        s.field.Size,
				CreatedAt:       float64(time.Now().UnixNano()) / 1e9,
			},
		}
	}

	s.startTime = time.Now()

	for s.tick < totalTicks && s.state == StateRunning {
		select {
		case <-ctx.Done():
			clog.Ctx(ctx).Infow("stop requested between ticks", "tick", s.tick)
			s.terminate(ReasonStopped)
		default:
		}
		if s.state == StateTerminated {
			break
		}

		tickStart := time.Now()

		s.Step(ctx)

		if s.cfg.Metrics.Enabled && s.tick%s.cfg.Metrics.SampleRate == 0 {
			sample := s.collect()
			sample.Time = time.Since(s.startTime).Seconds()
			s.samples = append(s.samples, sample)

			if flightLog != nil {
				s.recordFlightRows(ctx, flightLog)
			}

			// Progress report once a simulated second.
			if s.tick%tickRate == 0 {
				clog.Ctx(ctx).Infow("progress",
					"tick", s.tick,
					"pct", fmt.Sprintf("%.1f", float64(s.tick)/float64(totalTicks)*100),
					"spread", fmt.Sprintf("%.1f", sample.SwarmSpread),
					"nearest", fmt.Sprintf("%.1f", sample.AvgNearestNeighbor),
					"collisions", sample.Collisions,
					"coverage_pct", fmt.Sprintf("%.1f", sample.CoveragePercent),
					"alive", sample.DroneCount)
			}
		}

		if s.tick%s.cfg.Recording.SnapshotEvery == 0 {
			if err := snapshot.Write(statePath, s.CaptureState()); err != nil {
				clog.CtxErr(ctx, err).Errorw("snapshot write failed")
			}
		}

		if recording != nil && s.tick%s.cfg.Recording.KeyframeEvery == 0 {
			recording.Append(s.captureKeyframe())
		}

		// Live tuning pickup once a simulated second.
		if s.tick%tickRate == 0 {
			lc, err := LoadLiveConfig(liveConfigPath)
			if err != nil {
				// Transient: log it, skip it, keep ticking.
				clog.CtxErr(ctx, err).Errorw("live config skipped")
			} else {
				s.applyLiveConfig(ctx, lc)
			}
		}

		// Sleep out the remainder of the tick budget. No catch-up ticks.
		if elapsed := time.Since(tickStart); elapsed < interval {
			time.Sleep(interval - elapsed)
		}
	}

	if s.state == StateRunning {
		s.terminate(ReasonCompleted)
	}

	final := s.CaptureState()

	totalTime := time.Since(s.startTime).Seconds()
	effective := 0.0
	if totalTime > 0 {
		effective = float64(s.tick) / totalTime
	}
	clog.Ctx(ctx).Infow("simulation terminated",
		"reason", string(s.reason),
		"ticks", s.tick,
		"duration_s", fmt.Sprintf("%.2f", totalTime),
		"effective_tick_rate", fmt.Sprintf("%.1f", effective),
		"alive", s.agents.LiveCount(),
		"dead", len(s.agents.Dead()))

	if err := snapshot.Write(statePath, final); err != nil {
		return final, clues.Wrap(err, "writing final snapshot")
	}

	archivePath := filepath.Join(
		baseDir,
		"snapshots",
		fmt.Sprintf("hive_state_ARCHIVE_%s.json", stamp))
	if err := snapshot.Write(archivePath, final); err != nil {
		clog.CtxErr(ctx, err).Errorw("archive snapshot failed")
	}

	if s.cfg.Metrics.Enabled && s.cfg.Metrics.ExportCSV {
		path, err := ExportMetricsCSV(
			filepath.Join(baseDir, "analysis", "metrics"),
			s.mode,
			s.cfg.Drones.Count,
			stamp,
			s.samples)
		if err != nil {
			clog.CtxErr(ctx, err).Errorw("metrics export failed")
		} else if path != "" {
			clog.Ctx(ctx).Infow("metrics exported", "path", path)
		}
	}

	if recording != nil {
		recording.Append(s.captureKeyframe())
		path := filepath.Join(
			baseDir,
			"recordings",
			fmt.Sprintf("sim_%s_%ddrones_%s.slimehive", s.mode, s.cfg.Drones.Count, stamp))
		if err := recording.WriteFile(path); err != nil {
			clog.CtxErr(ctx, err).Errorw("recording export failed")
		} else {
			clog.Ctx(ctx).Infow("recording exported", "path", path)
		}
	}

	return final, nil
}

// recordFlightRows appends one flight log row per live agent. Virtual
// drones have no radio, so RSSI is a fixed strong-signal placeholder.
func (s *Simulation) recordFlightRows(ctx context.Context, fl *snapshot.FlightLog) {
	ts := float64(time.Now().UnixNano()) / 1e9
	for _, a := range s.agents.Live() {
		intensity := int(s.field.At(a.X, a.Y))
		if err := fl.Record(ts, a.ID, a.X, a.Y, intensity, -50); err != nil {
			clog.CtxErr(ctx, err).Errorw("flight log row skipped", "agent_id", a.ID)
			return
		}
	}
}
