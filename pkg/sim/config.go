package sim

import (
	"encoding/json"
	"os"

	"github.com/alcionai/clues"
)

// Config mirrors the simulation.json layout used across the project; the
// file format stays JSON so non-Go consumers keep working. Decoding a file
// over DefaultConfig gives merge-with-defaults semantics for free.
type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Drones     DronesConfig     `json:"drones"`
	Behavior   BehaviorParams   `json:"behavior_params"`
	Pheromones PheromoneConfig  `json:"pheromones"`
	Food       FoodConfig       `json:"food"`
	Metrics    MetricsConfig    `json:"metrics"`
	Recording  RecordingConfig  `json:"recording"`
}

type SimulationConfig struct {
	TickRate        int   `json:"tick_rate"`
	DurationSeconds int   `json:"duration_seconds"`
	GridSize        int   `json:"grid_size"`
	Margin          int   `json:"margin"`
	Seed            int64 `json:"seed"`
}

type DronesConfig struct {
	Count        int     `json:"count"`
	SpawnPattern string  `json:"spawn_pattern"`
	BehaviorMode string  `json:"behavior_mode"`
	HopperRatio  float64 `json:"hopper_ratio"`
	DeathMode    string  `json:"death_mode"` // no | yes | respawn
	HungerDecay  float64 `json:"hunger_decay"`
}

type BehaviorParams struct {
	SeparationDistance float64 `json:"separation_distance"`
	SeparationWeight   float64 `json:"separation_weight"`
	CohesionWeight     float64 `json:"cohesion_weight"`
	AlignmentWeight    float64 `json:"alignment_weight"`
	NeighborRadius     float64 `json:"neighbor_radius"`
	MoveProbability    float64 `json:"move_probability"`
	HopLength          int     `json:"hop_length"`
	HopChance          float64 `json:"hop_chance"`
}

type PheromoneConfig struct {
	DepositAmount  float64 `json:"deposit_amount"`
	GhostDeposit   float64 `json:"ghost_deposit"`
	DecayRate      float64 `json:"decay_rate"`
	GhostDecayRate float64 `json:"ghost_decay_rate"`
	Ceiling        float64 `json:"ceiling"`
	Boost          float64 `json:"pheromone_boost"`
}

type FoodConfig struct {
	Count           int     `json:"count"`
	Amount          float64 `json:"amount"`
	Radius          float64 `json:"radius"`
	Spread          string  `json:"spread_pattern"`
	DetectionRadius float64 `json:"detection_radius"`
	ConsumptionRate float64 `json:"consumption_rate"`
	Regen           bool    `json:"regen"`
	RegenRate       float64 `json:"regen_rate"`
}

type MetricsConfig struct {
	Enabled    bool `json:"enabled"`
	SampleRate int  `json:"sample_rate"`
	ExportCSV  bool `json:"export_csv"`
	FlightLog  bool `json:"flight_log"`
}

type RecordingConfig struct {
	Enabled       bool   `json:"enabled"`
	OutputDir     string `json:"output_dir"`
	SnapshotEvery int    `json:"snapshot_every"` // ticks between live-state writes
	KeyframeEvery int    `json:"keyframe_every"` // ticks between recording keyframes
	ExportImage   bool   `json:"export_image"`
}

// DefaultConfig returns the stock tuning for a 100x100 world.
func DefaultConfig() Config {
	return Config{
		Simulation: SimulationConfig{
			TickRate:        30,
			DurationSeconds: 60,
			GridSize:        100,
			Margin:          10,
		},
		Drones: DronesConfig{
			Count:        20,
			SpawnPattern: "random",
			BehaviorMode: "BOIDS",
			HopperRatio:  0.2,
			DeathMode:    "no",
			HungerDecay:  0.05,
		},
		Behavior: BehaviorParams{
			SeparationDistance: 3,
			SeparationWeight:   2.0,
			CohesionWeight:     0.5,
			AlignmentWeight:    1.0,
			NeighborRadius:     15,
			MoveProbability:    1.0,
			HopLength:          3,
			HopChance:          0.2,
		},
		Pheromones: PheromoneConfig{
			DepositAmount:  5.0,
			GhostDeposit:   0.5,
			DecayRate:      0.95,
			GhostDecayRate: 0.999,
			Ceiling:        255,
			Boost:          3.0,
		},
		Food: FoodConfig{
			Count:           5,
			Amount:          100,
			Radius:          3,
			Spread:          "random",
			DetectionRadius: 20,
			ConsumptionRate: 1.0,
			Regen:           false,
			RegenRate:       0.1,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			SampleRate: 1,
			ExportCSV:  true,
			FlightLog:  false,
		},
		Recording: RecordingConfig{
			Enabled:       false,
			OutputDir:     ".",
			SnapshotEvery: 5,
			KeyframeEvery: 10,
			ExportImage:   false,
		},
	}
}

// LoadConfig reads a JSON config file over the defaults. A missing file is
// not an error; everything simply runs on defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, clues.Wrap(err, "reading config file").With("path", path)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, clues.Wrap(err, "parsing config file").With("path", path)
	}

	return cfg, nil
}

// Validate rejects out-of-range parameters before the loop ever starts.
// A half-run simulation with a zero grid helps no one.
func (c Config) Validate() error {
	if c.Simulation.GridSize <= 0 {
		return clues.New("grid size must be positive").With("grid_size", c.Simulation.GridSize)
	}
	if c.Simulation.TickRate <= 0 {
		return clues.New("tick rate must be positive").With("tick_rate", c.Simulation.TickRate)
	}
	if c.Simulation.DurationSeconds <= 0 {
		return clues.New("duration must be positive").With("duration_seconds", c.Simulation.DurationSeconds)
	}
	if c.Simulation.Margin < 0 || c.Simulation.Margin*2 >= c.Simulation.GridSize {
		return clues.New("margin must fit inside the grid").
			With("margin", c.Simulation.Margin).
			With("grid_size", c.Simulation.GridSize)
	}
	if c.Drones.Count <= 0 {
		return clues.New("drone count must be positive").With("count", c.Drones.Count)
	}
	if c.Drones.HopperRatio < 0 || c.Drones.HopperRatio > 1 {
		return clues.New("hopper ratio must be within [0,1]").With("hopper_ratio", c.Drones.HopperRatio)
	}
	if _, err := ParseMode(c.Drones.BehaviorMode); err != nil {
		return err
	}
	switch c.Drones.DeathMode {
	case "no", "yes", "respawn":
	default:
		return clues.New("unknown death mode").With("death_mode", c.Drones.DeathMode)
	}
	if c.Behavior.NeighborRadius <= 0 {
		return clues.New("neighbor radius must be positive").With("neighbor_radius", c.Behavior.NeighborRadius)
	}
	if c.Behavior.SeparationDistance < 0 {
		return clues.New("separation distance must not be negative").
			With("separation_distance", c.Behavior.SeparationDistance)
	}
	if c.Behavior.MoveProbability < 0 || c.Behavior.MoveProbability > 1 {
		return clues.New("move probability must be within [0,1]").
			With("move_probability", c.Behavior.MoveProbability)
	}
	if c.Pheromones.DecayRate <= 0 || c.Pheromones.DecayRate >= 1 {
		return clues.New("decay rate must be within (0,1)").With("decay_rate", c.Pheromones.DecayRate)
	}
	if c.Pheromones.GhostDecayRate <= 0 || c.Pheromones.GhostDecayRate >= 1 {
		return clues.New("ghost decay rate must be within (0,1)").
			With("ghost_decay_rate", c.Pheromones.GhostDecayRate)
	}
	if c.Pheromones.Ceiling <= 0 {
		return clues.New("pheromone ceiling must be positive").With("ceiling", c.Pheromones.Ceiling)
	}
	if c.Food.Count < 0 {
		return clues.New("food count must not be negative").With("food_count", c.Food.Count)
	}
	if c.Food.Radius < 0 {
		return clues.New("food radius must not be negative").With("food_radius", c.Food.Radius)
	}
	if c.Metrics.SampleRate <= 0 {
		return clues.New("metrics sample rate must be positive").With("sample_rate", c.Metrics.SampleRate)
	}
	if c.Recording.SnapshotEvery <= 0 {
		return clues.New("snapshot cadence must be positive").With("snapshot_every", c.Recording.SnapshotEvery)
	}
	if c.Recording.KeyframeEvery <= 0 {
		return clues.New("keyframe cadence must be positive").With("keyframe_every", c.Recording.KeyframeEvery)
	}

	return nil
}

// LiveConfig carries the runtime-tunable knobs picked up between ticks from
// hive_config_live.json, written by the dashboard. Pointer fields
// distinguish "absent" from zero.
type LiveConfig struct {
	DecayRate       *float64 `json:"decay_rate,omitempty"`
	DepositAmount   *float64 `json:"deposit_amount,omitempty"`
	GhostDeposit    *float64 `json:"ghost_deposit,omitempty"`
	DetectionRadius *float64 `json:"detection_radius,omitempty"`
	PheromoneBoost  *float64 `json:"pheromone_boost,omitempty"`
	DeathMode       *string  `json:"death_mode,omitempty"`
	Mode            *string  `json:"mode,omitempty"`
	Timestamp       float64  `json:"timestamp"`
}

// LoadLiveConfig reads the live tuning file. Absence is normal and returns
// nil without error.
func LoadLiveConfig(path string) (*LiveConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, clues.Wrap(err, "reading live config").With("path", path)
	}

	var lc LiveConfig
	if err := json.Unmarshal(data, &lc); err != nil {
		return nil, clues.Wrap(err, "parsing live config").With("path", path)
	}

	return &lc, nil
}
