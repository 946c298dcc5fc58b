// Package snapshot defines the file contract between the simulation and its
// external consumers (dashboard, playback viewer, replay tooling). The
// live-state file is the sole inter-process boundary: the simulation is the
// only writer, and readers either poll the current file or read immutable
// archives. Writes go through a temp file plus rename so a concurrent reader
// never observes a half-written snapshot.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/alcionai/clues"
)

// Drone is the per-agent record inside a snapshot. Dead agents reuse the
// same shape with an empty trail.
type Drone struct {
	X        int      `json:"x"`
	Y        int      `json:"y"`
	VX       int      `json:"vx"`
	VY       int      `json:"vy"`
	Hunger   float64  `json:"hunger"`
	State    string   `json:"state"`
	Type     string   `json:"type"`
	Trail    [][2]int `json:"trail,omitempty"`
	LastSeen float64  `json:"last_seen"`
}

// Food mirrors one food source, consumed entries included for history.
type Food struct {
	ID        string  `json:"id"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Amount    float64 `json:"amount"`
	MaxAmount float64 `json:"max_amount"`
	Radius    float64 `json:"radius"`
	Consumed  bool    `json:"consumed"`
}

// Marker is one append-only event log entry (death, food depletion,
// recruitment scent), kept for trail-of-history rendering.
type Marker struct {
	ID        string `json:"id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Tick      int    `json:"tick"`
	Type      string `json:"type"`
	AgentID   string `json:"agent_id,omitempty"`
	AgentType string `json:"agent_type,omitempty"`
}

// Boundary is the operational rectangle agents are clamped into.
type Boundary struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Point is a fixed anchor position (queen, sentinels).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// State is the full live-state record read by the dashboard and playback
// viewer.
type State struct {
	Tick       int                `json:"tick"`
	Timestamp  float64            `json:"timestamp"`
	Grid       [][]float64        `json:"grid"`
	GhostGrid  [][]float64        `json:"ghost_grid"`
	Drones     map[string]Drone   `json:"drones"`
	DeadDrones map[string]Drone   `json:"dead_drones"`
	Food       []Food             `json:"food_sources"`
	Markers    []Marker           `json:"markers"`
	SimMode    string             `json:"sim_mode"`
	Mood       string             `json:"mood"`
	DecayRate  float64            `json:"decay_rate"`
	Boundary   Boundary           `json:"boundary"`
	Queen      Point              `json:"queen"`
	Reason     string             `json:"reason,omitempty"`
}

// Write atomically persists the state: full JSON to a temp file in the same
// directory, then a rename over the target.
func Write(path string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return clues.Wrap(err, "encoding snapshot")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return clues.Wrap(err, "creating snapshot dir").With("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return clues.Wrap(err, "creating temp snapshot")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return clues.Wrap(err, "writing temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return clues.Wrap(err, "closing temp snapshot")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return clues.Wrap(err, "publishing snapshot").With("path", path)
	}

	return nil
}

// Read loads a snapshot file.
func Read(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clues.Wrap(err, "reading snapshot").With("path", path)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, clues.Wrap(err, "parsing snapshot").With("path", path)
	}

	return &st, nil
}
