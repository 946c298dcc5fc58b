package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/alcionai/clues"
)

// Meta is the recording header consumers read before any keyframe.
type Meta struct {
	SessionID       string  `json:"session_id"`
	Mode            string  `json:"mode"`
	DroneCount      int     `json:"drone_count"`
	DurationSeconds int     `json:"duration_seconds"`
	GridSize        int     `json:"grid_size"`
	CreatedAt       float64 `json:"created_at"`
}

// Keyframe is one timestamped sample of the replayable state. Field grids
// are left out on purpose: replay reconstructs trails from positions, and
// keeping grids out keeps hour-long recordings small.
type Keyframe struct {
	Timestamp float64          `json:"timestamp"`
	Tick      int              `json:"tick"`
	Drones    map[string]Drone `json:"drones"`
	Food      []Food           `json:"food_sources"`
}

// Recording is the archive format written to .slimehive files.
type Recording struct {
	Meta      Meta       `json:"meta"`
	Keyframes []Keyframe `json:"keyframes"`
}

// Append adds a keyframe. Frames are expected in timestamp order; replay
// sorts defensively anyway on load.
func (r *Recording) Append(kf Keyframe) {
	r.Keyframes = append(r.Keyframes, kf)
}

// WriteFile persists the recording as one JSON document.
func (r *Recording) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return clues.Wrap(err, "creating recording dir")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return clues.Wrap(err, "encoding recording")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return clues.Wrap(err, "writing recording").With("path", path)
	}

	return nil
}

// LoadRecording reads a .slimehive file and orders its keyframes.
func LoadRecording(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clues.Wrap(err, "reading recording").With("path", path)
	}

	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, clues.Wrap(err, "parsing recording").With("path", path)
	}

	sort.SliceStable(rec.Keyframes, func(i, j int) bool {
		return rec.Keyframes[i].Timestamp < rec.Keyframes[j].Timestamp
	})

	return &rec, nil
}

// InterpDrone is a drone state at an interpolated playback time. Positions
// are linearly blended between the bracketing keyframes; everything
// non-positional holds the earlier keyframe's value.
type InterpDrone struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Hunger float64 `json:"hunger"`
	State  string  `json:"state"`
	Type   string  `json:"type"`
}

// StateAt resolves the drone states at playback time t. Before the first
// keyframe it returns the first; past the last it returns the last.
func (r *Recording) StateAt(t float64) (map[string]InterpDrone, error) {
	if len(r.Keyframes) == 0 {
		return nil, clues.New("recording has no keyframes")
	}

	first := r.Keyframes[0]
	last := r.Keyframes[len(r.Keyframes)-1]

	if t <= first.Timestamp {
		return holdFrame(first), nil
	}
	if t >= last.Timestamp {
		return holdFrame(last), nil
	}

	// Find the bracketing pair.
	hi := sort.Search(len(r.Keyframes), func(i int) bool {
		return r.Keyframes[i].Timestamp >= t
	})
	before := r.Keyframes[hi-1]
	after := r.Keyframes[hi]

	span := after.Timestamp - before.Timestamp
	frac := 0.0
	if span > 0 {
		frac = (t - before.Timestamp) / span
	}

	out := make(map[string]InterpDrone, len(before.Drones))
	for id, b := range before.Drones {
		d := InterpDrone{
			X:      float64(b.X),
			Y:      float64(b.Y),
			Hunger: b.Hunger,
			State:  b.State,
			Type:   b.Type,
		}
		// Drones absent from the later frame (died in between) hold still.
		if a, ok := after.Drones[id]; ok {
			d.X += (float64(a.X) - float64(b.X)) * frac
			d.Y += (float64(a.Y) - float64(b.Y)) * frac
		}
		out[id] = d
	}

	return out, nil
}

func holdFrame(kf Keyframe) map[string]InterpDrone {
	out := make(map[string]InterpDrone, len(kf.Drones))
	for id, d := range kf.Drones {
		out[id] = InterpDrone{
			X:      float64(d.X),
			Y:      float64(d.Y),
			Hunger: d.Hunger,
			State:  d.State,
			Type:   d.Type,
		}
	}
	return out
}
