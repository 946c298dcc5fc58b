package sim

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/alcionai/clues"
)

// Sample is one row of swarm-level statistics, taken at the metrics cadence.
type Sample struct {
	Tick                int
	Time                float64
	AvgNeighborDistance float64
	AvgNearestNeighbor  float64
	SwarmSpread         float64
	CenterX             float64
	CenterY             float64
	VelocityAlignment   float64
	Collisions          int
	CoveragePercent     float64
	DroneCount          int
}

// metricsQueryRadius is wide enough to see the whole grid, so every pair
// contributes to the distance statistics.
const metricsQueryRadius = 1000.0

// collect derives the swarm statistics from the live registry and ghost
// field. With fewer than two live agents most statistics are meaningless, so
// only the population and coverage fields are filled in.
func (s *Simulation) collect() Sample {
	sample := Sample{
		Tick:       s.tick,
		DroneCount: s.agents.LiveCount(),
	}

	total := float64(s.field.Size * s.field.Size)
	sample.CoveragePercent = float64(s.field.CoverageCount()) / total * 100

	live := s.agents.Live()
	if len(live) < 2 {
		return sample
	}

	var (
		allDistances     []float64
		nearestDistances []float64
	)

	for _, a := range live {
		neighbors := s.agents.NeighborsOf(a.ID, metricsQueryRadius)
		if len(neighbors) == 0 {
			continue
		}
		nearest := math.Inf(1)
		for _, n := range neighbors {
			allDistances = append(allDistances, n.Distance)
			nearest = math.Min(nearest, n.Distance)
		}
		nearestDistances = append(nearestDistances, nearest)
	}

	sample.AvgNeighborDistance = mean(allDistances)
	sample.AvgNearestNeighbor = mean(nearestDistances)

	xs := make([]float64, len(live))
	ys := make([]float64, len(live))
	vxs := make([]float64, len(live))
	vys := make([]float64, len(live))
	for i, a := range live {
		xs[i] = float64(a.X)
		ys[i] = float64(a.Y)
		vxs[i] = float64(a.VX)
		vys[i] = float64(a.VY)
	}

	sample.CenterX = mean(xs)
	sample.CenterY = mean(ys)
	sample.SwarmSpread = stddev(xs) + stddev(ys)
	sample.VelocityAlignment = math.Hypot(mean(vxs), mean(vys))

	// Collisions: agents stacked on the same cell.
	occupied := make(map[[2]int]struct{}, len(live))
	for _, a := range live {
		occupied[[2]int{a.X, a.Y}] = struct{}{}
	}
	sample.Collisions = len(live) - len(occupied)

	return sample
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func stddev(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := mean(vs)
	var sum float64
	for _, v := range vs {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vs)))
}

// ExportMetricsCSV writes the sampled history to
// <dir>/sim_<MODE>_<N>drones_<stamp>.csv and returns the file path.
func ExportMetricsCSV(dir string, mode Mode, droneCount int, stamp string, samples []Sample) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", clues.Wrap(err, "creating metrics dir").With("dir", dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("sim_%s_%ddrones_%s.csv", mode, droneCount, stamp))

	f, err := os.Create(path)
	if err != nil {
		return "", clues.Wrap(err, "creating metrics csv").With("path", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"tick", "time",
		"avg_neighbor_distance", "avg_nearest_neighbor",
		"swarm_spread", "center_x", "center_y",
		"velocity_alignment", "collisions", "coverage_percent", "drone_count",
	}
	if err := w.Write(header); err != nil {
		return "", clues.Wrap(err, "writing metrics header")
	}

	for _, s := range samples {
		row := []string{
			fmt.Sprintf("%d", s.Tick),
			fmt.Sprintf("%.2f", s.Time),
			fmt.Sprintf("%.2f", s.AvgNeighborDistance),
			fmt.Sprintf("%.2f", s.AvgNearestNeighbor),
			fmt.Sprintf("%.2f", s.SwarmSpread),
			fmt.Sprintf("%.1f", s.CenterX),
			fmt.Sprintf("%.1f", s.CenterY),
			fmt.Sprintf("%.3f", s.VelocityAlignment),
			fmt.Sprintf("%d", s.Collisions),
			fmt.Sprintf("%.2f", s.CoveragePercent),
			fmt.Sprintf("%d", s.DroneCount),
		}
		if err := w.Write(row); err != nil {
			return "", clues.Wrap(err, "writing metrics row")
		}
	}

	return path, nil
}
