// Command hiveview is a live viewer for the simulation: it polls the
// hive_state.json snapshot the runner writes and renders the pheromone
// field, trails, agents, food and queen. It only ever reads fully-written
// snapshots; the runner's write-then-rename keeps the file consistent.
package main

import (
	"flag"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/slimehive/hivesim/pkg/snapshot"
)

// Viewer struct: Holds the playback state.
type Viewer struct {
	statePath string
	cell      float32
	pollEvery time.Duration

	state     *snapshot.State
	lastPoll  time.Time
	paused    bool
	showGhost bool
}

// Update is called each tick by Ebitengine.
func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		v.showGhost = !v.showGhost
	}

	if v.paused || time.Since(v.lastPoll) < v.pollEvery {
		return nil
	}
	v.lastPoll = time.Now()

	st, err := snapshot.Read(v.statePath)
	if err != nil {
		// The runner may not have written its first snapshot yet, or may
		// have exited; keep showing the last good state.
		return nil
	}
	v.state = st

	return nil
}

// Draw is called each frame by Ebitengine.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{12, 12, 16, 255})

	st := v.state
	if st == nil {
		return
	}

	// Field heatmap. Cells below the epsilon thresholds render as empty.
	for x := range st.Grid {
		for y := range st.Grid[x] {
			if v.showGhost {
				if gv := st.GhostGrid[x][y]; gv > 10 {
					a := uint8(math.Min(gv, 255))
					vector.DrawFilledRect(screen,
						float32(x)*v.cell, float32(y)*v.cell, v.cell, v.cell,
						color.RGBA{a / 4, a / 4, a / 2, 255}, false)
				}
			}
			if av := st.Grid[x][y]; av > 5 {
				a := uint8(math.Min(av, 255))
				vector.DrawFilledRect(screen,
					float32(x)*v.cell, float32(y)*v.cell, v.cell, v.cell,
					color.RGBA{a, uint8(float64(a) * 0.6), 255 - a, 255}, false)
			}
		}
	}

	// Food sources, consumed ones as faint rings.
	for _, f := range st.Food {
		c := color.RGBA{60, 220, 120, 255}
		if f.Consumed {
			c = color.RGBA{60, 80, 60, 255}
		}
		vector.StrokeCircle(screen,
			float32(f.X)*v.cell+v.cell/2, float32(f.Y)*v.cell+v.cell/2,
			float32(f.Radius)*v.cell, 1, c, true)
		if !f.Consumed && f.MaxAmount > 0 {
			// Inner disc shrinks as the source depletes.
			frac := float32(f.Amount / f.MaxAmount)
			vector.DrawFilledCircle(screen,
				float32(f.X)*v.cell+v.cell/2, float32(f.Y)*v.cell+v.cell/2,
				float32(f.Radius)*v.cell*frac, c, true)
		}
	}

	// Event markers.
	for _, m := range st.Markers {
		var c color.RGBA
		switch m.Type {
		case "death":
			c = color.RGBA{200, 40, 40, 255}
		case "food":
			c = color.RGBA{40, 160, 40, 255}
		default:
			c = color.RGBA{150, 150, 40, 255}
		}
		vector.DrawFilledRect(screen,
			float32(m.X)*v.cell, float32(m.Y)*v.cell, v.cell/2, v.cell/2, c, false)
	}

	// Dead drones first, live drones with trails on top.
	for _, d := range st.DeadDrones {
		vector.DrawFilledCircle(screen,
			float32(d.X)*v.cell+v.cell/2, float32(d.Y)*v.cell+v.cell/2,
			v.cell/2, color.RGBA{90, 90, 90, 255}, true)
	}

	for _, d := range st.Drones {
		c := color.RGBA{240, 240, 240, 255}
		if d.Type == "hopper" {
			c = color.RGBA{255, 180, 60, 255}
		}

		for i := 1; i < len(d.Trail); i++ {
			prev, curr := d.Trail[i-1], d.Trail[i]
			vector.StrokeLine(screen,
				float32(prev[0])*v.cell+v.cell/2, float32(prev[1])*v.cell+v.cell/2,
				float32(curr[0])*v.cell+v.cell/2, float32(curr[1])*v.cell+v.cell/2,
				1, color.RGBA{c.R / 3, c.G / 3, c.B / 3, 255}, true)
		}

		vector.DrawFilledCircle(screen,
			float32(d.X)*v.cell+v.cell/2, float32(d.Y)*v.cell+v.cell/2,
			v.cell*0.6, c, true)
	}

	// Queen anchor.
	vector.DrawFilledCircle(screen,
		float32(st.Queen.X)*v.cell+v.cell/2, float32(st.Queen.Y)*v.cell+v.cell/2,
		v.cell, color.RGBA{255, 60, 120, 255}, true)
}

// Layout returns the screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := 100
	if v.state != nil && len(v.state.Grid) > 0 {
		size = len(v.state.Grid)
	}
	return size * int(v.cell), size * int(v.cell)
}

func main() {
	statePath := flag.String("state", "hive_state.json", "live-state snapshot to poll")
	pollMS := flag.Int("poll-ms", 200, "snapshot poll interval in milliseconds")
	cell := flag.Int("cell", 6, "pixels per grid cell")
	flag.Parse()

	v := &Viewer{
		statePath: *statePath,
		cell:      float32(*cell),
		pollEvery: time.Duration(*pollMS) * time.Millisecond,
		showGhost: true,
	}

	// Try an eager first read so the window opens at the right size.
	if st, err := snapshot.Read(v.statePath); err == nil {
		v.state = st
	}

	size := 100
	if v.state != nil && len(v.state.Grid) > 0 {
		size = len(v.state.Grid)
	}

	ebiten.SetWindowSize(size**cell, size**cell)
	ebiten.SetWindowTitle("SlimeHive Viewer")
	ebiten.SetTPS(30)

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
