// Package render draws snapshot states to raster images. The final-state
// export runs headless after termination, so it rasterizes with the
// standard image package instead of spinning up a GPU-backed window.
package render

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/alcionai/clues"

	"github.com/slimehive/hivesim/pkg/snapshot"
)

// Cells below these values render as empty background; storage keeps the
// real values.
const (
	activeEpsilon = 5.0
	ghostEpsilon  = 10.0
)

var (
	background = color.RGBA{12, 12, 16, 255}
	workerDot  = color.RGBA{240, 240, 240, 255}
	hopperDot  = color.RGBA{255, 180, 60, 255}
	deadDot    = color.RGBA{90, 90, 90, 255}
	queenDot   = color.RGBA{255, 60, 120, 255}
	foodRing   = color.RGBA{60, 220, 120, 255}
	ghostTint  = color.RGBA{40, 40, 80, 255}
)

// WritePNG renders the state with cell pixels per grid cell and writes it
// to path.
func WritePNG(st *snapshot.State, path string, cell int) error {
	if cell <= 0 {
		cell = 4
	}

	size := len(st.Grid)
	if size == 0 {
		return clues.New("snapshot has no grid")
	}

	img := image.NewRGBA(image.Rect(0, 0, size*cell, size*cell))

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			c := background
			if gv := st.GhostGrid[x][y]; gv > ghostEpsilon {
				c = ghostTint
			}
			if av := st.Grid[x][y]; av > activeEpsilon {
				c = heatColor(av / 255)
			}
			fillCell(img, x, y, cell, c)
		}
	}

	for _, f := range st.Food {
		if f.Consumed {
			continue
		}
		drawRing(img, f.X, f.Y, f.Radius, cell, foodRing)
	}

	for _, d := range st.DeadDrones {
		fillCell(img, d.X, d.Y, cell, deadDot)
	}
	for _, d := range st.Drones {
		c := workerDot
		if d.Type == "hopper" {
			c = hopperDot
		}
		fillCell(img, d.X, d.Y, cell, c)
	}

	fillCell(img, st.Queen.X, st.Queen.Y, cell, queenDot)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return clues.Wrap(err, "creating image dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return clues.Wrap(err, "creating image file").With("path", path)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return clues.Wrap(err, "encoding png").With("path", path)
	}

	return nil
}

func fillCell(img *image.RGBA, x, y, cell int, c color.RGBA) {
	for px := x * cell; px < (x+1)*cell; px++ {
		for py := y * cell; py < (y+1)*cell; py++ {
			img.SetRGBA(px, py, c)
		}
	}
}

func drawRing(img *image.RGBA, cx, cy int, radius float64, cell int, c color.RGBA) {
	r := int(math.Ceil(radius))
	for x := cx - r; x <= cx+r; x++ {
		for y := cy - r; y <= cy+r; y++ {
			d := math.Hypot(float64(x-cx), float64(y-cy))
			if d <= radius && d > radius-1 {
				fillCell(img, x, y, cell, c)
			}
		}
	}
}

// heatColor maps a normalized intensity onto a blue-to-red hue ramp.
func heatColor(v float64) color.RGBA {
	v = math.Max(0, math.Min(1, v))
	h := (1 - v) * 240 // 240=blue (cold) down to 0=red (hot)
	r, g, b := hsvToRGB(h, 1, 0.55+0.45*v)
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
