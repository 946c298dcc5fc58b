// Command hivesim runs the headless swarm simulation and writes the
// live-state snapshot, metrics, flight logs and recordings that the
// dashboard and playback viewer consume.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alcionai/clues/clog"

	"github.com/slimehive/hivesim/pkg/render"
	"github.com/slimehive/hivesim/pkg/sim"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "config/simulation.json", "JSON config file (missing file runs defaults)")
		drones     = flag.Int("drones", 0, "number of drones")
		mode       = flag.String("mode", "", "behavior mode: RANDOM, AVOID, FLOCK, BOIDS, TRAIL_FOLLOW, FORAGE, PATROL, SWARM, SCATTER, FIND_QUEEN")
		duration   = flag.Int("duration", 0, "duration in seconds")
		tickRate   = flag.Int("tick-rate", 0, "ticks per second")
		gridSize   = flag.Int("grid-size", 0, "grid size (NxN)")
		spawn      = flag.String("spawn", "", "spawn pattern: random, center, corners, line, noise")
		food       = flag.Int("food", -1, "number of food sources")
		foodAmount = flag.Float64("food-amount", 0, "amount per food source")
		foodSpread = flag.String("food-spread", "", "food spread pattern")
		foodRadius = flag.Float64("food-radius", 0, "food source radius")
		regen      = flag.Bool("regen", false, "enable food regeneration")
		death      = flag.Bool("death", false, "enable death mode (starved agents die)")
		saveState  = flag.Bool("save-state", false, "enable recording of the run")
		record     = flag.Bool("record", false, "alias for -save-state")
		exportImg  = flag.Bool("export-image", false, "render the final state to PNG")
		seed       = flag.Int64("seed", 0, "RNG seed (0 = time-based)")
		outDir     = flag.String("out", "", "output directory for state files")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, error")
	)
	flag.Parse()

	set := clog.Settings{
		File:   clog.Stderr,
		Format: clog.FormatForHumans,
	}
	switch *logLevel {
	case "debug":
		set.Level = clog.LevelDebug
	case "error":
		set.Level = clog.LevelError
	default:
		set.Level = clog.LevelInfo
	}

	ctx := clog.Init(context.Background(), set)
	defer clog.Flush(ctx)

	cfg, err := sim.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	// CLI flags override both defaults and file values.
	if *drones > 0 {
		cfg.Drones.Count = *drones
	}
	if *mode != "" {
		cfg.Drones.BehaviorMode = *mode
	}
	if *duration > 0 {
		cfg.Simulation.DurationSeconds = *duration
	}
	if *tickRate > 0 {
		cfg.Simulation.TickRate = *tickRate
	}
	if *gridSize > 0 {
		cfg.Simulation.GridSize = *gridSize
	}
	if *spawn != "" {
		cfg.Drones.SpawnPattern = *spawn
	}
	if *food >= 0 {
		cfg.Food.Count = *food
	}
	if *foodAmount > 0 {
		cfg.Food.Amount = *foodAmount
	}
	if *foodSpread != "" {
		cfg.Food.Spread = *foodSpread
	}
	if *foodRadius > 0 {
		cfg.Food.Radius = *foodRadius
	}
	if *regen {
		cfg.Food.Regen = true
	}
	if *death {
		cfg.Drones.DeathMode = "yes"
	}
	if *saveState || *record {
		cfg.Recording.Enabled = true
	}
	if *exportImg {
		cfg.Recording.ExportImage = true
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *outDir != "" {
		cfg.Recording.OutputDir = *outDir
	}

	s, err := sim.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	// A stop signal only takes effect between ticks.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	final, err := s.Run(ctx)
	if err != nil {
		clog.CtxErr(ctx, err).Errorw("simulation failed")
		return 1
	}

	if cfg.Recording.ExportImage && final != nil {
		path := filepath.Join(
			cfg.Recording.OutputDir,
			"snapshots",
			fmt.Sprintf("final_%s_%s.png", cfg.Drones.BehaviorMode, time.Now().Format("2006-01-02_150405")))
		if err := render.WritePNG(final, path, 4); err != nil {
			clog.CtxErr(ctx, err).Errorw("image export failed")
		} else {
			clog.Ctx(ctx).Infow("final state image exported", "path", path)
		}
	}

	// Extinction is a successful terminal state, same exit code as a
	// completed run.
	return 0
}
