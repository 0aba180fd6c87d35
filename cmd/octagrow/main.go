// Command octagrow runs the growth simulation headless, logging statistics
// and writing a top-down projection and growth chart when it finishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gekko3d/octagrow"
	"github.com/gekko3d/octagrow/octa/export"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		shape      = flag.String("shape", "", "boundary shape: box, cylinder, prism or random")
		strategy   = flag.String("strategy", "", "occupancy index: dense or hash")
		seed       = flag.Uint64("seed", 0, "random seed")
		frames     = flag.Int("frames", 0, "stop after this many frames (0 runs until complete)")
		fps        = flag.Int("fps", 0, "frame rate of the main loop")
		out        = flag.String("out", "", "directory for exported images")
		sync       = flag.Bool("sync", false, "step growth on the main thread instead of a worker")
		debug      = flag.Bool("debug", false, "debug logging and fatal worker join timeouts")
	)
	flag.Parse()

	logger := octagrow.NewDefaultLogger("octagrow", *debug)
	if err := run(logger, *configPath, func(cfg *octagrow.Config) {
		if *shape != "" {
			cfg.Boundary.Shape = *shape
		}
		if *strategy != "" {
			cfg.Index.Strategy = *strategy
		}
		if *seed != 0 {
			cfg.Growth.Seed = *seed
		}
		if *frames > 0 {
			cfg.Run.MaxFrames = *frames
		}
		if *fps > 0 {
			cfg.Run.FPS = *fps
		}
		if *out != "" {
			cfg.Run.OutputDir = *out
		}
		cfg.Run.Debug = cfg.Run.Debug || *debug
	}, *sync); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(logger octagrow.Logger, configPath string, override func(*octagrow.Config), sync bool) error {
	cfg := octagrow.DefaultConfig()
	if configPath != "" {
		loaded, err := octagrow.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	override(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.SetDebug(cfg.Run.Debug)

	sim, err := octagrow.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	recorder := export.NewGrowthRecorder()
	if !sync && !sim.Start() {
		return fmt.Errorf("growth worker did not start")
	}

	step := octagrow.NewFixedStep(cfg.Run.FPS)
	clock := octagrow.NewClock()
	frame := 0
	for sim.State() != octagrow.StateCompleted {
		if ctx.Err() != nil {
			logger.Infof("interrupted")
			break
		}
		if cfg.Run.MaxFrames > 0 && frame >= cfg.Run.MaxFrames {
			break
		}
		if !step.ShouldStep() {
			time.Sleep(time.Millisecond)
			continue
		}
		clock.Tick()
		frame++

		if sync {
			sim.Step(step.Step().Seconds())
		} else {
			sim.Frame()
		}

		if frame%cfg.Run.StatsEvery == 0 {
			st := sim.Statistics()
			recorder.Sample(export.GrowthSample{Frame: frame, Cells: st.Cells, Visible: st.Visible, Progress: st.Progress})
			logger.Infof("frame %d: %s", frame, st)
			logger.Debugf("\n%s", sim.Profiler())
		}
	}
	if err := sim.Stop(); err != nil {
		return err
	}

	st := sim.Statistics()
	recorder.Sample(export.GrowthSample{Frame: frame, Cells: st.Cells, Visible: st.Visible, Progress: st.Progress})
	logger.Infof("finished after %d frames: %s", frame, st)
	squares, hexagons := sim.FreeFaces()
	logger.Infof("free faces: %d square, %d hexagon", squares, hexagons)

	if cfg.Run.OutputDir == "" {
		return nil
	}
	return writeExports(sim, recorder, cfg.Run.OutputDir)
}

func writeExports(sim *octagrow.Simulation, recorder *export.GrowthRecorder, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	snap := sim.Snapshot()
	shape := sim.Boundary()
	lo, hi := shape.Bounds()
	img := export.TopDown(snap.Classes[:], shape.Wireframe(), lo, hi, sim.Lattice().Square, export.ProjectionOptions{
		Title:  fmt.Sprintf("%s  %d cells  %d visible", shape, snap.Count, snap.Visible),
		Legend: true,
	})
	name := sim.RunID()
	if err := export.SavePNG(filepath.Join(dir, name+"_top.png"), img); err != nil {
		return err
	}
	return recorder.Save(filepath.Join(dir, name+"_growth.png"), "Growth "+name)
}
