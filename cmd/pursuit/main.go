// Command pursuit runs the rocket-and-plane pursuit simulation, either
// interactively in the terminal or headless with a scripted pilot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/pursuit/internal/config"
	"github.com/banshee-data/pursuit/internal/db"
	"github.com/banshee-data/pursuit/internal/monitor"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/tui"
	"github.com/banshee-data/pursuit/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON scenario file (built-in defaults when empty)")
	headless    = flag.Bool("headless", false, "Run without the terminal UI, driven by a scripted pilot")
	realtime    = flag.Bool("realtime", false, "Headless: step at the configured fps instead of as fast as possible")
	ticks       = flag.Uint64("ticks", 3600, "Headless: number of ticks to simulate")
	activateAt  = flag.Uint64("activate-at", 60, "Headless: tick on which the pursuer is activated")
	weave       = flag.Uint64("weave", 240, "Headless: weave period of the target in ticks (0 flies straight)")
	dbPath      = flag.String("db", "", "SQLite database to record the run into")
	listen      = flag.String("listen", "", "Monitor listen address, e.g. localhost:8080 (disabled when empty)")
	plotsDir    = flag.String("plots", "", "Directory for trajectory and estimator PNGs written at exit")
	label       = flag.String("label", "run", "Run label used for recordings and plot filenames")
	mode        = flag.String("mode", "", "Measurement mode override: delayed or current")
	fps         = flag.Int("fps", 0, "Frame rate override (0 keeps the configured value)")
	sound       = flag.Bool("sound", true, "Play a tone on every hit (interactive only)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("pursuit", version.String())
		return
	}

	if flag.Arg(0) == "migrate" {
		if err := runMigrate(*dbPath, flag.Args()[1:]); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if flag.NArg() > 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := buildConfig()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("pursuit: %v", err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage:\n")
	fmt.Fprintf(out, "  pursuit [flags]                      run the simulation\n")
	fmt.Fprintf(out, "  pursuit -db FILE migrate up|down|version|force N\n\n")
	flag.PrintDefaults()
}

// buildConfig loads the scenario file, if any, and applies flag overrides.
func buildConfig() (*config.SimConfig, error) {
	cfg := config.DefaultSimConfig()
	if *configPath != "" {
		loaded, err := config.LoadSimConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyOverrides(cfg, *mode, *fps)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyOverrides copies non-zero flag values onto cfg. Overriding fps also
// rederives filter_dt unless the scenario set it explicitly.
func applyOverrides(cfg *config.SimConfig, mode string, fps int) {
	if mode != "" {
		cfg.MeasurementMode = config.String(mode)
	}
	if fps > 0 {
		if cfg.FPS != nil && cfg.FilterDt != nil && *cfg.FilterDt == 1/float64(*cfg.FPS) {
			cfg.FilterDt = nil
		}
		cfg.FPS = config.Int(fps)
	}
}

// run wires the simulation to its observers and front-end and blocks until
// the run ends.
func run(ctx context.Context, cfg *config.SimConfig) error {
	s, err := sim.New(cfg)
	if err != nil {
		return err
	}

	stats := sim.NewStats()
	s.AddObserver(stats)
	hub := monitor.NewHub(0)
	s.AddObserver(hub)

	var store *db.DB
	var recorder *db.Recorder
	if *dbPath != "" {
		store, err = db.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.CreateRun(*label, cfg)
		if err != nil {
			return err
		}
		recorder = store.NewRecorder(rec.RunID, db.DefaultBatchSize)
		s.AddObserver(recorder)
		log.Printf("recording run %s to %s", rec.RunID, *dbPath)
	}

	var plotter *monitor.TrajectoryPlotter
	if *plotsDir != "" {
		plotter = monitor.NewTrajectoryPlotter(*label, s.World())
		if err := plotter.Start(*plotsDir); err != nil {
			return err
		}
		s.AddObserver(plotter)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if *listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address: *listen,
			Sim:     s,
			Hub:     hub,
			Stats:   stats,
			DB:      store,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(runCtx); err != nil {
				log.Printf("monitor server: %v", err)
			}
		}()
	}

	runErr := drive(runCtx, s, cfg.GetFPS())
	cancel()
	wg.Wait()

	summary := stats.Summary()
	log.Printf("finished: %s", s.Last().Status())
	log.Printf("stats: ticks=%d active=%d hits=%d mean_miss=%.2f min_miss=%.2f mean_time_to_hit=%.1f",
		summary.Ticks, summary.ActiveTicks, summary.Hits,
		summary.MeanMissDistance, summary.MinMissDistance, summary.MeanTimeToHit)

	var errs []error
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		errs = append(errs, runErr)
	}
	if recorder != nil {
		if err := recorder.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("recorder: %w", err))
		}
		if err := store.FinishRun(recorder.RunID(), summary); err != nil {
			errs = append(errs, err)
		}
		log.Printf("recorded %d ticks for run %s", recorder.Recorded(), recorder.RunID())
	}
	if plotter != nil {
		plotter.Stop()
		files, err := plotter.Save()
		if err != nil {
			errs = append(errs, fmt.Errorf("plots: %w", err))
		}
		for _, f := range files {
			log.Printf("wrote %s", f)
		}
	}
	return errors.Join(errs...)
}

// drive runs the chosen front-end until it finishes or ctx ends.
func drive(ctx context.Context, s *sim.Simulation, fps int) error {
	if !*headless {
		app, err := tui.New(tui.Config{Sim: s, FPS: fps, Sound: *sound})
		if err != nil {
			return err
		}
		return app.Run(ctx)
	}

	pilot := sim.Weave(*activateAt, *weave)
	if *realtime {
		r := sim.NewRunner(sim.RunnerConfig{
			Sim:      s,
			Input:    pilot,
			FPS:      fps,
			MaxTicks: *ticks,
		})
		return r.Run(ctx)
	}

	start := time.Now()
	_, err := sim.RunHeadless(ctx, s, *ticks, pilot)
	log.Printf("simulated %d ticks in %v", s.Tick(), time.Since(start).Round(time.Millisecond))
	return err
}
