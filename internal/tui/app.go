// Package tui is the interactive terminal front-end: it maps keys to
// simulation input and draws every tick scaled to the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/pursuit/internal/monitoring"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/timeutil"
	"github.com/gdamore/tcell/v2"
)

var logf = monitoring.Component("tui")

// Config configures an App.
type Config struct {
	Sim   *sim.Simulation
	FPS   int
	Clock timeutil.Clock // nil means the wall clock
	// Screen overrides the terminal, for tests. Run takes ownership: it
	// calls Init and Fini.
	Screen tcell.Screen
	// Sound enables the hit tone.
	Sound bool
}

// App runs a simulation interactively.
type App struct {
	cfg      Config
	screen   tcell.Screen
	controls *Controls
	renderer *Renderer
	sound    *Sound
	runner   *sim.Runner
}

// New prepares an App. The terminal is not touched until Run.
func New(cfg Config) (*App, error) {
	if cfg.Sim == nil {
		return nil, errors.New("tui: nil simulation")
	}
	screen := cfg.Screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, fmt.Errorf("failed to create screen: %w", err)
		}
	}
	a := &App{
		cfg:      cfg,
		screen:   screen,
		controls: NewControls(),
	}
	a.renderer = NewRenderer(screen, cfg.Sim.World())
	a.runner = sim.NewRunner(sim.RunnerConfig{
		Sim:   cfg.Sim,
		Input: a.controls,
		Clock: cfg.Clock,
		FPS:   cfg.FPS,
	})
	return a, nil
}

// Controls returns the key mapper feeding the simulation.
func (a *App) Controls() *Controls { return a.controls }

// Run owns the terminal until ctx is cancelled or the user quits. Logging
// is muted while the screen is active.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	var audioErr error
	restore := monitoring.Mute()
	defer func() {
		restore()
		if audioErr != nil {
			logf("audio disabled: %v", audioErr)
		}
	}()
	defer a.screen.Fini()

	if a.cfg.Sound {
		a.sound, audioErr = NewSound()
		defer a.sound.Close()
	}

	a.cfg.Sim.AddObserver(sim.ObserverFunc(func(s sim.Snapshot) {
		a.renderer.Draw(s)
		if a.sound != nil {
			a.sound.ObserveTick(s)
		}
	}))
	a.renderer.Draw(a.cfg.Sim.Last())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- a.runner.Run(ctx) }()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // screen finalised
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer close(quit)

	for {
		select {
		case <-ctx.Done():
			return <-runErr
		case err := <-runErr:
			return err
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if a.controls.HandleKey(ev) {
					cancel()
					return <-runErr
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
		}
	}
}
