package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/banshee-data/pursuit/internal/timeutil"
	"github.com/banshee-data/pursuit/internal/vec"
)

// InputSource supplies the command set for each tick. NextInput is called
// from the runner goroutine once per tick, just before Step.
type InputSource interface {
	NextInput(tick uint64) Input
}

// InputFunc adapts a func to InputSource.
type InputFunc func(tick uint64) Input

func (f InputFunc) NextInput(tick uint64) Input { return f(tick) }

// NoInput never steers and never activates.
var NoInput = InputFunc(func(uint64) Input { return Input{} })

// Weave returns a scripted pilot for headless runs: the pursuer is
// activated on tick activateAt and the target weaves left and right with
// the given period in ticks. A zero period flies straight.
func Weave(activateAt, period uint64) InputSource {
	return InputFunc(func(tick uint64) Input {
		in := Input{Activate: tick == activateAt}
		if period > 0 {
			phase := 2 * math.Pi * float64(tick%period) / float64(period)
			in.Steer = vec.New(math.Sin(phase), 0)
		}
		return in
	})
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Sim   *Simulation
	Input InputSource // nil means NoInput
	Clock timeutil.Clock
	FPS   int
	// MaxTicks stops the runner after this many ticks; zero runs until
	// cancelled.
	MaxTicks uint64
	// OnError is called for step errors; nil logs them. The runner keeps
	// going either way.
	OnError func(error)
}

// Runner drives a Simulation at a fixed frame rate.
type Runner struct {
	cfg     RunnerConfig
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRunner creates a Runner. Missing clock and input fall back to the wall
// clock and NoInput.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Input == nil {
		cfg.Input = NoInput
	}
	return &Runner{cfg: cfg}
}

// Run steps the simulation on every frame tick. It blocks until the context
// is cancelled, Stop is called or MaxTicks is reached, and returns nil on a
// clean stop.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Sim == nil {
		return errors.New("runner: nil simulation")
	}
	interval := timeutil.FrameInterval(r.cfg.FPS)
	if interval <= 0 {
		return fmt.Errorf("runner: fps must be positive, got %d", r.cfg.FPS)
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil // already running
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	defer func() {
		close(r.doneCh)
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ticker := r.cfg.Clock.NewTicker(interval)
	defer ticker.Stop()

	logf("runner started: fps=%d interval=%v", r.cfg.FPS, interval)
	var n uint64
	for {
		select {
		case <-ctx.Done():
			logf("runner stopping after %d ticks: %v", n, ctx.Err())
			return nil
		case <-r.stopCh:
			logf("runner stopping after %d ticks: Stop() called", n)
			return nil
		case <-ticker.C():
			tick := r.cfg.Sim.Tick()
			if _, err := r.cfg.Sim.Step(r.cfg.Input.NextInput(tick)); err != nil {
				r.reportError(err)
			}
			n++
			if r.cfg.MaxTicks > 0 && n >= r.cfg.MaxTicks {
				logf("runner reached %d ticks", n)
				return nil
			}
		}
	}
}

func (r *Runner) reportError(err error) {
	if r.cfg.OnError != nil {
		r.cfg.OnError(err)
		return
	}
	logf("step failed: %v", err)
}

// Stop requests the runner to stop and waits for Run to return. It is safe
// to call multiple times.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	done := r.doneCh
	r.mu.Unlock()

	<-done
}

// IsRunning reports whether Run is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunHeadless steps s n times as fast as possible, checking ctx between
// ticks. Unlike Runner it stops at the first step error. It returns the
// last snapshot produced.
func RunHeadless(ctx context.Context, s *Simulation, n uint64, src InputSource) (Snapshot, error) {
	if src == nil {
		src = NoInput
	}
	last := s.Last()
	for i := uint64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		snap, err := s.Step(src.NextInput(s.Tick()))
		last = snap
		if err != nil {
			return last, err
		}
	}
	return last, nil
}
