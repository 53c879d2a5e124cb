// Package sim sequences one pursuit tick: capture the target sighting,
// advance the target, predict, move the pursuer, correct the estimate and
// test for a hit. Everything outside that sequence (rendering, input,
// recording) talks to a Simulation through Input, Snapshot and Observer.
package sim

import (
	"fmt"
	"sync"

	"github.com/banshee-data/pursuit/internal/config"
	"github.com/banshee-data/pursuit/internal/kalman"
	"github.com/banshee-data/pursuit/internal/monitoring"
	"github.com/banshee-data/pursuit/internal/pursuer"
	"github.com/banshee-data/pursuit/internal/target"
	"github.com/banshee-data/pursuit/internal/vec"
)

var logf = monitoring.Component("sim")

// MeasurementMode selects which target position feeds the estimator update.
type MeasurementMode int

const (
	// MeasureDelayed uses the position captured before the target advanced.
	MeasureDelayed MeasurementMode = iota
	// MeasureCurrent uses the position after the advance. It exists for
	// comparison runs and produces a different trajectory.
	MeasureCurrent
)

func (m MeasurementMode) String() string {
	switch m {
	case MeasureDelayed:
		return config.MeasureDelayed
	case MeasureCurrent:
		return config.MeasureCurrent
	}
	return fmt.Sprintf("MeasurementMode(%d)", int(m))
}

// ParseMeasurementMode maps a configuration string to a mode.
func ParseMeasurementMode(s string) (MeasurementMode, error) {
	switch s {
	case "", config.MeasureDelayed:
		return MeasureDelayed, nil
	case config.MeasureCurrent:
		return MeasureCurrent, nil
	}
	return 0, fmt.Errorf("unknown measurement mode %q", s)
}

// Input is the command set applied at the start of one tick.
type Input struct {
	Steer      vec.Vec2 // zero for no steering
	Accelerate bool
	Decelerate bool
	Activate   bool
	Deactivate bool // wins over Activate when both are set
}

// Observer receives every snapshot after the tick that produced it.
type Observer interface {
	ObserveTick(Snapshot)
}

// ObserverFunc adapts a plain func to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) ObserveTick(s Snapshot) { f(s) }

// Simulation owns the target, pursuer and estimator. Step calls are
// serialized; Last and the accessors may be called from other goroutines.
type Simulation struct {
	stepMu sync.Mutex // serializes Step, including observer delivery

	mu              sync.RWMutex
	target          *target.Target
	pursuer         *pursuer.Pursuer
	filter          *kalman.Filter
	mode            MeasurementMode
	motionDt        float64
	resetOnActivate bool
	tick            uint64
	hits            int
	last            Snapshot

	observers []Observer
}

// New builds a simulation from cfg. A nil cfg uses the stock defaults.
func New(cfg *config.SimConfig) (*Simulation, error) {
	if cfg == nil {
		cfg = config.EmptySimConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	mode, err := ParseMeasurementMode(cfg.GetMeasurementMode())
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		target:          target.New(vec.New(cfg.GetTargetStartX(), cfg.GetTargetStartY()), TargetConfig(cfg)),
		pursuer:         pursuer.New(vec.New(cfg.GetPursuerStartX(), cfg.GetPursuerStartY()), cfg.GetHitDistance()),
		filter:          kalman.New(FilterParams(cfg)),
		mode:            mode,
		motionDt:        cfg.GetMotionTimeStep(),
		resetOnActivate: cfg.GetResetFilterOnActivate(),
	}
	s.last = s.snapshotLocked()
	return s, nil
}

// TargetConfig converts the simulation configuration into target motion
// parameters.
func TargetConfig(cfg *config.SimConfig) target.Config {
	tc := target.DefaultConfig()
	tc.World = vec.New(cfg.GetWorldWidth(), cfg.GetWorldHeight())
	tc.Speed = cfg.GetTargetSpeed()
	tc.MinSpeed = cfg.GetMinSpeed()
	tc.MaxSpeed = cfg.GetMaxSpeed()
	tc.SpeedStep = cfg.GetSpeedStep()
	tc.SteerGain = cfg.GetSteerGain()
	return tc
}

// FilterParams converts the simulation configuration into estimator
// parameters.
func FilterParams(cfg *config.SimConfig) kalman.Params {
	return kalman.Params{
		Dt:       cfg.GetFilterDt(),
		ControlX: cfg.GetControlX(),
		ControlY: cfg.GetControlY(),
		StdAcc:   cfg.GetStdAcc(),
		StdMeasX: cfg.GetStdMeasX(),
		StdMeasY: cfg.GetStdMeasY(),
	}
}

// AddObserver registers o for every subsequent tick.
func (s *Simulation) AddObserver(o Observer) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.observers = append(s.observers, o)
}

// Step runs one tick. An estimator failure is returned wrapped with the
// tick number; the tick still counts and the snapshot reflects the state
// left behind, with the estimate unchanged by the failed correction.
func (s *Simulation) Step(in Input) (Snapshot, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	snap, err := s.stepLocked(in)
	for _, o := range s.observers {
		o.ObserveTick(snap)
	}
	return snap, err
}

func (s *Simulation) stepLocked(in Input) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	s.apply(in)

	sighting := s.target.Position()
	s.target.Advance(s.motionDt)
	if s.mode == MeasureCurrent {
		sighting = s.target.Position()
	}

	var err error
	if s.pursuer.Active() {
		s.pursuer.SetPosition(s.filter.Predict())
		if _, uerr := s.filter.Update(sighting); uerr != nil {
			err = fmt.Errorf("tick %d: %w", s.tick, uerr)
		}
	}

	hit := false
	if s.pursuer.Active() && s.pursuer.CheckHit(s.target.Position()) {
		hit = true
		s.hits++
		s.pursuer.Deactivate()
		logf("pursuer hit target at tick %d (%s)", s.tick, FormatVec(s.target.Position()))
	}

	snap := s.snapshotLocked()
	snap.Measured = sighting
	snap.Hit = hit
	s.last = snap
	return snap, err
}

func (s *Simulation) apply(in Input) {
	s.target.Steer(in.Steer)
	if in.Accelerate {
		s.target.Accelerate()
	}
	if in.Decelerate {
		s.target.Decelerate()
	}
	switch {
	case in.Deactivate:
		if s.pursuer.Active() {
			s.pursuer.Deactivate()
			logf("pursuer deactivated at tick %d", s.tick)
		}
	case in.Activate:
		if !s.pursuer.Active() {
			if s.resetOnActivate {
				s.filter.Reset()
			}
			s.pursuer.Activate()
			logf("pursuer activated at tick %d", s.tick)
		}
	}
}

func (s *Simulation) snapshotLocked() Snapshot {
	p := s.filter.Covariance()
	return Snapshot{
		Tick:              s.tick,
		Target:            s.target.Position(),
		Direction:         s.target.Direction(),
		Speed:             s.target.Speed(),
		Pursuer:           s.pursuer.Position(),
		Active:            s.pursuer.Active(),
		Estimate:          s.filter.Position(),
		EstimatedVelocity: s.filter.Velocity(),
		CovarianceTrace:   p.Trace(),
		Innovation:        s.filter.LastInnovation(),
		MissDistance:      s.pursuer.Position().Dist(s.target.Position()),
		Hits:              s.hits,
	}
}

// Last returns the snapshot of the most recent tick, or the initial state
// before the first Step.
func (s *Simulation) Last() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Tick returns the number of ticks executed.
func (s *Simulation) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Mode returns the configured measurement mode.
func (s *Simulation) Mode() MeasurementMode { return s.mode }

// World returns the world extent.
func (s *Simulation) World() vec.Vec2 { return s.target.World() }

// HitDistance returns the pursuer's hit threshold.
func (s *Simulation) HitDistance() float64 { return s.pursuer.HitDistance() }
