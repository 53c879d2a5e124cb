// Package target owns the evading entity's kinematics: explicit-Euler motion
// on a toroidal world, low-pass steering, and saturating speed control.
package target

import (
	"math"

	"github.com/banshee-data/pursuit/internal/vec"
)

// Config holds construction-time motion parameters.
type Config struct {
	World     vec.Vec2 // World extent; positions live in [0, World.X] x [0, World.Y]
	Speed     float64  // Initial speed, clamped to [MinSpeed, MaxSpeed]
	MinSpeed  float64
	MaxSpeed  float64
	SpeedStep float64 // Increment applied by Accelerate/Decelerate
	SteerGain float64 // Weight of a steering input blended into the heading
	Heading   vec.Vec2 // Initial heading; zero means north (0, -1)
}

// DefaultConfig mirrors the stock scenario: a 1600x1200 world, speed 2 in
// [0.5, 10] with 0.5 steps, and a 0.1 steering gain.
func DefaultConfig() Config {
	return Config{
		World:     vec.New(1600, 1200),
		Speed:     2.0,
		MinSpeed:  0.5,
		MaxSpeed:  10,
		SpeedStep: 0.5,
		SteerGain: 0.1,
		Heading:   vec.New(0, -1),
	}
}

// Target is the manoeuvring entity. It is mutated by one caller per tick.
type Target struct {
	cfg       Config
	position  vec.Vec2
	direction vec.Vec2
	speed     float64
}

// New places a target at start.
func New(start vec.Vec2, cfg Config) *Target {
	heading, ok := cfg.Heading.Normalize()
	if !ok {
		heading = vec.New(0, -1)
	}
	t := &Target{
		cfg:       cfg,
		position:  start,
		direction: heading,
	}
	t.speed = t.clamp(cfg.Speed)
	return t
}

// Advance moves the target by direction*speed*dt and wraps each coordinate
// that left the world onto the opposite edge.
func (t *Target) Advance(dt float64) {
	t.position = t.position.Add(t.direction.Scale(t.speed * dt))
	t.position.X = wrap(t.position.X, t.cfg.World.X)
	t.position.Y = wrap(t.position.Y, t.cfg.World.Y)
}

// wrap re-enters a coordinate past either edge at the opposite one. A value
// exactly on an edge is inside the world.
func wrap(v, dim float64) float64 {
	switch {
	case v < 0:
		return dim
	case v > dim:
		return 0
	}
	return v
}

// Steer blends input into the heading: direction = normalize(direction +
// gain*input). A zero-length input is a no-op and leaves the heading as is.
func (t *Target) Steer(input vec.Vec2) {
	if input.Len() == 0 {
		return
	}
	if d, ok := t.direction.Add(input.Scale(t.cfg.SteerGain)).Normalize(); ok {
		t.direction = d
	}
}

// Accelerate raises speed by one step, saturating at MaxSpeed.
func (t *Target) Accelerate() {
	t.speed = t.clamp(t.speed + t.cfg.SpeedStep)
}

// Decelerate lowers speed by one step, saturating at MinSpeed.
func (t *Target) Decelerate() {
	t.speed = t.clamp(t.speed - t.cfg.SpeedStep)
}

func (t *Target) clamp(s float64) float64 {
	return math.Min(math.Max(s, t.cfg.MinSpeed), t.cfg.MaxSpeed)
}

// Position returns the current position.
func (t *Target) Position() vec.Vec2 { return t.position }

// Direction returns the unit heading.
func (t *Target) Direction() vec.Vec2 { return t.direction }

// Speed returns the current scalar speed.
func (t *Target) Speed() float64 { return t.speed }

// World returns the world extent used for wrapping.
func (t *Target) World() vec.Vec2 { return t.cfg.World }
