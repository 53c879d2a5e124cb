// Package pursuer holds the pursuing entity. Its position is not integrated
// here: while active it is overwritten each tick with the estimator's
// predicted position.
package pursuer

import "github.com/banshee-data/pursuit/internal/vec"

// DefaultHitDistance is the proximity below which a hit is scored.
const DefaultHitDistance = 8.0

// Pursuer is the rocket chasing the target.
type Pursuer struct {
	position    vec.Vec2
	active      bool
	hitDistance float64
}

// New returns an inactive pursuer parked at start.
func New(start vec.Vec2, hitDistance float64) *Pursuer {
	return &Pursuer{position: start, hitDistance: hitDistance}
}

// Activate puts the pursuer under estimator control.
func (p *Pursuer) Activate() { p.active = true }

// Deactivate freezes the pursuer at its current position.
func (p *Pursuer) Deactivate() { p.active = false }

// Active reports whether the pursuer is estimator-driven.
func (p *Pursuer) Active() bool { return p.active }

// Position returns the current position.
func (p *Pursuer) Position() vec.Vec2 { return p.position }

// SetPosition overwrites the position. It is ignored while inactive so a
// frozen pursuer cannot drift.
func (p *Pursuer) SetPosition(pos vec.Vec2) {
	if !p.active {
		return
	}
	p.position = pos
}

// HitDistance returns the configured hit threshold.
func (p *Pursuer) HitDistance() float64 { return p.hitDistance }

// CheckHit reports whether target lies strictly closer than the hit distance.
func (p *Pursuer) CheckHit(target vec.Vec2) bool {
	return p.position.Dist(target) < p.hitDistance
}
