package sim

import (
	"fmt"
	"math"

	"github.com/banshee-data/pursuit/internal/vec"
)

// Snapshot is the read model of one tick for renderers and recorders.
// Positions keep full precision; use Rounded or FormatVec for display.
type Snapshot struct {
	Tick      uint64   `json:"tick"`
	Target    vec.Vec2 `json:"target"`
	Direction vec.Vec2 `json:"direction"`
	Speed     float64  `json:"speed"`
	Pursuer   vec.Vec2 `json:"pursuer"`
	Active    bool     `json:"active"`

	Measured          vec.Vec2 `json:"measured"` // sighting passed to the update
	Estimate          vec.Vec2 `json:"estimate"` // filter position after the update
	EstimatedVelocity vec.Vec2 `json:"estimated_velocity"`
	CovarianceTrace   float64  `json:"covariance_trace"`
	Innovation        vec.Vec2 `json:"innovation"`

	MissDistance float64 `json:"miss_distance"`
	Hit          bool    `json:"hit"`
	Hits         int     `json:"hits"`
}

// Rounded rounds both coordinates to the nearest integer, half away from
// zero, for grid rendering.
func Rounded(p vec.Vec2) vec.Vec2 {
	return vec.New(math.Round(p.X), math.Round(p.Y))
}

// FormatVec renders p with two decimals, e.g. "(800.00, 598.00)".
func FormatVec(p vec.Vec2) string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// Status is the one-line overlay text for a snapshot.
func (s Snapshot) Status() string {
	state := "idle"
	if s.Active {
		state = "active"
	}
	return fmt.Sprintf("tick %d  plane %s speed %.2f dir %s  rocket %s %s  hits %d",
		s.Tick, FormatVec(s.Target), s.Speed, FormatVec(s.Direction), FormatVec(s.Pursuer), state, s.Hits)
}
