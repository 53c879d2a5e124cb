package tui

import (
	"time"

	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate   = beep.SampleRate(44100)
	hitFrequency = 880
	hitDuration  = 80 * time.Millisecond
)

// Sound plays a short tone on every hit. A Sound whose speaker could not be
// initialised stays silent.
type Sound struct {
	enabled bool
}

// NewSound initialises the speaker. Failure is not fatal: the returned
// Sound is silent and err says why.
func NewSound() (*Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &Sound{}, err
	}
	return &Sound{enabled: true}, nil
}

// Enabled reports whether tones are audible.
func (s *Sound) Enabled() bool { return s != nil && s.enabled }

// ObserveTick implements sim.Observer.
func (s *Sound) ObserveTick(snap sim.Snapshot) {
	if snap.Hit {
		s.PlayHit()
	}
}

// PlayHit plays the hit tone without blocking.
func (s *Sound) PlayHit() {
	if !s.Enabled() {
		return
	}
	sine, err := generators.SineTone(sampleRate, hitFrequency)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(hitDuration), sine))
}

// Close releases the speaker.
func (s *Sound) Close() {
	if s.Enabled() {
		speaker.Close()
		s.enabled = false
	}
}
