package target

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
)

func smallWorld() Config {
	cfg := DefaultConfig()
	cfg.World = vec.New(100, 50)
	return cfg
}

// ---------------------------------------------------------------------------
// Advance
// ---------------------------------------------------------------------------

func TestAdvanceEuler(t *testing.T) {
	t.Parallel()

	tg := New(vec.New(50, 25), smallWorld())
	tg.Advance(1.0)

	// Heading north at speed 2.
	assert.InDelta(t, 50.0, tg.Position().X, 1e-12)
	assert.InDelta(t, 23.0, tg.Position().Y, 1e-12)

	tg.Advance(0.5)
	assert.InDelta(t, 22.0, tg.Position().Y, 1e-12)
}

func TestAdvanceToroidalWrap(t *testing.T) {
	t.Parallel()

	const eps = 1e-3

	tests := []struct {
		name    string
		start   vec.Vec2
		heading vec.Vec2
		speed   float64
		want    vec.Vec2
	}{
		{"exit right", vec.New(100-eps, 10), vec.New(1, 0), 2 * eps, vec.New(0, 10)},
		{"exit left", vec.New(eps, 10), vec.New(-1, 0), 2 * eps, vec.New(100, 10)},
		{"exit bottom", vec.New(10, 50-eps), vec.New(0, 1), 2 * eps, vec.New(10, 0)},
		{"exit top", vec.New(10, eps), vec.New(0, -1), 2 * eps, vec.New(10, 50)},
		{"land exactly on edge", vec.New(99, 10), vec.New(1, 0), 1, vec.New(100, 10)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := smallWorld()
			cfg.Heading = tt.heading
			cfg.MinSpeed = 0
			cfg.Speed = tt.speed
			tg := New(tt.start, cfg)

			tg.Advance(1)

			assert.InDelta(t, tt.want.X, tg.Position().X, 1e-9)
			assert.InDelta(t, tt.want.Y, tg.Position().Y, 1e-9)
		})
	}
}

func TestAdvanceStaysInsideWorld(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	cfg := smallWorld()
	cfg.Speed = 7
	tg := New(vec.New(10, 10), cfg)

	for i := 0; i < 5000; i++ {
		tg.Steer(vec.New(rng.Float64()*2-1, rng.Float64()*2-1))
		tg.Advance(1)
		p := tg.Position()
		assert.True(t, p.X >= 0 && p.X <= 100, "x=%f out of world at tick %d", p.X, i)
		assert.True(t, p.Y >= 0 && p.Y <= 50, "y=%f out of world at tick %d", p.Y, i)
	}
}

// ---------------------------------------------------------------------------
// Steer
// ---------------------------------------------------------------------------

func TestSteerKeepsUnitHeading(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	tg := New(vec.New(0, 0), DefaultConfig())

	for i := 0; i < 1000; i++ {
		in := vec.New(rng.NormFloat64()*5, rng.NormFloat64()*5)
		tg.Steer(in)
		assert.InDelta(t, 1.0, tg.Direction().Len(), 1e-12)
	}
}

func TestSteerZeroInputIsNoop(t *testing.T) {
	t.Parallel()

	tg := New(vec.New(0, 0), DefaultConfig())
	tg.Steer(vec.New(1, 1))
	before := tg.Direction()

	tg.Steer(vec.Vec2{})

	assert.Equal(t, before, tg.Direction())
}

func TestSteerIsLowPass(t *testing.T) {
	t.Parallel()

	tg := New(vec.New(0, 0), DefaultConfig())
	east := vec.New(1, 0)

	tg.Steer(east)
	want, _ := vec.New(0.1, -1).Normalize()
	assert.InDelta(t, want.X, tg.Direction().X, 1e-12)
	assert.InDelta(t, want.Y, tg.Direction().Y, 1e-12)

	// A single tick of input does not swing the heading over.
	assert.Less(t, tg.Direction().X, 0.2)

	for i := 0; i < 200; i++ {
		tg.Steer(east)
	}
	assert.InDelta(t, 1.0, tg.Direction().X, 1e-3)
}

func TestSteerDiagonalInput(t *testing.T) {
	t.Parallel()

	// Numpad diagonals are not unit length; the blend still normalises.
	tg := New(vec.New(0, 0), DefaultConfig())
	tg.Steer(vec.New(-1, 1))
	d := tg.Direction()
	assert.InDelta(t, 1.0, d.Len(), 1e-12)
	assert.InDelta(t, math.Atan2(-0.9, -0.1), math.Atan2(d.Y, d.X), 1e-12)
}

// ---------------------------------------------------------------------------
// Speed
// ---------------------------------------------------------------------------

func TestSpeedSaturates(t *testing.T) {
	t.Parallel()

	tg := New(vec.New(0, 0), DefaultConfig())
	assert.Equal(t, 2.0, tg.Speed())

	tg.Accelerate()
	assert.Equal(t, 2.5, tg.Speed())

	for i := 0; i < 100; i++ {
		tg.Accelerate()
	}
	assert.Equal(t, 10.0, tg.Speed())

	for i := 0; i < 100; i++ {
		tg.Decelerate()
	}
	assert.Equal(t, 0.5, tg.Speed())
}

func TestNewClampsInitialSpeedAndHeading(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Speed = 50
	cfg.Heading = vec.Vec2{}
	tg := New(vec.New(1, 2), cfg)

	assert.Equal(t, 10.0, tg.Speed())
	assert.Equal(t, vec.New(0, -1), tg.Direction())
	assert.Equal(t, vec.New(1, 2), tg.Position())
	assert.Equal(t, cfg.World, tg.World())
}
