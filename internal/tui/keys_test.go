package tui

import (
	"math"
	"testing"

	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/vec"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestDirectionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		keys string
		want vec.Vec2
	}{
		{"8k", vec.New(0, -1)},
		{"2j", vec.New(0, 1)},
		{"4h", vec.New(-1, 0)},
		{"6l", vec.New(1, 0)},
		{"7y", vec.New(-1, -1)},
		{"9u", vec.New(1, -1)},
		{"1b", vec.New(-1, 1)},
		{"3n", vec.New(1, 1)},
	}
	for _, tt := range tests {
		for _, r := range tt.keys {
			got, ok := DirectionFor(r)
			assert.True(t, ok, "%q", r)
			assert.Equal(t, tt.want, got, "%q", r)
		}
	}

	_, ok := DirectionFor('5')
	assert.False(t, ok, "centre key does not steer")

	d, _ := DirectionFor('9')
	assert.InDelta(t, math.Sqrt2, d.Len(), 1e-12, "diagonals are not normalized")
}

func TestControlsLatchUntilNextInput(t *testing.T) {
	t.Parallel()

	c := NewControls()
	assert.False(t, c.HandleKey(runeKey('8')))
	assert.False(t, c.HandleKey(runeKey('6')))
	assert.False(t, c.HandleKey(runeKey('+')))
	assert.False(t, c.HandleKey(runeKey(' ')))

	in := c.NextInput(0)
	assert.Equal(t, sim.Input{Steer: vec.New(1, -1), Accelerate: true, Activate: true}, in)
	assert.Equal(t, sim.Input{}, c.NextInput(1), "collection restarts each tick")
}

func TestControlsKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want sim.Input
		quit bool
	}{
		{"minus", runeKey('-'), sim.Input{Decelerate: true}, false},
		{"equals accelerates", runeKey('='), sim.Input{Accelerate: true}, false},
		{"deactivate", runeKey('d'), sim.Input{Deactivate: true}, false},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), sim.Input{Deactivate: true}, false},
		{"arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), sim.Input{Steer: vec.New(-1, 0)}, false},
		{"unbound", runeKey('z'), sim.Input{}, false},
		{"q", runeKey('q'), sim.Input{}, true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), sim.Input{}, true},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), sim.Input{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewControls()
			assert.Equal(t, tt.quit, c.HandleKey(tt.ev))
			assert.Equal(t, tt.want, c.NextInput(0))
		})
	}
}

func TestOpposingKeysCancel(t *testing.T) {
	t.Parallel()

	c := NewControls()
	c.HandleKey(runeKey('4'))
	c.HandleKey(runeKey('6'))
	in := c.NextInput(0)
	assert.True(t, in.Steer.IsZero(), "zero net steering is a no-op for the target")
}

func TestRepeatedDirectionLatchesOnce(t *testing.T) {
	t.Parallel()

	right := tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)
	tests := []struct {
		name string
		evs  []*tcell.EventKey
		want vec.Vec2
	}{
		{"rune repeat", []*tcell.EventKey{runeKey('l'), runeKey('l'), runeKey('l')}, vec.New(1, 0)},
		{"aliases of one direction", []*tcell.EventKey{runeKey('6'), runeKey('l'), right}, vec.New(1, 0)},
		{"repeat plus another direction", []*tcell.EventKey{runeKey('8'), runeKey('8'), runeKey('6')}, vec.New(1, -1)},
		{"repeat against opposite", []*tcell.EventKey{runeKey('4'), runeKey('6'), runeKey('6')}, vec.Vec2{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewControls()
			for _, ev := range tt.evs {
				c.HandleKey(ev)
			}
			assert.Equal(t, tt.want, c.NextInput(0).Steer)
			assert.Equal(t, vec.Vec2{}, c.NextInput(1).Steer, "latched directions clear each tick")
		})
	}
}
