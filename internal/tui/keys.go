package tui

import (
	"sync"

	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/vec"
	"github.com/gdamore/tcell/v2"
)

// directions maps numpad digits and vi keys to screen-space steering
// vectors (y grows downward). Diagonals are deliberately not normalized:
// the target's heading blend normalizes the result.
var directions = map[rune]vec.Vec2{
	'1': vec.New(-1, 1), 'b': vec.New(-1, 1),
	'2': vec.New(0, 1), 'j': vec.New(0, 1),
	'3': vec.New(1, 1), 'n': vec.New(1, 1),
	'4': vec.New(-1, 0), 'h': vec.New(-1, 0),
	'6': vec.New(1, 0), 'l': vec.New(1, 0),
	'7': vec.New(-1, -1), 'y': vec.New(-1, -1),
	'8': vec.New(0, -1), 'k': vec.New(0, -1),
	'9': vec.New(1, -1), 'u': vec.New(1, -1),
}

// DirectionFor returns the steering vector bound to r.
func DirectionFor(r rune) (vec.Vec2, bool) {
	d, ok := directions[r]
	return d, ok
}

// Controls turns key events into per-tick sim.Input. Events are collected
// between ticks: each distinct direction pressed is latched once, so key
// repeat does not multiply the turn, and the latched directions are summed
// as simultaneously held keys would be. Triggers are latched the same way.
type Controls struct {
	mu      sync.Mutex
	pending sim.Input
	steer   map[vec.Vec2]struct{}
}

// NewControls returns an empty Controls.
func NewControls() *Controls {
	return &Controls{steer: make(map[vec.Vec2]struct{})}
}

func (c *Controls) latch(d vec.Vec2) {
	if c.steer == nil {
		c.steer = make(map[vec.Vec2]struct{})
	}
	c.steer[d] = struct{}{}
}

// HandleKey records ev. It returns true when the key asks to quit.
func (c *Controls) HandleKey(ev *tcell.EventKey) (quit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		c.pending.Deactivate = true
		return false
	case tcell.KeyUp:
		c.latch(vec.New(0, -1))
		return false
	case tcell.KeyDown:
		c.latch(vec.New(0, 1))
		return false
	case tcell.KeyLeft:
		c.latch(vec.New(-1, 0))
		return false
	case tcell.KeyRight:
		c.latch(vec.New(1, 0))
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	r := ev.Rune()
	if d, ok := DirectionFor(r); ok {
		c.latch(d)
		return false
	}
	switch r {
	case 'q':
		return true
	case '+', '=':
		c.pending.Accelerate = true
	case '-', '_':
		c.pending.Decelerate = true
	case ' ':
		c.pending.Activate = true
	case 'd':
		c.pending.Deactivate = true
	}
	return false
}

// NextInput implements sim.InputSource. It hands over everything collected
// since the previous tick and starts a fresh collection.
func (c *Controls) NextInput(uint64) sim.Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	in := c.pending
	for d := range c.steer {
		in.Steer = in.Steer.Add(d)
	}
	c.pending = sim.Input{}
	clear(c.steer)
	return in
}
