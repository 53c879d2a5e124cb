package tui

import (
	"fmt"

	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/vec"
	"github.com/gdamore/tcell/v2"
)

const (
	overlayWidth = 38
	trailLength  = 24
)

var (
	styleDefault = tcell.StyleDefault
	stylePlane   = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleTrail   = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleRocket  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleIdle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHit     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Reverse(true)
	styleOverlay = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// Renderer draws snapshots onto a tcell screen, scaling the world to the
// current terminal size.
type Renderer struct {
	screen tcell.Screen
	world  vec.Vec2
	trail  []vec.Vec2
}

// NewRenderer creates a renderer for a world of the given extent.
func NewRenderer(screen tcell.Screen, world vec.Vec2) *Renderer {
	return &Renderer{screen: screen, world: world}
}

// Cell maps a world position to a screen cell.
func (r *Renderer) Cell(p vec.Vec2) (int, int) {
	w, h := r.screen.Size()
	return scale(p.X, r.world.X, w), scale(p.Y, r.world.Y, h)
}

func scale(v, extent float64, cells int) int {
	if cells <= 0 || extent <= 0 {
		return 0
	}
	c := int(v / extent * float64(cells))
	if c < 0 {
		return 0
	}
	if c >= cells {
		return cells - 1
	}
	return c
}

// Draw renders one frame and shows it.
func (r *Renderer) Draw(s sim.Snapshot) {
	r.screen.Clear()

	r.trail = append(r.trail, s.Target)
	if len(r.trail) > trailLength {
		r.trail = r.trail[len(r.trail)-trailLength:]
	}
	for _, p := range r.trail[:len(r.trail)-1] {
		x, y := r.Cell(p)
		r.screen.SetContent(x, y, '.', nil, styleTrail)
	}

	px, py := r.Cell(s.Target)
	r.screen.SetContent(px, py, PlaneGlyph(s.Direction), nil, stylePlane)

	rx, ry := r.Cell(s.Pursuer)
	switch {
	case s.Hit:
		r.screen.SetContent(rx, ry, 'X', nil, styleHit)
	case s.Active:
		r.screen.SetContent(rx, ry, '*', nil, styleRocket)
	default:
		r.screen.SetContent(rx, ry, 'o', nil, styleIdle)
	}

	r.drawOverlay(s)
	r.screen.Show()
}

// Overlay returns the status lines shown in the top-right corner.
func Overlay(s sim.Snapshot) []string {
	active := "No"
	if s.Active {
		active = "Yes"
	}
	return []string{
		fmt.Sprintf("Plane Speed: %.2f", s.Speed),
		"Plane Direction: " + sim.FormatVec(s.Direction),
		"Rocket Position: " + sim.FormatVec(s.Pursuer),
		"Rocket Active: " + active,
		fmt.Sprintf("Hits: %d  Tick: %d", s.Hits, s.Tick),
	}
}

func (r *Renderer) drawOverlay(s sim.Snapshot) {
	w, _ := r.screen.Size()
	x0 := w - overlayWidth
	if x0 < 0 {
		x0 = 0
	}
	for row, line := range Overlay(s) {
		drawText(r.screen, x0, row, styleOverlay, line)
	}
	_, h := r.screen.Size()
	drawText(r.screen, 0, h-1, styleDefault, "numpad/hjklyubn steer  +/- speed  space fire  d disarm  q quit")
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	w, _ := screen.Size()
	for _, ch := range text {
		if x >= w {
			return
		}
		screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

// PlaneGlyph picks an arrow for the dominant axis of the heading.
func PlaneGlyph(d vec.Vec2) rune {
	ax, ay := d.X, d.Y
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	switch {
	case ax >= ay && d.X >= 0:
		return '>'
	case ax >= ay:
		return '<'
	case d.Y < 0:
		return '^'
	default:
		return 'v'
	}
}
