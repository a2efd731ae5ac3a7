// Package interaction - Interaction Controller
// Pointer-driven drag and resize of the uploaded design and of cut-letter foils.
// Each controller is an explicit state machine: Idle, Dragging or Resizing, tracking
// one pointer at a time.
package interaction

import (
	"math"

	"storformat/core/render"
)

// PointerKind is the pointer event type
type PointerKind string

const (
	PointerDown   PointerKind = "down"
	PointerMove   PointerKind = "move"
	PointerUp     PointerKind = "up"
	PointerCancel PointerKind = "cancel"
)

// Target is the element a pointer went down on
type Target string

const (
	TargetBody Target = "body"
	TargetNW   Target = render.HandleNW
	TargetNE   Target = render.HandleNE
	TargetSW   Target = render.HandleSW
	TargetSE   Target = render.HandleSE
)

// IsHandle reports whether t is one of the four corner handles
func (t Target) IsHandle() bool {
	switch t {
	case TargetNW, TargetNE, TargetSW, TargetSE:
		return true
	default:
		return false
	}
}

func (t Target) north() bool { return t == TargetNW || t == TargetNE }
func (t Target) west() bool  { return t == TargetNW || t == TargetSW }

// PointerEvent is one pointer event in banner box pixels.
// FoilID names the foil under the pointer for foil interactions.
type PointerEvent struct {
	PointerID int         `json:"pointerId"`
	Kind      PointerKind `json:"kind"`
	Target    Target      `json:"target"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	FoilID    int         `json:"foilId,omitempty"`
}

func (e PointerEvent) point() render.Point {
	return render.Point{X: e.X, Y: e.Y}
}

// State is one of Idle, Dragging or Resizing
type State interface {
	isState()
}

// Idle means no pointer is tracked
type Idle struct{}

// Dragging tracks a pointer moving the element
type Dragging struct {
	PointerID int
	Start     render.Point
	StartRect render.Rect
}

// Resizing tracks a pointer dragging a corner handle
type Resizing struct {
	PointerID int
	Handle    Target
	Start     render.Point
	StartRect render.Rect
	// Aspect is width / height at the start of the gesture
	Aspect float64
}

func (Idle) isState()     {}
func (Dragging) isState() {}
func (Resizing) isState() {}

// MinSizePx is the smallest edge a resize may produce
const MinSizePx = 24.0

// machine runs the shared transition table and reports the rectangle a gesture produced
type machine struct {
	state   State
	minSize float64
}

func newMachine(minSize float64) machine {
	return machine{state: Idle{}, minSize: minSize}
}

// step applies ev to the machine. It returns the gesture's new rectangle and true when
// the element moved or resized; the caller re-renders in that case.
func (m *machine) step(ev PointerEvent, rect render.Rect) (render.Rect, bool) {
	switch s := m.state.(type) {
	case Idle:
		if ev.Kind != PointerDown {
			return rect, false
		}
		switch {
		case ev.Target == TargetBody:
			m.state = Dragging{PointerID: ev.PointerID, Start: ev.point(), StartRect: rect}
		case ev.Target.IsHandle() && rect.W > 0 && rect.H > 0:
			m.state = Resizing{
				PointerID: ev.PointerID,
				Handle:    ev.Target,
				Start:     ev.point(),
				StartRect: rect,
				Aspect:    rect.W / rect.H,
			}
		}
		return rect, false

	case Dragging:
		if ev.PointerID != s.PointerID {
			return rect, false
		}
		switch ev.Kind {
		case PointerMove:
			r := s.StartRect
			r.X += ev.X - s.Start.X
			r.Y += ev.Y - s.Start.Y
			return r, true
		case PointerUp, PointerCancel:
			m.state = Idle{}
		}
		return rect, false

	case Resizing:
		if ev.PointerID != s.PointerID {
			return rect, false
		}
		switch ev.Kind {
		case PointerMove:
			return resize(s, ev.point(), m.minSize), true
		case PointerUp, PointerCancel:
			m.state = Idle{}
		}
		return rect, false

	default:
		m.state = Idle{}
		return rect, false
	}
}

// resize follows the dominant axis of the pointer delta, keeps the aspect ratio and
// anchors the corner opposite the handle.
func resize(s Resizing, p render.Point, minSize float64) render.Rect {
	dx := p.X - s.Start.X
	dy := p.Y - s.Start.Y
	if s.Handle.west() {
		dx = -dx
	}
	if s.Handle.north() {
		dy = -dy
	}

	start := s.StartRect
	var w, h float64
	if math.Abs(dx) >= math.Abs(dy) {
		w = start.W + dx
		h = w / s.Aspect
	} else {
		h = start.H + dy
		w = h * s.Aspect
	}
	if short := math.Min(w, h); short < minSize {
		// a delta past the opposite corner restarts from the original size
		if short <= 0 {
			w, h = start.W, start.H
			short = math.Min(w, h)
		}
		w, h = w*minSize/short, h*minSize/short
	}

	r := render.Rect{X: start.X, Y: start.Y, W: w, H: h}
	if s.Handle.west() {
		r.X = start.X + start.W - w
	}
	if s.Handle.north() {
		r.Y = start.Y + start.H - h
	}
	return r
}
