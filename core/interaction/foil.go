package interaction

import (
	"storformat/core/render"
	"storformat/core/types"
)

// FoilController moves and scales the active cut-letter foil
type FoilController struct {
	m machine
	// start is the foil as it was when the gesture began
	start types.CutLettersFoil
}

// NewFoilController creates an idle controller
func NewFoilController() *FoilController {
	// scale is clamped separately, so the rectangle itself has no floor
	return &FoilController{m: newMachine(0)}
}

// State returns the current interaction state
func (c *FoilController) State() State {
	return c.m.state
}

// Reset drops any tracked pointer
func (c *FoilController) Reset() {
	c.m.state = Idle{}
}

// Handle applies ev to foil, whose laid-out bounds inside box are bounds. Dragging moves
// the foil centre, resizing scales it. It returns the updated foil and true when it changed.
func (c *FoilController) Handle(ev PointerEvent, foil types.CutLettersFoil, bounds render.Rect, box render.Box) (types.CutLettersFoil, bool) {
	if _, idle := c.m.state.(Idle); idle && ev.Kind == PointerDown {
		c.start = foil
	}
	next, changed := c.m.step(ev, bounds)
	if !changed || box.Width <= 0 || box.Height <= 0 {
		return foil, false
	}

	out := foil
	switch s := c.m.state.(type) {
	case Dragging:
		center := next.Center()
		out.XRatio = clampRange(center.X/box.Width, 0, 1)
		out.YRatio = clampRange(center.Y/box.Height, 0, 1)
	case Resizing:
		if s.StartRect.W <= 0 {
			return foil, false
		}
		scale := c.start.Scale
		if scale == 0 {
			scale = 1
		}
		out.Scale = clampRange(scale*next.W/s.StartRect.W, types.MinFoilScale, types.MaxFoilScale)
	}
	return out, true
}
