package interaction

import (
	"math"

	"storformat/core/render"
	"storformat/core/types"
)

// Design placement limits
const (
	// MaxOversize is how many times the banner a design may grow in either dimension
	MaxOversize = 4.0
	// MinVisiblePx must stay inside the banner on every edge
	MinVisiblePx = 12.0
)

// DesignController moves and resizes the uploaded design
type DesignController struct {
	m machine
}

// NewDesignController creates an idle controller
func NewDesignController() *DesignController {
	return &DesignController{m: newMachine(MinSizePx)}
}

// State returns the current interaction state
func (c *DesignController) State() State {
	return c.m.state
}

// Reset drops any tracked pointer
func (c *DesignController) Reset() {
	c.m.state = Idle{}
}

// Handle applies ev to the design at placement inside box. It returns the new placement,
// already clamped, and true when the design changed.
func (c *DesignController) Handle(ev PointerEvent, placement types.DesignPlacement, box render.Box) (types.DesignPlacement, bool) {
	rect := render.DesignRect(placement, box)
	next, changed := c.m.step(ev, rect)
	if !changed {
		return placement, false
	}
	return render.PlacementFromRect(ClampDesign(next, box), box), true
}

// ClampDesign limits a design rectangle to MaxOversize times the box and keeps at least
// MinVisiblePx of it inside the box on every edge. Clamping a clamped rectangle is a no-op.
func ClampDesign(r render.Rect, box render.Box) render.Rect {
	r.W = math.Min(r.W, MaxOversize*box.Width)
	r.H = math.Min(r.H, MaxOversize*box.Height)
	r.X = clampRange(r.X, MinVisiblePx-r.W, box.Width-MinVisiblePx)
	r.Y = clampRange(r.Y, MinVisiblePx-r.H, box.Height-MinVisiblePx)
	return r
}

// clampRange prefers lo when the range is empty
func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
