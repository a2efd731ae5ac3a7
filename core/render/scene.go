package render

import (
	"storformat/core/determinism"
	"storformat/core/types"
)

// DesignInput is the uploaded design to draw
type DesignInput struct {
	Placement types.DesignPlacement
	// Href is the image reference, usually a blob URL or data URL
	Href string
}

// Input is everything the renderer draws from
type Input struct {
	Selection    types.SelectionState
	Design       *DesignInput
	Foils        []types.CutLettersFoil
	ActiveFoilID int
}

// DesignLayer is the uploaded design scaled to the live box
type DesignLayer struct {
	Rect      Rect                  `json:"rect"`
	Href      string                `json:"href"`
	Placement types.DesignPlacement `json:"placement"`
}

// Scene is the full visual tree of one render
type Scene struct {
	Box        Box           `json:"box"`
	Variant    types.Variant `json:"variant"`
	Look       Look          `json:"look"`
	Rings      Rings         `json:"rings"`
	RingPoints []Point       `json:"ringPoints,omitempty"`
	Overlays   []Overlay     `json:"overlays,omitempty"`
	Design     *DesignLayer  `json:"design,omitempty"`
	Foils      []FoilLayout  `json:"foils,omitempty"`
}

// Signature identifies the scene's content so unchanged scenes need not be presented again
func (s *Scene) Signature() determinism.Signature {
	if s == nil {
		return ""
	}
	return determinism.SignatureOf(s)
}

// DesignRect scales placement ratios to box pixels
func DesignRect(p types.DesignPlacement, box Box) Rect {
	return Rect{
		X: p.XRatio * box.Width,
		Y: p.YRatio * box.Height,
		W: p.WidthRatio * box.Width,
		H: p.HeightRatio * box.Height,
	}
}

// PlacementFromRect converts a pixel rectangle back to ratios of box
func PlacementFromRect(r Rect, box Box) types.DesignPlacement {
	if box.Width <= 0 || box.Height <= 0 {
		return types.DesignPlacement{}
	}
	return types.DesignPlacement{
		XRatio:      r.X / box.Width,
		YRatio:      r.Y / box.Height,
		WidthRatio:  r.W / box.Width,
		HeightRatio: r.H / box.Height,
	}
}

// Renderer builds scenes within a maximum pixel box
type Renderer struct {
	maxW, maxH float64
	measurer   TextMeasurer
}

// NewRenderer creates a renderer. A nil measurer uses the Go font measurer.
func NewRenderer(maxW, maxH float64, m TextMeasurer) *Renderer {
	if m == nil {
		m = NewFontMeasurer()
	}
	return &Renderer{maxW: maxW, maxH: maxH, measurer: m}
}

// Box returns the banner box for sel
func (r *Renderer) Box(sel types.SelectionState) Box {
	return BannerBox(sel.WidthCm, sel.HeightCm, r.maxW, r.maxH)
}

// Foil lays out one foil inside box with the renderer's measurer
func (r *Renderer) Foil(f types.CutLettersFoil, box Box) FoilLayout {
	return LayoutFoil(f, box, r.measurer)
}

// Render builds the scene for in. Cut-letter variants draw foils and no design;
// every other variant draws the design and no foils.
func (r *Renderer) Render(in Input) *Scene {
	sel := in.Selection
	box := r.Box(sel)
	metrics := RingMetrics(sel.WidthCm, sel.HeightCm)

	scene := &Scene{
		Box:      box,
		Variant:  sel.Variant,
		Look:     Appearance(sel.Variant),
		Rings:    metrics,
		Overlays: FinishingOverlays(box, sel.Finishing, metrics),
	}
	if sel.Finishing.Rings {
		scene.RingPoints = RingPositions(box, metrics, sel.WidthCm, sel.HeightCm, sel.Finishing.RingSpacingCm)
	}

	if sel.Variant == types.VariantCutLetters {
		for _, f := range in.Foils {
			if !visibleFoil(f) {
				continue
			}
			layout := r.Foil(f, box)
			layout.Active = f.ID == in.ActiveFoilID
			scene.Foils = append(scene.Foils, layout)
		}
		return scene
	}

	if in.Design != nil && in.Design.Href != "" {
		scene.Design = &DesignLayer{
			Rect:      DesignRect(in.Design.Placement, box),
			Href:      in.Design.Href,
			Placement: in.Design.Placement,
		}
	}
	return scene
}
