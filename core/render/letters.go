package render

import (
	"math"
	"strings"

	"storformat/core/types"
)

// Cut-letter layout constants
const (
	// baseFontRatio is the unscaled font size as a share of the box height
	baseFontRatio = 0.22
	foilPaddingPx = 8.0
	foilMarginPx  = 6.0
	// liftFactor turns curve percent into parabola height per font pixel
	liftFactor = 0.6
	// rotationPerCurve is the glyph tilt in degrees per unit of curve at the string ends
	rotationPerCurve = 0.14
	defaultFontName  = "Go"
)

// Glyph is one character of a curved foil, relative to the foil centre
type Glyph struct {
	Char   string  `json:"char"`
	X      float64 `json:"x"`
	DY     float64 `json:"dy"`
	Rotate float64 `json:"rotate"`
}

// FoilLayout is a measured and placed foil
type FoilLayout struct {
	ID     int       `json:"id"`
	Text   string    `json:"text"`
	Style  TextStyle `json:"style"`
	Center Point     `json:"center"`
	// Bounds is the padded bounding box
	Bounds Rect    `json:"bounds"`
	LiftPx float64 `json:"liftPx"`
	// Glyphs is set only for curved foils
	Glyphs []Glyph `json:"glyphs,omitempty"`
	Active bool    `json:"active"`
}

// Curved reports whether the foil is drawn glyph by glyph
func (f FoilLayout) Curved() bool {
	return len(f.Glyphs) > 0
}

// LayoutFoil measures foil at its candidate size, shrinks it until the padded box fits
// the frame, then clamps its centre so the whole box stays inside the frame margin.
func LayoutFoil(foil types.CutLettersFoil, frame Box, m TextMeasurer) FoilLayout {
	scale := foil.Scale
	if scale == 0 {
		scale = 1
	}
	scale = clamp(scale, types.MinFoilScale, types.MaxFoilScale)
	curve := clamp(foil.Curve, -types.MaxFoilCurve, types.MaxFoilCurve)

	style := TextStyle{
		FontName:        foil.FontName,
		SizePx:          frame.Height * baseFontRatio * scale,
		Weight:          foil.FontWeight,
		LetterSpacingPx: foil.LetterSpacingPx,
	}
	if style.FontName == "" {
		style.FontName = defaultFontName
	}

	metrics := m.Measure(foil.Text, style)
	w, h := content(metrics, style.SizePx, curve)
	roomW := frame.Width - 2*foilMarginPx - 2*foilPaddingPx
	roomH := frame.Height - 2*foilMarginPx - 2*foilPaddingPx
	if factor := math.Min(roomW/w, roomH/h); w > 0 && h > 0 && factor < 1 {
		style.SizePx *= math.Max(factor, 0)
		style.LetterSpacingPx *= math.Max(factor, 0)
		metrics = m.Measure(foil.Text, style)
		w, h = content(metrics, style.SizePx, curve)
	}
	if w > 0 {
		w += 2 * foilPaddingPx
		h += 2 * foilPaddingPx
	}

	center := Point{
		X: clampCenter(foil.XRatio*frame.Width, w, frame.Width),
		Y: clampCenter(foil.YRatio*frame.Height, h, frame.Height),
	}
	layout := FoilLayout{
		ID:     foil.ID,
		Text:   foil.Text,
		Style:  style,
		Center: center,
		Bounds: Rect{X: center.X - w/2, Y: center.Y - h/2, W: w, H: h},
		LiftPx: lift(style.SizePx, curve),
	}
	if curve != 0 {
		layout.Glyphs = curveGlyphs(foil.Text, metrics, style.LetterSpacingPx, curve, layout.LiftPx)
	}
	return layout
}

// lift is the parabola height of a curved foil
func lift(fontPx, curve float64) float64 {
	return fontPx * math.Abs(curve) / 100 * liftFactor
}

// content is the unpadded size of the measured text including the curve lift
func content(metrics TextMetrics, fontPx, curve float64) (w, h float64) {
	if metrics.Width == 0 {
		return 0, 0
	}
	return metrics.Width, metrics.Height + lift(fontPx, curve)
}

// clampCenter keeps a span of size centred at c inside [margin, limit-margin].
// A span wider than the room available is centred.
func clampCenter(c, size, limit float64) float64 {
	lo := foilMarginPx + size/2
	hi := limit - foilMarginPx - size/2
	if lo > hi {
		return limit / 2
	}
	return clamp(c, lo, hi)
}

// curveGlyphs spreads the characters along a parabola through the string's midpoint
func curveGlyphs(s string, metrics TextMetrics, spacing, curve, liftPx float64) []Glyph {
	runes := []rune(s)
	if len(runes) == 0 || len(metrics.Advances) != len(runes) || metrics.Width == 0 {
		return nil
	}
	half := metrics.Width / 2
	sign := math.Copysign(1, curve)

	glyphs := make([]Glyph, len(runes))
	x := -half
	for i, r := range runes {
		adv := metrics.Advances[i]
		cx := x + adv/2
		n := clamp(cx/half, -1, 1)
		glyphs[i] = Glyph{
			Char:   string(r),
			X:      cx,
			DY:     -sign * liftPx * (1 - n*n),
			Rotate: -n * curve * rotationPerCurve,
		}
		x += adv + spacing
	}
	return glyphs
}

// visibleFoil reports whether a foil has anything to draw
func visibleFoil(f types.CutLettersFoil) bool {
	return strings.TrimSpace(f.Text) != ""
}
