package render

import (
	"math"

	"storformat/core/types"
)

// OverlayKind names a finishing overlay
type OverlayKind string

const (
	OverlayHem         OverlayKind = "hem"
	OverlayPocket      OverlayKind = "pocket"
	OverlayKeder       OverlayKind = "keder"
	OverlayDoubleSided OverlayKind = "double-sided"
	OverlayUVSheen     OverlayKind = "uv-sheen"
)

// Overlay is one finishing decoration drawn on top of the material
type Overlay struct {
	Kind     OverlayKind `json:"kind"`
	Rect     Rect        `json:"rect"`
	StrokePx float64     `json:"strokePx,omitempty"`
	Dashed   bool        `json:"dashed,omitempty"`
	Label    string      `json:"label,omitempty"`
}

const (
	badgeWidthPx  = 56.0
	badgeHeightPx = 18.0
)

// FinishingOverlays returns the overlays for the selected finishing, in drawing order
func FinishingOverlays(box Box, f types.Finishing, m Rings) []Overlay {
	edge := m.EdgePx
	var out []Overlay

	if f.Pockets {
		band := edge * 2.2
		out = append(out,
			Overlay{Kind: OverlayPocket, Rect: Rect{X: 0, Y: 0, W: box.Width, H: band}},
			Overlay{Kind: OverlayPocket, Rect: Rect{X: 0, Y: box.Height - band, W: box.Width, H: band}},
		)
	}
	if f.Keder {
		out = append(out, Overlay{
			Kind:     OverlayKeder,
			Rect:     Rect{X: 0, Y: 0, W: box.Width, H: edge * 1.2},
			StrokePx: edge * 0.6,
		})
	}
	if f.Hemming {
		inset := edge / 2
		out = append(out, Overlay{
			Kind:     OverlayHem,
			Rect:     Rect{X: inset, Y: inset, W: box.Width - 2*inset, H: box.Height - 2*inset},
			StrokePx: math.Max(1, edge/3),
			Dashed:   true,
		})
	}
	if f.UVLaminate {
		out = append(out, Overlay{Kind: OverlayUVSheen, Rect: Rect{W: box.Width, H: box.Height}})
	}
	if f.DoubleSided {
		out = append(out, Overlay{
			Kind:  OverlayDoubleSided,
			Rect:  Rect{X: box.Width - badgeWidthPx - edge, Y: edge, W: badgeWidthPx, H: badgeHeightPx},
			Label: "2-sidig",
		})
	}
	return out
}
