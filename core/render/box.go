// Package render - Visual Renderer
// Builds a synthetic, resolution-independent picture of the configured banner:
// an aspect-correct box, material look, ring layout, finishing overlays, the uploaded
// design layer and cut-letter foils. The result is a typed Scene that renders to SVG.
package render

import "math"

// Default box limits in pixels
const (
	DefaultMaxWidthPx  = 560.0
	DefaultMaxHeightPx = 360.0
)

// fallbackCm is used when a dimension is missing or not finite
const fallbackCm = 100.0

// Box is the banner's pixel box
type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a pixel position inside the box
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a pixel rectangle inside the box
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the rectangle's centre point
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// BannerBox fits the real width/height ratio into maxW × maxH pixels.
// Non-positive limits fall back to the defaults.
func BannerBox(widthCm, heightCm, maxW, maxH float64) Box {
	if !positive(maxW) {
		maxW = DefaultMaxWidthPx
	}
	if !positive(maxH) {
		maxH = DefaultMaxHeightPx
	}
	if !positive(widthCm) {
		widthCm = fallbackCm
	}
	if !positive(heightCm) {
		heightCm = fallbackCm
	}

	ratio := widthCm / heightCm
	if maxW/ratio <= maxH {
		return Box{Width: maxW, Height: maxW / ratio}
	}
	return Box{Width: maxH * ratio, Height: maxH}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
