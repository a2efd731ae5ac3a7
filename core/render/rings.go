package render

import (
	"math"

	"storformat/core/types"
)

// Ring sizing relative to a 200 cm reference banner
const (
	referenceCm   = 200.0
	scaleExponent = 0.35

	baseRingPx = 10.0
	minRingPx  = 4.0
	maxRingPx  = 16.0

	baseEdgePx = 6.0
	minEdgePx  = 2.0
	maxEdgePx  = 10.0
)

// MaxStops caps the stop count per edge for absurd length/spacing ratios
const MaxStops = 512

// Rings holds the size-dependent ring and edge metrics
type Rings struct {
	Scale      float64 `json:"scale"`
	DiameterPx float64 `json:"diameterPx"`
	EdgePx     float64 `json:"edgePx"`
}

// RingMetrics scales ring diameter and edge thickness inversely with the larger side,
// so rings neither vanish on huge banners nor dominate small ones.
func RingMetrics(widthCm, heightCm float64) Rings {
	if !positive(widthCm) {
		widthCm = fallbackCm
	}
	if !positive(heightCm) {
		heightCm = fallbackCm
	}
	scale := math.Pow(referenceCm/math.Max(widthCm, heightCm), scaleExponent)
	return Rings{
		Scale:      scale,
		DiameterPx: clamp(baseRingPx*scale, minRingPx, maxRingPx),
		EdgePx:     clamp(baseEdgePx*scale, minEdgePx, maxEdgePx),
	}
}

// ComputeStops returns evenly spaced ratios along an edge of length cm with rings at most
// spacing cm apart. Both ends are always included and there are never fewer than two stops.
// The gap count is rounded up rather than down, so a gap never exceeds spacing.
func ComputeStops(length, spacing float64) []float64 {
	n := 2
	if positive(length) && positive(spacing) {
		n = int(math.Ceil(length/spacing)) + 1
		n = max(2, min(n, MaxStops))
	}
	stops := make([]float64, n)
	for i := range stops {
		stops[i] = float64(i) / float64(n-1)
	}
	stops[n-1] = 1
	return stops
}

// RingPositions lays rings along the banner edges, inset by the edge thickness.
// Top and bottom edges carry every stop; left and right carry only interior stops
// because the corners already have a ring.
func RingPositions(box Box, m Rings, widthCm, heightCm float64, spacingCm int) []Point {
	spacing := float64(spacingCm)
	if spacing <= 0 {
		spacing = types.RingSpacing50
	}
	inset := m.EdgePx
	x0, x1 := inset, box.Width-inset
	y0, y1 := inset, box.Height-inset

	horizontal := ComputeStops(widthCm, spacing)
	vertical := ComputeStops(heightCm, spacing)

	points := make([]Point, 0, 2*len(horizontal)+2*max(0, len(vertical)-2))
	for _, s := range horizontal {
		x := x0 + (x1-x0)*s
		points = append(points, Point{X: x, Y: y0}, Point{X: x, Y: y1})
	}
	for _, s := range vertical[1 : len(vertical)-1] {
		y := y0 + (y1-y0)*s
		points = append(points, Point{X: x0, Y: y}, Point{X: x1, Y: y})
	}
	return points
}
