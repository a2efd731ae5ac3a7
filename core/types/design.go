// Package types - Design layer types
package types

// DesignPlacement is a rectangle in fractions of the banner box, so it does not
// depend on render resolution.
type DesignPlacement struct {
	XRatio      float64 `json:"xRatio"`
	YRatio      float64 `json:"yRatio"`
	WidthRatio  float64 `json:"widthRatio"`
	HeightRatio float64 `json:"heightRatio"`
}

// CutLettersFoil is one line of cut-vinyl lettering.
// XRatio/YRatio locate the foil centre inside the banner box.
type CutLettersFoil struct {
	ID              int     `json:"id"`
	Text            string  `json:"text"`
	FontName        string  `json:"fontName"`
	Scale           float64 `json:"scale"`
	FontWeight      int     `json:"fontWeight"`
	LetterSpacingPx float64 `json:"letterSpacingPx"`
	Curve           float64 `json:"curve"`
	XRatio          float64 `json:"xRatio"`
	YRatio          float64 `json:"yRatio"`
}

// Foil limits
const (
	MinFoilScale = 0.2
	MaxFoilScale = 4.0
	MaxFoilCurve = 100.0
)
