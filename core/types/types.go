// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions and trivial helpers.
package types

// Variant is the product kind inferred from the host's product selector
type Variant string

const (
	VariantPVC        Variant = "pvc"
	VariantMesh       Variant = "mesh"
	VariantTextile    Variant = "textile"
	VariantFoil       Variant = "foil"
	VariantCutLetters Variant = "cut-letters"
	VariantDefault    Variant = "default"
)

// String returns the string representation of the variant
func (v Variant) String() string {
	return string(v)
}

// IsValid checks if the variant is one of the fixed kinds
func (v Variant) IsValid() bool {
	switch v {
	case VariantPVC, VariantMesh, VariantTextile, VariantFoil, VariantCutLetters, VariantDefault:
		return true
	default:
		return false
	}
}

// Ring spacing options in centimetres
const (
	RingSpacing50  = 50
	RingSpacing100 = 100
)

// FinishingFlag names one finishing option
type FinishingFlag string

const (
	FlagRings       FinishingFlag = "rings"
	FlagHemming     FinishingFlag = "hemming"
	FlagPockets     FinishingFlag = "pockets"
	FlagKeder       FinishingFlag = "keder"
	FlagDoubleSided FinishingFlag = "doubleSided"
	FlagUVLaminate  FinishingFlag = "uvLaminate"
)

// FinishingFlags lists every flag in display order
var FinishingFlags = []FinishingFlag{
	FlagRings, FlagHemming, FlagPockets, FlagKeder, FlagDoubleSided, FlagUVLaminate,
}

// Finishing holds the selected finishing flags
type Finishing struct {
	Rings         bool `json:"rings"`
	RingSpacingCm int  `json:"ringSpacingCm"`
	Hemming       bool `json:"hemming"`
	Pockets       bool `json:"pockets"`
	Keder         bool `json:"keder"`
	DoubleSided   bool `json:"doubleSided"`
	UVLaminate    bool `json:"uvLaminate"`
}

// Any reports whether at least one finishing option is selected
func (f Finishing) Any() bool {
	return f.Rings || f.Hemming || f.Pockets || f.Keder || f.DoubleSided || f.UVLaminate
}

// Flags returns the selected flags in display order
func (f Finishing) Flags() []FinishingFlag {
	var out []FinishingFlag
	for _, flag := range FinishingFlags {
		if f.Has(flag) {
			out = append(out, flag)
		}
	}
	return out
}

// Has reports whether flag is selected
func (f Finishing) Has(flag FinishingFlag) bool {
	switch flag {
	case FlagRings:
		return f.Rings
	case FlagHemming:
		return f.Hemming
	case FlagPockets:
		return f.Pockets
	case FlagKeder:
		return f.Keder
	case FlagDoubleSided:
		return f.DoubleSided
	case FlagUVLaminate:
		return f.UVLaminate
	default:
		return false
	}
}

// SelectionState is what the shopper currently has selected on the host page.
// It is re-derived on every sync tick and never cached across ticks.
type SelectionState struct {
	WidthCm          float64   `json:"widthCm"`
	HeightCm         float64   `json:"heightCm"`
	Quantity         int       `json:"quantity"`
	Variant          Variant   `json:"variant"`
	Finishing        Finishing `json:"finishing"`
	DeliveryMethodID string    `json:"deliveryMethodId,omitempty"`
	ProductSlug      string    `json:"productSlug,omitempty"`
}

// EffectiveQuantity returns the quantity, never below 1
func (s SelectionState) EffectiveQuantity() int {
	if s.Quantity < 1 {
		return 1
	}
	return s.Quantity
}
