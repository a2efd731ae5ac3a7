// Package host - Host State Reader
// The configurator has no channel into the host page's own state, so the selection is
// inferred from the page's rendered structure. This is best-effort inference: anything
// unrecognized falls back to a deterministic default and nothing here ever fails.
package host

import (
	"math"
	"strings"

	"storformat/core/text"
	"storformat/core/types"
)

// Fallback dimensions when the host exposes no usable size inputs
const (
	FallbackWidthCm  = 100.0
	FallbackHeightCm = 100.0
)

// HostAdapter exposes one method per inferred fact. ok is false when the fact could not
// be read; Read substitutes the default.
type HostAdapter interface {
	ReadDimensions() (widthCm, heightCm float64, ok bool)
	ReadQuantity() (int, bool)
	ReadVariant() (types.Variant, bool)
	ReadFinishing() types.Finishing
	ReadDeliveryMethod() (string, bool)
	ReadProductSlug() (string, bool)
}

// MaxQuantity caps quantities read from the host
const MaxQuantity = 1_000_000

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Read infers the full selection through adapter
func Read(adapter HostAdapter) types.SelectionState {
	sel := types.SelectionState{
		WidthCm:  FallbackWidthCm,
		HeightCm: FallbackHeightCm,
		Quantity: 1,
		Variant:  types.VariantDefault,
	}
	if adapter == nil {
		return sel
	}

	if w, h, ok := adapter.ReadDimensions(); ok && finitePositive(w) && finitePositive(h) {
		sel.WidthCm, sel.HeightCm = w, h
	}
	if q, ok := adapter.ReadQuantity(); ok && q > 0 && q <= MaxQuantity {
		sel.Quantity = q
	}
	if v, ok := adapter.ReadVariant(); ok && v.IsValid() {
		sel.Variant = v
	}
	sel.Finishing = adapter.ReadFinishing()
	if sel.Finishing.Rings && sel.Finishing.RingSpacingCm == 0 {
		sel.Finishing.RingSpacingCm = types.RingSpacing50
	}
	if id, ok := adapter.ReadDeliveryMethod(); ok {
		sel.DeliveryMethodID = id
	}
	if slug, ok := adapter.ReadProductSlug(); ok {
		sel.ProductSlug = slug
	}
	return sel
}

// Page is the structural view of a host document that StructuralAdapter queries.
// adapters/dom implements it over parsed HTML.
type Page interface {
	// Blocks returns the sections whose heading contains one of keywords, in document order
	Blocks(keywords []string) []Block

	// ProductSlug returns the product identity the page declares, if any
	ProductSlug() string
}

// Block is one heading-delimited section of the host page
type Block struct {
	Heading string
	Numbers []NumberField
	Buttons []Button
}

// NumberField is a numeric input with its label text
type NumberField struct {
	Label    string
	Value    float64
	HasValue bool
}

// Button is a clickable choice with its state markers
type Button struct {
	ID      string
	Text    string
	Classes []string

	// Pressed is set for aria-pressed/aria-checked/aria-selected="true" or a checked input
	Pressed bool
}

// StructuralAdapter implements HostAdapter by keyword-matching a Page
type StructuralAdapter struct {
	page Page
	kw   Keywords
}

// NewStructuralAdapter creates an adapter over page using keyword tables kw
func NewStructuralAdapter(page Page, kw Keywords) *StructuralAdapter {
	return &StructuralAdapter{page: page, kw: kw}
}

// Selected reports whether a button is the active choice
func (a *StructuralAdapter) Selected(b Button) bool {
	if b.Pressed {
		return true
	}
	for _, c := range b.Classes {
		for _, sel := range a.kw.SelectedClasses {
			if strings.EqualFold(c, sel) {
				return true
			}
		}
	}
	return false
}

// ReadDimensions reads width and height from the size block.
// Labelled inputs win; otherwise the first two numeric inputs are width then height.
func (a *StructuralAdapter) ReadDimensions() (float64, float64, bool) {
	for _, b := range a.page.Blocks(a.kw.SizeHeadings) {
		var width, height float64
		var unlabelled []float64
		for _, f := range b.Numbers {
			if !f.HasValue || !finitePositive(f.Value) {
				continue
			}
			label := text.Normalize(f.Label)
			switch {
			case width == 0 && text.ContainsAny(label, a.kw.WidthLabels):
				width = f.Value
			case height == 0 && text.ContainsAny(label, a.kw.HeightLabels):
				height = f.Value
			case !text.ContainsAny(label, a.kw.QuantityHeadings):
				unlabelled = append(unlabelled, f.Value)
			}
		}
		for _, v := range unlabelled {
			if width == 0 {
				width = v
			} else if height == 0 {
				height = v
			}
		}
		if width > 0 && height > 0 {
			return width, height, true
		}
	}
	return 0, 0, false
}

// ReadQuantity reads the quantity block, or a quantity-labelled input anywhere in the size block
func (a *StructuralAdapter) ReadQuantity() (int, bool) {
	for _, b := range a.page.Blocks(a.kw.QuantityHeadings) {
		for _, f := range b.Numbers {
			if f.HasValue && f.Value >= 1 && f.Value <= MaxQuantity && text.ContainsAny(text.Normalize(f.Label), a.kw.QuantityHeadings) {
				return int(f.Value), true
			}
		}
		// an unlabelled input only counts when it is the block's single input
		if len(b.Numbers) == 1 && b.Numbers[0].HasValue && b.Numbers[0].Value >= 1 && b.Numbers[0].Value <= MaxQuantity {
			return int(b.Numbers[0].Value), true
		}
		for _, btn := range b.Buttons {
			if !a.Selected(btn) {
				continue
			}
			if n, ok := text.FirstNumber(btn.Text); ok && n >= 1 && n <= MaxQuantity {
				return int(n), true
			}
		}
	}
	for _, b := range a.page.Blocks(a.kw.SizeHeadings) {
		for _, f := range b.Numbers {
			if f.HasValue && f.Value >= 1 && f.Value <= MaxQuantity && text.ContainsAny(text.Normalize(f.Label), a.kw.QuantityHeadings) {
				return int(f.Value), true
			}
		}
	}
	return 0, false
}

// ReadVariant maps the selected product button to a variant by ordered keyword precedence
func (a *StructuralAdapter) ReadVariant() (types.Variant, bool) {
	for _, b := range a.page.Blocks(a.kw.ProductHeadings) {
		for _, btn := range b.Buttons {
			if !a.Selected(btn) {
				continue
			}
			if v, ok := a.kw.MatchVariant(btn.Text); ok {
				return v, true
			}
		}
	}
	return types.VariantDefault, false
}

// ReadFinishing maps every selected finishing button to its flags and resolves ring spacing
func (a *StructuralAdapter) ReadFinishing() types.Finishing {
	var f types.Finishing
	spacing100 := false
	ringsText := ""

	for _, b := range a.page.Blocks(a.kw.FinishingHeadings) {
		for _, btn := range b.Buttons {
			if !a.Selected(btn) {
				continue
			}
			label := text.Normalize(btn.Text)
			if text.ContainsAny(label, a.kw.RingSpacing100) {
				spacing100 = true
			}
			for _, flag := range a.kw.MatchFinishing(label) {
				switch flag {
				case types.FlagRings:
					f.Rings = true
					if ringsText == "" {
						ringsText = label
					}
				case types.FlagHemming:
					f.Hemming = true
				case types.FlagPockets:
					f.Pockets = true
				case types.FlagKeder:
					f.Keder = true
				case types.FlagDoubleSided:
					f.DoubleSided = true
				case types.FlagUVLaminate:
					f.UVLaminate = true
				}
			}
		}
	}

	if f.Rings {
		f.RingSpacingCm = ringSpacing(spacing100, ringsText)
	}
	return f
}

func ringSpacing(spacing100 bool, ringsText string) int {
	if spacing100 {
		return types.RingSpacing100
	}
	if n, ok := text.FirstNumber(ringsText); ok {
		switch int(n) {
		case types.RingSpacing50, types.RingSpacing100:
			return int(n)
		}
	}
	return types.RingSpacing50
}

// ReadDeliveryMethod returns the selected delivery button's id, or its slugged label
func (a *StructuralAdapter) ReadDeliveryMethod() (string, bool) {
	for _, b := range a.page.Blocks(a.kw.DeliveryHeadings) {
		for _, btn := range b.Buttons {
			if !a.Selected(btn) {
				continue
			}
			if btn.ID != "" {
				return btn.ID, true
			}
			if s := text.Slug(btn.Text); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// ReadProductSlug returns the slug the page declares
func (a *StructuralAdapter) ReadProductSlug() (string, bool) {
	s := strings.TrimSpace(a.page.ProductSlug())
	return s, s != ""
}

var _ HostAdapter = (*StructuralAdapter)(nil)
