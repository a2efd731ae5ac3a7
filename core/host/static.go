package host

import "storformat/core/types"

// StaticAdapter reports a fixed selection. Zero fields count as unread, so Read applies
// its fallbacks to them. The CLI uses it for flag-driven selections.
type StaticAdapter struct {
	Selection types.SelectionState
}

// Static wraps sel in a StaticAdapter
func Static(sel types.SelectionState) *StaticAdapter {
	return &StaticAdapter{Selection: sel}
}

func (a *StaticAdapter) ReadDimensions() (float64, float64, bool) {
	return a.Selection.WidthCm, a.Selection.HeightCm, a.Selection.WidthCm > 0 && a.Selection.HeightCm > 0
}

func (a *StaticAdapter) ReadQuantity() (int, bool) {
	return a.Selection.Quantity, a.Selection.Quantity > 0
}

func (a *StaticAdapter) ReadVariant() (types.Variant, bool) {
	return a.Selection.Variant, a.Selection.Variant != ""
}

func (a *StaticAdapter) ReadFinishing() types.Finishing {
	return a.Selection.Finishing
}

func (a *StaticAdapter) ReadDeliveryMethod() (string, bool) {
	return a.Selection.DeliveryMethodID, a.Selection.DeliveryMethodID != ""
}

func (a *StaticAdapter) ReadProductSlug() (string, bool) {
	return a.Selection.ProductSlug, a.Selection.ProductSlug != ""
}
