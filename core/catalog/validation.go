// Package catalog - Catalog validation
// Reports catalogs that normalize fine but cannot price. The sync loop never calls this;
// it is for operators (catalog show, GET /catalog) who want to know why a price is missing.
package catalog

import (
	"fmt"

	"storformat/core/types"
)

// ValidationRule is a product validation rule
type ValidationRule func(*types.RuntimeProduct) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateHasMaterials,
		validateMaterialRates,
		validateAnchors,
		validateActiveIDs,
	}
}

// Validate checks every product of a catalog against rules
func Validate(c *types.RuntimeCatalog, rules []ValidationRule) []error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := range c.Products {
		p := &c.Products[i]
		for _, rule := range rules {
			if err := rule(p); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.Slug, err))
			}
		}
	}
	return errs
}

// validateHasMaterials ensures a priced product has something to price
func validateHasMaterials(p *types.RuntimeProduct) error {
	if p.Storformat != nil && len(p.Storformat.Materials) == 0 {
		return fmt.Errorf("storformat config has no materials")
	}
	return nil
}

// validateMaterialRates ensures every material has at least one rate row
func validateMaterialRates(p *types.RuntimeProduct) error {
	if p.Storformat == nil {
		return nil
	}
	for _, m := range p.Storformat.Materials {
		if len(rowsFor(p.Storformat.M2Prices, m.ID)) == 0 {
			return fmt.Errorf("material %q has no m2 prices", m.ID)
		}
	}
	return nil
}

// validateAnchors flags interpolation switched on without two anchors to interpolate between
func validateAnchors(p *types.RuntimeProduct) error {
	if p.Storformat == nil {
		return nil
	}
	for _, m := range p.Storformat.Materials {
		if m.InterpolationEnabled && anchorCount(rowsFor(p.Storformat.M2Prices, m.ID)) < 2 {
			return fmt.Errorf("material %q interpolates with fewer than 2 anchors", m.ID)
		}
	}
	for _, it := range p.Storformat.ProductItems {
		if it.PricingType == types.PricingM2 && it.InterpolationEnabled &&
			anchorCount(rowsFor(p.Storformat.ProductPriceTiers, it.ID)) < 2 {
			return fmt.Errorf("product item %q interpolates with fewer than 2 anchors", it.ID)
		}
	}
	return nil
}

// validateActiveIDs ensures active finish and item ids resolve
func validateActiveIDs(p *types.RuntimeProduct) error {
	if p.Storformat == nil {
		return nil
	}
	finishes := make(map[string]bool, len(p.Storformat.Finishes))
	for _, f := range p.Storformat.Finishes {
		finishes[f.ID] = true
	}
	for _, id := range p.ActiveFinishIDs {
		if !finishes[id] {
			return fmt.Errorf("active finish %q is not defined", id)
		}
	}
	items := make(map[string]bool, len(p.Storformat.ProductItems))
	for _, it := range p.Storformat.ProductItems {
		items[it.ID] = true
	}
	for _, id := range p.ActiveProductItemIDs {
		if !items[id] {
			return fmt.Errorf("active product item %q is not defined", id)
		}
	}
	return nil
}

func rowsFor(rows []types.RateRow, owner string) []types.RateRow {
	var out []types.RateRow
	for _, r := range rows {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out
}

func anchorCount(rows []types.RateRow) int {
	n := 0
	for _, r := range rows {
		if r.IsAnchor {
			n++
		}
	}
	return n
}
