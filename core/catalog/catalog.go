// Package catalog - Runtime catalog normalization
// Turns whatever the tenant's storefront left in the transient store into a typed,
// internally consistent RuntimeCatalog. Coercion happens here, once, at the boundary:
// nothing downstream re-checks numeric validity.
package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storformat/core/determinism"
	"storformat/core/types"
)

type object = map[string]any

// Parse decodes raw JSON and normalizes it. ok is false unless the value is a JSON
// object carrying a products array; malformed input is "absent", not an error.
func Parse(data []byte) (*types.RuntimeCatalog, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, false
	}
	return Normalize(root)
}

// Normalize converts a decoded JSON value into a RuntimeCatalog
func Normalize(root any) (*types.RuntimeCatalog, bool) {
	obj, ok := root.(object)
	if !ok {
		return nil, false
	}
	rawProducts, ok := obj["products"].([]any)
	if !ok {
		return nil, false
	}

	cat := &types.RuntimeCatalog{Products: make([]types.RuntimeProduct, 0, len(rawProducts))}
	for _, rp := range rawProducts {
		p, ok := normalizeProduct(rp)
		if !ok {
			continue
		}
		cat.Products = append(cat.Products, p)
	}
	return cat, true
}

// Signature is the content signature of a catalog ("" for nil)
func Signature(c *types.RuntimeCatalog) determinism.Signature {
	if c == nil {
		return ""
	}
	return determinism.SignatureOf(c)
}

func normalizeProduct(v any) (types.RuntimeProduct, bool) {
	m, ok := v.(object)
	if !ok {
		return types.RuntimeProduct{}, false
	}

	p := types.RuntimeProduct{
		ID:          str(field(m, "id")),
		Slug:        str(field(m, "slug")),
		Name:        str(field(m, "name", "title")),
		Description: str(field(m, "description")),
		ImageURL:    str(field(m, "imageUrl", "image_url")),
	}
	if p.ID == "" && p.Slug == "" {
		return types.RuntimeProduct{}, false
	}
	if p.Slug == "" {
		p.Slug = p.ID
	}
	if p.ID == "" {
		p.ID = p.Slug
	}
	if p.Name == "" {
		p.Name = p.Slug
	}

	p.ActiveFinishIDs = strList(field(m, "activeFinishIds", "active_finish_ids"))
	p.ActiveProductItemIDs = strList(field(m, "activeProductItemIds", "active_product_item_ids"))

	for _, rd := range list(field(m, "deliveryMethods", "delivery_methods")) {
		dm, ok := rd.(object)
		if !ok {
			continue
		}
		d := types.DeliveryMethod{
			ID:   str(field(dm, "id")),
			Name: str(field(dm, "name")),
		}
		if d.ID == "" {
			continue
		}
		if price, ok := dec(field(dm, "price")); ok {
			d.Price = &price
		}
		p.DeliveryMethods = append(p.DeliveryMethods, d)
	}

	if sf, ok := field(m, "storformat", "storformatConfig", "storformat_config").(object); ok {
		p.Storformat = normalizeStorformat(sf)
	}
	return p, true
}

func normalizeStorformat(m object) *types.StorformatConfig {
	cfg := &types.StorformatConfig{}

	settings, _ := field(m, "config", "settings").(object)
	cfg.Config.RoundingStep = decOrZero(field(settings, "roundingStep", "rounding_step"))
	if !cfg.Config.RoundingStep.IsPositive() {
		cfg.Config.RoundingStep = decimal.NewFromInt(1)
	}
	cfg.Config.GlobalMarkupPct = decOrZero(field(settings, "globalMarkupPct", "global_markup_pct"))
	for _, q := range list(field(settings, "quantities")) {
		if n, ok := integer(q); ok && n > 0 {
			cfg.Config.Quantities = append(cfg.Config.Quantities, n)
		}
	}

	materials := map[string]bool{}
	for _, rv := range list(field(m, "materials")) {
		r, ok := rv.(object)
		if !ok {
			continue
		}
		mat := types.Material{
			ID:                   str(field(r, "id")),
			Name:                 str(field(r, "name")),
			SortOrder:            intOrZero(field(r, "sortOrder", "sort_order")),
			MarkupPct:            decOrZero(field(r, "markupPct", "markup_pct")),
			MinPrice:             decOrZero(field(r, "minPrice", "min_price")),
			InterpolationEnabled: boolean(field(r, "interpolationEnabled", "interpolation_enabled")),
		}
		if mat.ID == "" || materials[mat.ID] {
			continue
		}
		if mat.Name == "" {
			mat.Name = mat.ID
		}
		materials[mat.ID] = true
		cfg.Materials = append(cfg.Materials, mat)
	}
	cfg.M2Prices = rateRows(list(field(m, "m2Prices", "m2_prices")), materials, "materialId", "material_id")

	finishes := map[string]bool{}
	for _, rv := range list(field(m, "finishes")) {
		r, ok := rv.(object)
		if !ok {
			continue
		}
		f := types.Finish{
			ID:        str(field(r, "id")),
			Name:      str(field(r, "name")),
			SortOrder: intOrZero(field(r, "sortOrder", "sort_order")),
			MarkupPct: decOrZero(field(r, "markupPct", "markup_pct")),
		}
		if f.ID == "" || finishes[f.ID] {
			continue
		}
		if f.Name == "" {
			f.Name = f.ID
		}
		finishes[f.ID] = true
		cfg.Finishes = append(cfg.Finishes, f)
	}
	for _, rv := range list(field(m, "finishPrices", "finish_prices")) {
		r, ok := rv.(object)
		if !ok {
			continue
		}
		fp, ok := finishPrice(r, finishes)
		if ok {
			cfg.FinishPrices = append(cfg.FinishPrices, fp)
		}
	}

	items := map[string]bool{}
	for _, rv := range list(field(m, "productItems", "product_items")) {
		r, ok := rv.(object)
		if !ok {
			continue
		}
		it := types.ProductItem{
			ID:                   str(field(r, "id")),
			Name:                 str(field(r, "name")),
			SortOrder:            intOrZero(field(r, "sortOrder", "sort_order")),
			PricingType:          pricingType(str(field(r, "pricingType", "pricing_type"))),
			BasePrice:            decOrZero(field(r, "basePrice", "base_price", "price")),
			Percentage:           decOrZero(field(r, "percentage", "percent")),
			MarkupPct:            decOrZero(field(r, "markupPct", "markup_pct")),
			MinPrice:             decOrZero(field(r, "minPrice", "min_price")),
			InterpolationEnabled: boolean(field(r, "interpolationEnabled", "interpolation_enabled")),
		}
		if it.ID == "" || items[it.ID] {
			continue
		}
		if it.Name == "" {
			it.Name = it.ID
		}
		items[it.ID] = true
		cfg.ProductItems = append(cfg.ProductItems, it)
	}
	for _, rv := range list(field(m, "productFixedPrices", "product_fixed_prices")) {
		r, ok := rv.(object)
		if !ok {
			continue
		}
		id := str(field(r, "productItemId", "product_item_id"))
		qty, okQty := integer(field(r, "quantity"))
		price, okPrice := dec(field(r, "price"))
		if !items[id] || !okQty || !okPrice {
			continue
		}
		cfg.ProductFixedPrices = append(cfg.ProductFixedPrices, types.ProductFixedPrice{
			ProductItemID: id,
			Quantity:      qty,
			Price:         price,
		})
	}
	cfg.ProductPriceTiers = rateRows(list(field(m, "productPriceTiers", "product_price_tiers")), items, "productItemId", "product_item_id")

	determinism.SortSlice(cfg.Materials, func(a, b types.Material) bool { return a.SortOrder < b.SortOrder })
	determinism.SortSlice(cfg.Finishes, func(a, b types.Finish) bool { return a.SortOrder < b.SortOrder })
	determinism.SortSlice(cfg.ProductItems, func(a, b types.ProductItem) bool { return a.SortOrder < b.SortOrder })
	return cfg
}

// rateRows keeps rows whose owner exists and whose fromM2/pricePerM2 are present
func rateRows(raw []any, owners map[string]bool, ownerKeys ...string) []types.RateRow {
	var rows []types.RateRow
	for _, rv := range raw {
		r, ok := rv.(object)
		if !ok {
			continue
		}
		owner := str(field(r, ownerKeys...))
		from, okFrom := dec(field(r, "fromM2", "from_m2"))
		price, okPrice := dec(field(r, "pricePerM2", "price_per_m2"))
		if !owners[owner] || !okFrom || !okPrice {
			continue
		}
		row := types.RateRow{
			OwnerID:    owner,
			FromM2:     from,
			PricePerM2: price,
			IsAnchor:   boolean(field(r, "isAnchor", "is_anchor")),
		}
		if to, ok := dec(field(r, "toM2", "to_m2")); ok && to.GreaterThan(from) {
			row.ToM2 = &to
		}
		rows = append(rows, row)
	}
	determinism.SortSlice(rows, func(a, b types.RateRow) bool { return a.FromM2.LessThan(b.FromM2) })
	return rows
}

func finishPrice(r object, finishes map[string]bool) (types.FinishPrice, bool) {
	id := str(field(r, "finishId", "finish_id"))
	if !finishes[id] {
		return types.FinishPrice{}, false
	}
	fixed, okFixed := dec(field(r, "fixedPrice", "fixed_price", "price"))
	perM2, okM2 := dec(field(r, "pricePerM2", "price_per_m2"))

	fp := types.FinishPrice{FinishID: id, FixedPrice: fixed, PricePerM2: perM2}
	switch pricingType(str(field(r, "pricingType", "pricing_type"))) {
	case types.PricingM2:
		fp.PricingType = types.PricingM2
		return fp, okM2
	case types.PricingFixed, types.PricingPerItem:
		if okFixed {
			fp.PricingType = types.PricingFixed
			return fp, true
		}
		// a fixed row without a fixed price is only usable as m2
		fp.PricingType = types.PricingM2
		return fp, okM2
	}
	return fp, false
}

func pricingType(s string) types.PricingType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per_item", "per-item", "peritem", "item":
		return types.PricingPerItem
	case "percentage", "percent", "pct":
		return types.PricingPercentage
	case "m2", "sqm", "per_m2", "area":
		return types.PricingM2
	default:
		return types.PricingFixed
	}
}

// field returns the first present value among keys
func field(m object, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func str(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func strList(v any) []string {
	var out []string
	for _, e := range list(v) {
		if s := str(e); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dec parses numbers and numeric strings ("1 250,50" included). Non-finite values fail.
func dec(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case string:
		s := strings.TrimSpace(x)
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, "\u00a0", "")
		s = strings.Replace(s, ",", ".", 1)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func decOrZero(v any) decimal.Decimal {
	d, _ := dec(v)
	return d
}

func integer(v any) (int, bool) {
	d, ok := dec(v)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

func intOrZero(v any) int {
	n, _ := integer(v)
	return n
}

func boolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(x))
		return b
	case json.Number:
		return x.String() != "0"
	default:
		return false
	}
}
