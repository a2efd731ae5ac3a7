// Package pricing - Pricing Engine
// A pure function of the inferred selection and a runtime product's pricing tables.
// A nil result means "no pricing available" and is not an error.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"storformat/core/pricing/primitives"
	"storformat/core/text"
	"storformat/core/types"
)

// MinAreaM2 floors the area so per-m² math never divides by zero
var MinAreaM2 = decimal.RequireFromString("0.0001")

var (
	cmPerM2      = decimal.NewFromInt(10000)
	hundred      = decimal.NewFromInt(100)
	ring100Ratio = decimal.RequireFromString("0.5")
)

// Result is a full price with its breakdown. Breakdown values are scaled by the
// global markup so they add up with the displayed product price.
type Result struct {
	Product  types.ProductRef `json:"product"`
	Material LineRef          `json:"material"`
	Item     *LineRef         `json:"item,omitempty"`

	Quantity    int             `json:"quantity"`
	AreaM2      decimal.Decimal `json:"areaM2"`
	TotalAreaM2 decimal.Decimal `json:"totalAreaM2"`
	RatePerM2   decimal.Decimal `json:"ratePerM2"`

	MaterialCost decimal.Decimal `json:"materialCost"`
	ItemCost     decimal.Decimal `json:"itemCost"`
	Finishes     []FinishLine    `json:"finishes"`

	// Subtotal is material + item + finishes before the global markup
	Subtotal decimal.Decimal `json:"subtotal"`

	// ProductPrice is after global markup, rounding and the minimum price floor
	ProductPrice    decimal.Decimal `json:"productPrice"`
	MinimumPrice    decimal.Decimal `json:"minimumPrice"`
	MinimumApplied  bool            `json:"minimumApplied"`
	GlobalMarkupPct decimal.Decimal `json:"globalMarkupPct"`

	Delivery *DeliveryLine   `json:"delivery,omitempty"`
	Shipping decimal.Decimal `json:"shipping"`

	// Total is ProductPrice + Shipping
	Total decimal.Decimal `json:"total"`
}

// LineRef identifies the catalog row a line was priced from
type LineRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FinishLine is the cost of one selected finishing option
type FinishLine struct {
	Flag     types.FinishingFlag `json:"flag"`
	FinishID string              `json:"finishId"`
	Name     string              `json:"name"`
	Cost     decimal.Decimal     `json:"cost"`
}

// DeliveryLine is the priced delivery method
type DeliveryLine struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Fallback bool            `json:"fallback"`
}

// Engine prices selections
type Engine struct {
	matcher Matcher
}

// NewEngine creates an engine with the given catalog vocabulary
func NewEngine(m Matcher) *Engine {
	return &Engine{matcher: m}
}

// Default creates an engine with the default vocabulary
func Default() *Engine {
	return NewEngine(DefaultMatcher())
}

// PriceCatalog prices sel against the product it names, or the catalog's default product
func (e *Engine) PriceCatalog(sel types.SelectionState, cat *types.RuntimeCatalog) *Result {
	p, ok := cat.FindProduct(sel.ProductSlug)
	if !ok || p.Storformat == nil {
		p, ok = cat.DefaultProduct()
	}
	if !ok {
		return nil
	}
	return e.Price(sel, p)
}

// Price computes the price of sel for product. It returns nil when the product has no
// materials or the chosen material has no rate rows.
func (e *Engine) Price(sel types.SelectionState, product *types.RuntimeProduct) *Result {
	if product == nil || product.Storformat == nil {
		return nil
	}
	sf := product.Storformat
	if len(sf.Materials) == 0 {
		return nil
	}

	qty := sel.EffectiveQuantity()
	qtyD := decimal.NewFromInt(int64(qty))
	area := Area(sel.WidthCm, sel.HeightCm)
	totalArea := area.Mul(qtyD)

	// material
	names := make([]string, len(sf.Materials))
	for i, m := range sf.Materials {
		names[i] = m.Name
	}
	material := sf.Materials[e.matcher.best(names, sel.Variant, product.Name)]
	tiers := tiersFor(sf.M2Prices, material.ID)
	if len(tiers) == 0 {
		return nil
	}
	rate, _ := primitives.Rate(tiers, totalArea, material.InterpolationEnabled)
	materialCost := primitives.ApplyMarkup(rate.Mul(totalArea), material.MarkupPct)

	res := &Result{
		Product:         product.Ref(),
		Material:        LineRef{ID: material.ID, Name: material.Name},
		Quantity:        qty,
		AreaM2:          area,
		TotalAreaM2:     totalArea,
		RatePerM2:       rate,
		GlobalMarkupPct: sf.Config.GlobalMarkupPct,
	}

	// product item
	itemCost := decimal.Zero
	minimum := material.MinPrice
	if item, ok := e.productItem(sel, product); ok {
		itemCost = primitives.ApplyMarkup(e.itemBase(item, sf, qty, totalArea, materialCost), item.MarkupPct)
		res.Item = &LineRef{ID: item.ID, Name: item.Name}
		if item.MinPrice.GreaterThan(minimum) {
			minimum = item.MinPrice
		}
	}

	// finishing
	var finishes []FinishLine
	finishTotal := decimal.Zero
	for _, line := range e.finishLines(sel, product, qtyD, area) {
		finishTotal = finishTotal.Add(line.Cost)
		finishes = append(finishes, line)
	}

	subtotal := materialCost.Add(itemCost).Add(finishTotal)
	factor := decimal.NewFromInt(1).Add(sf.Config.GlobalMarkupPct.Div(hundred))
	rounded := primitives.RoundToStep(subtotal.Mul(factor), sf.Config.RoundingStep)
	price, raised := primitives.RaiseToMinimum(rounded, minimum)

	res.MaterialCost = materialCost.Mul(factor)
	res.ItemCost = itemCost.Mul(factor)
	for i := range finishes {
		finishes[i].Cost = finishes[i].Cost.Mul(factor)
	}
	res.Finishes = finishes
	res.Subtotal = subtotal
	res.ProductPrice = price
	res.MinimumPrice = minimum
	res.MinimumApplied = raised

	if d, ok := Delivery(product, sel.DeliveryMethodID); ok {
		res.Delivery = &d
		res.Shipping = d.Price
	}
	res.Total = res.ProductPrice.Add(res.Shipping)
	return res
}

// Area returns width × height in m², floored at MinAreaM2. Non-finite sizes count as MinAreaM2.
func Area(widthCm, heightCm float64) decimal.Decimal {
	if !finite(widthCm) || !finite(heightCm) {
		return MinAreaM2
	}
	a := decimal.NewFromFloat(widthCm).Mul(decimal.NewFromFloat(heightCm)).Div(cmPerM2)
	if a.LessThan(MinAreaM2) {
		return MinAreaM2
	}
	return a
}

func (e *Engine) productItem(sel types.SelectionState, product *types.RuntimeProduct) (types.ProductItem, bool) {
	items := activeOnly(product.Storformat.ProductItems, product.ActiveProductItemIDs, func(it types.ProductItem) string { return it.ID })
	if len(items) == 0 {
		return types.ProductItem{}, false
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return items[e.matcher.best(names, sel.Variant, product.Name)], true
}

func (e *Engine) itemBase(item types.ProductItem, sf *types.StorformatConfig, qty int, totalArea, materialCost decimal.Decimal) decimal.Decimal {
	fixed := fixedPrice(sf.ProductFixedPrices, item.ID, qty)

	switch item.PricingType {
	case types.PricingPerItem:
		return fixed
	case types.PricingPercentage:
		return materialCost.Mul(item.Percentage).Div(hundred)
	case types.PricingM2:
		tiers := tiersFor(sf.ProductPriceTiers, item.ID)
		rate, ok := primitives.Rate(tiers, totalArea, item.InterpolationEnabled)
		if !ok {
			return decimal.Zero
		}
		return rate.Mul(totalArea)
	default:
		return item.BasePrice.Add(fixed)
	}
}

func (e *Engine) finishLines(sel types.SelectionState, product *types.RuntimeProduct, qty, area decimal.Decimal) []FinishLine {
	sf := product.Storformat
	finishes := activeOnly(sf.Finishes, product.ActiveFinishIDs, func(f types.Finish) string { return f.ID })

	var lines []FinishLine
	for _, flag := range sel.Finishing.Flags() {
		f, ok := e.matcher.finish(finishes, flag)
		if !ok {
			continue
		}
		fp, ok := finishPriceFor(sf.FinishPrices, f.ID)
		if !ok {
			continue
		}
		var cost decimal.Decimal
		if fp.PricingType == types.PricingM2 {
			cost = fp.PricePerM2.Mul(area).Mul(qty)
		} else {
			cost = fp.FixedPrice.Mul(qty)
		}
		if flag == types.FlagRings && sel.Finishing.RingSpacingCm == types.RingSpacing100 {
			cost = cost.Mul(ring100Ratio)
		}
		lines = append(lines, FinishLine{
			Flag:     flag,
			FinishID: f.ID,
			Name:     f.Name,
			Cost:     primitives.ApplyMarkup(cost, f.MarkupPct),
		})
	}
	return lines
}

// Delivery prices the delivery method id for product. A method without a finite price
// falls back to the fixed table. ok is false when nothing is selected.
func Delivery(product *types.RuntimeProduct, id string) (DeliveryLine, bool) {
	if id == "" {
		return DeliveryLine{}, false
	}
	line := DeliveryLine{ID: id, Name: id}
	if product != nil {
		for _, m := range product.DeliveryMethods {
			if m.ID != id && text.Slug(m.Name) != id {
				continue
			}
			line.ID, line.Name = m.ID, m.Name
			if m.Price != nil {
				line.Price = *m.Price
				return line, true
			}
			break
		}
	}
	line.Price = FallbackDeliveryPrice(line.ID + " " + line.Name)
	line.Fallback = true
	return line, true
}

// Fallback delivery prices by normalized method id
var (
	pickupPrice   = decimal.Zero
	standardPrice = decimal.NewFromInt(149)
	expressPrice  = decimal.NewFromInt(299)
)

// FallbackDeliveryPrice returns the fixed price for a method id or name:
// pickup/henting 0, standard/post 149, express 299, anything else 149
func FallbackDeliveryPrice(method string) decimal.Decimal {
	n := text.Normalize(method)
	switch {
	case text.ContainsAny(n, []string{"pickup", "henting", "hent"}):
		return pickupPrice
	case text.ContainsAny(n, []string{"express", "ekspress"}):
		return expressPrice
	case text.ContainsAny(n, []string{"standard", "post"}):
		return standardPrice
	default:
		return standardPrice
	}
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func tiersFor(rows []types.RateRow, owner string) []primitives.Tier {
	var tiers []primitives.Tier
	for _, r := range rows {
		if r.OwnerID != owner {
			continue
		}
		tiers = append(tiers, primitives.Tier{
			From:     r.FromM2,
			To:       r.ToM2,
			Rate:     r.PricePerM2,
			IsAnchor: r.IsAnchor,
		})
	}
	return tiers
}

// fixedPrice returns the exact-quantity price row of an item, or zero
func fixedPrice(rows []types.ProductFixedPrice, itemID string, qty int) decimal.Decimal {
	for _, r := range rows {
		if r.ProductItemID == itemID && r.Quantity == qty {
			return r.Price
		}
	}
	return decimal.Zero
}

func finishPriceFor(rows []types.FinishPrice, finishID string) (types.FinishPrice, bool) {
	for _, r := range rows {
		if r.FinishID == finishID {
			return r, true
		}
	}
	return types.FinishPrice{}, false
}

// activeOnly keeps rows whose id is active. An empty active list keeps every row.
func activeOnly[T any](rows []T, active []string, id func(T) string) []T {
	if len(active) == 0 {
		return rows
	}
	set := make(map[string]bool, len(active))
	for _, a := range active {
		set[a] = true
	}
	var out []T
	for _, r := range rows {
		if set[id(r)] {
			out = append(out, r)
		}
	}
	return out
}
