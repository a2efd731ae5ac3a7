// Package types - Runtime catalog types
package types

import (
	"github.com/shopspring/decimal"
)

// PricingType is the pricing strategy of a product item or finish
type PricingType string

const (
	PricingFixed      PricingType = "fixed"
	PricingPerItem    PricingType = "per_item"
	PricingPercentage PricingType = "percentage"
	PricingM2         PricingType = "m2"
)

// RuntimeCatalog is the normalized per-tenant catalog.
// It is immutable once built and replaced wholesale on every successful read.
type RuntimeCatalog struct {
	Products []RuntimeProduct `json:"products"`
}

// FindProduct returns the product with the given slug or id
func (c *RuntimeCatalog) FindProduct(slugOrID string) (*RuntimeProduct, bool) {
	if c == nil || slugOrID == "" {
		return nil, false
	}
	for i := range c.Products {
		p := &c.Products[i]
		if p.Slug == slugOrID || p.ID == slugOrID {
			return p, true
		}
	}
	return nil, false
}

// DefaultProduct returns the first product that carries pricing tables
func (c *RuntimeCatalog) DefaultProduct() (*RuntimeProduct, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Products {
		if c.Products[i].Storformat != nil {
			return &c.Products[i], true
		}
	}
	return nil, false
}

// RuntimeProduct is one sellable product with optional pricing tables
type RuntimeProduct struct {
	ID                   string            `json:"id"`
	Slug                 string            `json:"slug"`
	Name                 string            `json:"name"`
	Description          string            `json:"description,omitempty"`
	ImageURL             string            `json:"imageUrl,omitempty"`
	ActiveFinishIDs      []string          `json:"activeFinishIds"`
	ActiveProductItemIDs []string          `json:"activeProductItemIds"`
	DeliveryMethods      []DeliveryMethod  `json:"deliveryMethods"`
	Storformat           *StorformatConfig `json:"storformat,omitempty"`
}

// ProductRef is the identity of a product carried into results and payloads
type ProductRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Ref returns the product identity
func (p *RuntimeProduct) Ref() ProductRef {
	return ProductRef{ID: p.ID, Slug: p.Slug, Name: p.Name}
}

// DeliveryMethod is a shipping option. A nil Price falls back to the fixed table.
type DeliveryMethod struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// StorformatConfig holds the full pricing tables of a product
type StorformatConfig struct {
	Config             PricingSettings     `json:"config"`
	Materials          []Material          `json:"materials"`
	M2Prices           []RateRow           `json:"m2Prices"`
	Finishes           []Finish            `json:"finishes"`
	FinishPrices       []FinishPrice       `json:"finishPrices"`
	ProductItems       []ProductItem       `json:"productItems"`
	ProductFixedPrices []ProductFixedPrice `json:"productFixedPrices"`
	ProductPriceTiers  []RateRow           `json:"productPriceTiers"`
}

// PricingSettings are the global pricing knobs
type PricingSettings struct {
	RoundingStep    decimal.Decimal `json:"roundingStep"`
	GlobalMarkupPct decimal.Decimal `json:"globalMarkupPct"`
	Quantities      []int           `json:"quantities"`
}

// Material is a printable substrate
type Material struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	SortOrder            int             `json:"sortOrder"`
	MarkupPct            decimal.Decimal `json:"markupPct"`
	MinPrice             decimal.Decimal `json:"minPrice"`
	InterpolationEnabled bool            `json:"interpolationEnabled"`
}

// RateRow is one per-m² tier owned by a material or a product item
type RateRow struct {
	OwnerID    string           `json:"ownerId"`
	FromM2     decimal.Decimal  `json:"fromM2"`
	ToM2       *decimal.Decimal `json:"toM2,omitempty"`
	PricePerM2 decimal.Decimal  `json:"pricePerM2"`
	IsAnchor   bool             `json:"isAnchor"`
}

// Finish is a finishing treatment
type Finish struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SortOrder int             `json:"sortOrder"`
	MarkupPct decimal.Decimal `json:"markupPct"`
}

// FinishPrice prices a finish either per unit or per m²
type FinishPrice struct {
	FinishID    string          `json:"finishId"`
	PricingType PricingType     `json:"pricingType"`
	FixedPrice  decimal.Decimal `json:"fixedPrice"`
	PricePerM2  decimal.Decimal `json:"pricePerM2"`
}

// ProductItem is an additional line item priced by its strategy
type ProductItem struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	SortOrder            int             `json:"sortOrder"`
	PricingType          PricingType     `json:"pricingType"`
	BasePrice            decimal.Decimal `json:"basePrice"`
	Percentage           decimal.Decimal `json:"percentage"`
	MarkupPct            decimal.Decimal `json:"markupPct"`
	MinPrice             decimal.Decimal `json:"minPrice"`
	InterpolationEnabled bool            `json:"interpolationEnabled"`
}

// ProductFixedPrice is an exact-quantity price for a product item
type ProductFixedPrice struct {
	ProductItemID string          `json:"productItemId"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}
