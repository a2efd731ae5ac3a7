// Package primitives - Tiered pricing primitives
// Per-m² rate tables: tier lookup, anchor interpolation, markup and rounding.
// Everything is decimal so totals never drift.
package primitives

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Tier is one row of a rate table. A nil To is unbounded.
type Tier struct {
	From     decimal.Decimal
	To       *decimal.Decimal
	Rate     decimal.Decimal
	IsAnchor bool
}

// Contains reports whether quantity falls inside [From, To]
func (t Tier) Contains(q decimal.Decimal) bool {
	if q.LessThan(t.From) {
		return false
	}
	return t.To == nil || q.LessThanOrEqual(*t.To)
}

// LookupTier returns the tier for quantity. tiers must be sorted by From.
// The first containing tier wins; in a gap or past every upper bound the last tier
// starting at or below quantity wins; below every tier the first tier wins.
func LookupTier(tiers []Tier, q decimal.Decimal) (Tier, bool) {
	if len(tiers) == 0 {
		return Tier{}, false
	}
	for _, t := range tiers {
		if t.Contains(q) {
			return t, true
		}
	}
	best := tiers[0]
	for _, t := range tiers {
		if t.From.LessThanOrEqual(q) {
			best = t
		}
	}
	return best, true
}

// Anchors returns the anchor tiers in order
func Anchors(tiers []Tier) []Tier {
	var out []Tier
	for _, t := range tiers {
		if t.IsAnchor {
			out = append(out, t)
		}
	}
	return out
}

// Interpolate returns the rate at q by piecewise-linear interpolation between anchors
// positioned at their From. Outside the anchor range the nearest anchor's rate applies.
// ok is false with fewer than two anchors.
func Interpolate(anchors []Tier, q decimal.Decimal) (decimal.Decimal, bool) {
	if len(anchors) < 2 {
		return decimal.Zero, false
	}
	first, last := anchors[0], anchors[len(anchors)-1]
	if q.LessThanOrEqual(first.From) {
		return first.Rate, true
	}
	if q.GreaterThanOrEqual(last.From) {
		return last.Rate, true
	}
	for i := 0; i < len(anchors)-1; i++ {
		lo, hi := anchors[i], anchors[i+1]
		if q.LessThan(lo.From) || q.GreaterThan(hi.From) {
			continue
		}
		span := hi.From.Sub(lo.From)
		if span.IsZero() {
			return hi.Rate, true
		}
		frac := q.Sub(lo.From).Div(span)
		return lo.Rate.Add(frac.Mul(hi.Rate.Sub(lo.Rate))), true
	}
	return last.Rate, true
}

// Rate resolves the per-unit rate at q: interpolated when enabled and at least two
// anchors exist, otherwise by tier lookup.
func Rate(tiers []Tier, q decimal.Decimal, interpolate bool) (decimal.Decimal, bool) {
	if interpolate {
		if r, ok := Interpolate(Anchors(tiers), q); ok {
			return r, true
		}
	}
	t, ok := LookupTier(tiers, q)
	if !ok {
		return decimal.Zero, false
	}
	return t.Rate, true
}

// ApplyMarkup returns x × (1 + pct/100)
func ApplyMarkup(x, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return x
	}
	return x.Mul(one.Add(pct.Div(hundred)))
}

// RoundToStep rounds x to the nearest multiple of step, halves away from zero.
// A step that is not positive rounds to whole units.
func RoundToStep(x, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		step = one
	}
	return x.Div(step).Round(0).Mul(step)
}

// RaiseToMinimum floors x at minimum when minimum is positive; it never lowers x
func RaiseToMinimum(x, minimum decimal.Decimal) (decimal.Decimal, bool) {
	if minimum.IsPositive() && x.LessThan(minimum) {
		return minimum, true
	}
	return x, false
}
