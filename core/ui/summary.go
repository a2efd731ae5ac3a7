package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storformat/core/engine"
	"storformat/core/pricing"
	"storformat/core/types"
)

// Currency is appended to every amount
const Currency = "kr"

// Money formats an amount with the currency
func Money(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + Currency
}

// SelectionLine is a one-line description of a selection
func SelectionLine(sel types.SelectionState) string {
	line := fmt.Sprintf("%s × %s cm, %d stk, %s", trim(sel.WidthCm), trim(sel.HeightCm), sel.EffectiveQuantity(), sel.Variant)
	for _, f := range sel.Finishing.Flags() {
		line += ", " + string(f)
		if f == types.FlagRings {
			line += fmt.Sprintf(" c/c %d", sel.Finishing.RingSpacingCm)
		}
	}
	if sel.DeliveryMethodID != "" {
		line += ", levering " + sel.DeliveryMethodID
	}
	return line
}

func trim(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// PriceSummary prints a price with its breakdown
func (w *Writer) PriceSummary(sel types.SelectionState, res *pricing.Result) {
	w.Header("Pris")
	w.Println("%s", w.color(Dim, SelectionLine(sel)))
	w.Println("")
	if res == nil {
		w.Warning("Ingen pris tilgjengelig for dette valget")
		return
	}

	table := w.NewTable("Linje", "Beløp")
	table.AddRow(res.Material.Name+" ("+res.TotalAreaM2.StringFixed(2)+" m²)", Money(res.MaterialCost))
	if res.Item != nil {
		table.AddRow(res.Item.Name, Money(res.ItemCost))
	}
	for _, f := range res.Finishes {
		table.AddRow(f.Name, Money(f.Cost))
	}
	if res.Delivery != nil {
		name := res.Delivery.Name
		if res.Delivery.Fallback {
			name += " *"
		}
		table.AddRow(name, Money(res.Shipping))
	}
	table.Render()

	w.Println("")
	if res.MinimumApplied {
		w.Info("Minstepris %s brukt", Money(res.MinimumPrice))
	}
	w.Println("%s %s", w.color(Bold, "Produkt:"), Money(res.ProductPrice))
	w.Println("%s %s", w.color(Bold+Green, "Totalt: "), w.color(Bold+Green, Money(res.Total)))
}

// WatchPresenter prints every new frame of a watch session together with the change
// in total since the previous one
type WatchPresenter struct {
	w        *Writer
	previous *decimal.Decimal
	now      func() time.Time
}

// NewWatchPresenter creates a presenter writing to w
func NewWatchPresenter(w *Writer) *WatchPresenter {
	return &WatchPresenter{w: w, now: time.Now}
}

// Present implements engine.Presenter
func (p *WatchPresenter) Present(ctx context.Context, f engine.Frame) error {
	p.w.Println("%s", p.w.color(Dim, p.now().Format("15:04:05")))
	p.w.PriceSummary(f.Selection, f.Price)

	if f.Price != nil {
		total := f.Price.Total
		if p.previous != nil && !p.previous.Equal(total) {
			change := total.Sub(*p.previous)
			if change.IsPositive() {
				p.w.Println("%s", p.w.color(Red, "▲ +"+Money(change)))
			} else {
				p.w.Println("%s", p.w.color(Green, "▼ "+Money(change)))
			}
		}
		p.previous = &total
	}
	if f.Upload != nil {
		p.w.Info("Design %s (%d×%d px)", f.Upload.Name, f.Upload.WidthPx, f.Upload.HeightPx)
	}
	if n := len(f.Foils); n > 0 {
		p.w.Info("%d foliertekst(er)", n)
	}
	return nil
}
