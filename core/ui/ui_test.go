package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/core/engine"
	"storformat/core/pricing"
	"storformat/core/types"
)

func TestTablePadsByRunes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("Linje", "Beløp")
	table.AddRow("Kantsøm", "60.00 kr")
	table.AddRow("PVC", "240.00 kr")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Linje   │ Beløp", lines[0])
	assert.Equal(t, "Kantsøm │ 60.00 kr", lines[2])
	assert.Equal(t, "PVC     │ 240.00 kr", lines[3])
}

func TestSelectionLine(t *testing.T) {
	sel := types.SelectionState{
		WidthCm: 200, HeightCm: 100.5, Quantity: 2, Variant: types.VariantMesh,
		Finishing:        types.Finishing{Rings: true, RingSpacingCm: 50, Hemming: true},
		DeliveryMethodID: "express",
	}
	assert.Equal(t, "200 × 100.5 cm, 2 stk, mesh, rings c/c 50, hemming, levering express", SelectionLine(sel))
}

func result(total int64) *pricing.Result {
	d := decimal.NewFromInt(total)
	return &pricing.Result{
		Material:     pricing.LineRef{ID: "m", Name: "PVC"},
		MaterialCost: d,
		ProductPrice: d,
		Total:        d,
	}
}

func TestWatchPresenterShowsChange(t *testing.T) {
	var buf bytes.Buffer
	p := NewWatchPresenter(NewWriter(&buf, true))
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	sel := types.SelectionState{WidthCm: 200, HeightCm: 100, Quantity: 1, Variant: types.VariantPVC}

	require.NoError(t, p.Present(context.Background(), engine.Frame{Selection: sel, Price: result(240)}))
	assert.Contains(t, buf.String(), "03:04:05")
	assert.Contains(t, buf.String(), "Totalt:  240.00 kr")
	assert.NotContains(t, buf.String(), "▲")

	buf.Reset()
	require.NoError(t, p.Present(context.Background(), engine.Frame{Selection: sel, Price: result(360)}))
	assert.Contains(t, buf.String(), "▲ +120.00 kr")

	buf.Reset()
	require.NoError(t, p.Present(context.Background(), engine.Frame{Selection: sel}))
	assert.Contains(t, buf.String(), "Ingen pris")
}

func TestVerbosityGatesInfoAndDebug(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Debug("hidden")
	w.Info("shown")
	w.SetVerbosity(0)
	w.Info("quiet")
	w.Warning("always")
	w.SetVerbosity(2)
	w.Debug("detail %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "ℹ shown")
	assert.Contains(t, out, "⚠ always")
	assert.Contains(t, out, "detail 7")
}

func TestSpinnerEndsWithStatus(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	s := w.NewSpinner("Åpner side")
	s.Start()
	s.Stop(false)

	assert.True(t, strings.HasSuffix(buf.String(), "\r✗ Åpner side\n"))
}
