package host

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"storformat/core/text"
	"storformat/core/types"
)

// fakePage matches blocks by heading keyword the way a real page adapter does
type fakePage struct {
	blocks []Block
	slug   string
}

func (p fakePage) Blocks(keywords []string) []Block {
	var out []Block
	for _, b := range p.blocks {
		if text.ContainsAny(text.Normalize(b.Heading), keywords) {
			out = append(out, b)
		}
	}
	return out
}

func (p fakePage) ProductSlug() string { return p.slug }

func selected(label string) Button {
	return Button{Text: label, Classes: []string{"btn", "is-selected"}}
}

func plain(label string) Button {
	return Button{Text: label, Classes: []string{"btn"}}
}

func num(label string, v float64) NumberField {
	return NumberField{Label: label, Value: v, HasValue: true}
}

func TestMatchVariantPrecedence(t *testing.T) {
	kw := DefaultKeywords()
	tests := []struct {
		label string
		want  types.Variant
		ok    bool
	}{
		{"Folietekst (utskårne bokstaver)", types.VariantCutLetters, true},
		{"Folie", types.VariantFoil, true},
		{"Mesh banner", types.VariantMesh, true},
		{"Tekstilbanner", types.VariantTextile, true},
		{"PVC-banner 510g", types.VariantPVC, true},
		{"Something else", types.VariantDefault, false},
	}
	for _, tt := range tests {
		got, ok := kw.MatchVariant(tt.label)
		assert.Equal(t, tt.want, got, tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
	}
}

func TestReadFullSelection(t *testing.T) {
	page := fakePage{
		slug: "banner",
		blocks: []Block{
			{Heading: "Velg størrelse", Numbers: []NumberField{num("Høyde (cm)", 100), num("Bredde (cm)", 200)}},
			{Heading: "Antall", Numbers: []NumberField{num("", 3)}},
			{Heading: "Produkt", Buttons: []Button{plain("PVC banner"), selected("Mesh banner")}},
			{Heading: "Etterbehandling", Buttons: []Button{
				selected("Maljer hver 50 cm"),
				selected("Kantsøm"),
				plain("Lomme"),
				{Text: "UV-laminering", Pressed: true},
			}},
			{Heading: "Levering", Buttons: []Button{plain("Henting"), {ID: "express", Text: "Ekspress", Classes: []string{"active"}}}},
		},
	}

	sel := Read(NewStructuralAdapter(page, DefaultKeywords()))

	assert.Equal(t, 200.0, sel.WidthCm)
	assert.Equal(t, 100.0, sel.HeightCm)
	assert.Equal(t, 3, sel.Quantity)
	assert.Equal(t, types.VariantMesh, sel.Variant)
	assert.Equal(t, types.Finishing{Rings: true, RingSpacingCm: 50, Hemming: true, UVLaminate: true}, sel.Finishing)
	assert.Equal(t, "express", sel.DeliveryMethodID)
	assert.Equal(t, "banner", sel.ProductSlug)
}

func TestReadFallsBackOnUnrecognizedStructure(t *testing.T) {
	sel := Read(NewStructuralAdapter(fakePage{}, DefaultKeywords()))
	assert.Equal(t, types.SelectionState{
		WidthCm:  FallbackWidthCm,
		HeightCm: FallbackHeightCm,
		Quantity: 1,
		Variant:  types.VariantDefault,
	}, sel)

	assert.Equal(t, types.VariantDefault, Read(nil).Variant)
}

func TestReadDimensionsUnlabelledOrder(t *testing.T) {
	page := fakePage{blocks: []Block{
		{Heading: "Mål", Numbers: []NumberField{num("", 300), {Label: "", HasValue: false}, num("", 150), num("Antall", 2)}},
	}}
	a := NewStructuralAdapter(page, DefaultKeywords())

	w, h, ok := a.ReadDimensions()
	assert.True(t, ok)
	assert.Equal(t, 300.0, w)
	assert.Equal(t, 150.0, h)

	q, ok := a.ReadQuantity()
	assert.True(t, ok)
	assert.Equal(t, 2, q)
}

func TestRingSpacing(t *testing.T) {
	tests := []struct {
		name    string
		buttons []Button
		want    int
	}{
		{"dedicated 100cm control", []Button{selected("Maljer"), selected("100cm")}, 100},
		{"number in rings text", []Button{selected("Ringer hver 100 cm")}, 100},
		{"unsupported number", []Button{selected("Ringer hver 30 cm")}, 50},
		{"no number", []Button{selected("Maljer")}, 50},
		{"100cm control not selected", []Button{selected("Maljer"), plain("100 cm")}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := fakePage{blocks: []Block{{Heading: "Etterbehandling", Buttons: tt.buttons}}}
			f := NewStructuralAdapter(page, DefaultKeywords()).ReadFinishing()
			assert.True(t, f.Rings)
			assert.Equal(t, tt.want, f.RingSpacingCm)
		})
	}
}

func TestDeliveryFallsBackToSluggedLabel(t *testing.T) {
	page := fakePage{blocks: []Block{{Heading: "Frakt", Buttons: []Button{selected("Hent i butikk")}}}}
	id, ok := NewStructuralAdapter(page, DefaultKeywords()).ReadDeliveryMethod()
	assert.True(t, ok)
	assert.Equal(t, "hent-i-butikk", id)
}

func TestStaticAdapterAppliesFallbacks(t *testing.T) {
	sel := Read(Static(types.SelectionState{
		WidthCm:   300,
		Variant:   types.VariantMesh,
		Finishing: types.Finishing{Rings: true},
	}))

	assert.Equal(t, FallbackWidthCm, sel.WidthCm, "a half-read size falls back as a whole")
	assert.Equal(t, 1, sel.Quantity)
	assert.Equal(t, types.VariantMesh, sel.Variant)
	assert.Equal(t, types.RingSpacing50, sel.Finishing.RingSpacingCm)
	assert.Empty(t, sel.DeliveryMethodID)
}

func TestReadRejectsNonFiniteAndHugeValues(t *testing.T) {
	tests := []struct {
		name    string
		numbers []NumberField
		qty     int
	}{
		{name: "infinite width", numbers: []NumberField{num("Bredde", math.Inf(1)), num("Høyde", 80)}, qty: 1},
		{name: "nan height", numbers: []NumberField{num("Bredde", 200), num("Høyde", math.NaN())}, qty: 1},
		{name: "infinite quantity", numbers: []NumberField{num("Antall", math.Inf(1))}, qty: 1},
		{name: "quantity above cap", numbers: []NumberField{num("Antall", MaxQuantity+1)}, qty: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := fakePage{blocks: []Block{{Heading: "Mål og antall", Numbers: tt.numbers}}}
			sel := Read(NewStructuralAdapter(page, DefaultKeywords()))
			assert.Equal(t, FallbackWidthCm, sel.WidthCm)
			assert.Equal(t, FallbackHeightCm, sel.HeightCm)
			assert.Equal(t, tt.qty, sel.Quantity)
		})
	}
}
