package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"storformat/core/types"
)

func selection(v types.Variant) types.SelectionState {
	return types.SelectionState{WidthCm: 200, HeightCm: 100, Quantity: 1, Variant: v}
}

func TestRenderDesignVariant(t *testing.T) {
	r := NewRenderer(0, 0, EstimateMeasurer{})
	sel := selection(types.VariantPVC)
	sel.Finishing = types.Finishing{Rings: true, RingSpacingCm: 50, Hemming: true}

	scene := r.Render(Input{
		Selection: sel,
		Design: &DesignInput{
			Placement: types.DesignPlacement{XRatio: 0.1, YRatio: 0.1, WidthRatio: 0.8, HeightRatio: 0.8},
			Href:      "blob:design-1",
		},
		Foils: []types.CutLettersFoil{{ID: 1, Text: "ignored"}},
	})

	assert.Equal(t, Box{Width: 560, Height: 280}, scene.Box)
	assert.Len(t, scene.RingPoints, 12)
	require.NotNil(t, scene.Design)
	assert.Equal(t, Rect{X: 56, Y: 28, W: 448, H: 224}, scene.Design.Rect)
	assert.Empty(t, scene.Foils, "foils are drawn for cut letters only")
}

func TestRenderCutLettersVariant(t *testing.T) {
	r := NewRenderer(0, 0, EstimateMeasurer{})

	scene := r.Render(Input{
		Selection: selection(types.VariantCutLetters),
		Design:    &DesignInput{Href: "blob:design-1"},
		Foils: []types.CutLettersFoil{
			{ID: 1, Text: "SALG", Scale: 1, XRatio: 0.5, YRatio: 0.3},
			{ID: 2, Text: "   "},
			{ID: 3, Text: "50%", Scale: 1, Curve: 30, XRatio: 0.5, YRatio: 0.7},
		},
		ActiveFoilID: 3,
	})

	assert.Nil(t, scene.Design)
	require.Len(t, scene.Foils, 2, "blank foils are skipped")
	assert.False(t, scene.Foils[0].Active)
	assert.True(t, scene.Foils[1].Active)
	assert.Empty(t, scene.RingPoints)
}

func TestSceneSignature(t *testing.T) {
	r := NewRenderer(0, 0, EstimateMeasurer{})
	a := r.Render(Input{Selection: selection(types.VariantPVC)})
	b := r.Render(Input{Selection: selection(types.VariantPVC)})
	c := r.Render(Input{Selection: selection(types.VariantMesh)})

	assert.NotEmpty(t, a.Signature())
	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Signature(), c.Signature())

	var nilScene *Scene
	assert.Empty(t, nilScene.Signature())
}

func TestSceneMarkup(t *testing.T) {
	r := NewRenderer(0, 0, EstimateMeasurer{})
	sel := selection(types.VariantMesh)
	sel.Finishing = types.Finishing{Rings: true, RingSpacingCm: 50, DoubleSided: true}
	scene := r.Render(Input{
		Selection: sel,
		Design: &DesignInput{
			Placement: types.DesignPlacement{XRatio: 0.25, YRatio: 0.25, WidthRatio: 0.5, HeightRatio: 0.5},
			Href:      "blob:abc",
		},
	})

	markup, err := scene.Markup()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(markup, "<svg "))
	assert.Contains(t, markup, `viewBox="0 0 560 280"`)
	assert.Contains(t, markup, `data-variant="mesh"`)
	assert.Contains(t, markup, `href="blob:abc"`)
	assert.Contains(t, markup, `id="sf-pattern"`)
	assert.Contains(t, markup, ">2-sidig<")
	// 12 rings plus the mesh pattern dot
	assert.Equal(t, 13, strings.Count(markup, "<circle"))
	assert.Equal(t, 4, strings.Count(markup, `class="sf-handle"`))

	// the markup parses back into an element tree
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestFoilMarkupEscapesText(t *testing.T) {
	r := NewRenderer(0, 0, EstimateMeasurer{})
	scene := r.Render(Input{
		Selection: selection(types.VariantCutLetters),
		Foils: []types.CutLettersFoil{
			{ID: 7, Text: "A<B", Scale: 1, XRatio: 0.5, YRatio: 0.5},
			{ID: 8, Text: "ARC", Scale: 1, Curve: 40, XRatio: 0.5, YRatio: 0.8},
		},
		ActiveFoilID: 7,
	})

	markup, err := scene.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "A&lt;B")
	assert.Contains(t, markup, `data-foil-id="7"`)
	assert.Contains(t, markup, "rotate(")
	assert.Equal(t, 1, strings.Count(markup, `stroke-dasharray="4 3"`), "only the active foil is outlined")
}
