package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/core/types"
)

var frame = Box{Width: 560, Height: 280}

func TestLayoutFoilKeepsCandidateSizeWhenItFits(t *testing.T) {
	foil := types.CutLettersFoil{ID: 1, Text: "HELLO", Scale: 1, XRatio: 0.5, YRatio: 0.5}

	l := LayoutFoil(foil, frame, EstimateMeasurer{})

	assert.InDelta(t, 280*baseFontRatio, l.Style.SizePx, 1e-9)
	assert.Equal(t, Point{X: 280, Y: 140}, l.Center)
	assert.InDelta(t, 5*0.6*l.Style.SizePx+2*foilPaddingPx, l.Bounds.W, 1e-9)
	assert.False(t, l.Curved())
	assert.Equal(t, defaultFontName, l.Style.FontName)
}

func TestLayoutFoilShrinksToFrame(t *testing.T) {
	foil := types.CutLettersFoil{ID: 2, Text: strings.Repeat("W", 30), Scale: 4, LetterSpacingPx: 4, XRatio: 0.5, YRatio: 0.5}

	l := LayoutFoil(foil, frame, EstimateMeasurer{})

	candidate := 280 * baseFontRatio * 4
	assert.Less(t, l.Style.SizePx, candidate)
	assert.Less(t, l.Style.LetterSpacingPx, 4.0)
	assert.LessOrEqual(t, l.Bounds.W, frame.Width-2*foilMarginPx+1e-9)
	assert.LessOrEqual(t, l.Bounds.H, frame.Height-2*foilMarginPx+1e-9)
	assert.GreaterOrEqual(t, l.Bounds.X, foilMarginPx-1e-9)
}

func TestLayoutFoilClampsCentreInsideMargin(t *testing.T) {
	foil := types.CutLettersFoil{ID: 3, Text: "SALG", Scale: 1, XRatio: 0, YRatio: 1}

	l := LayoutFoil(foil, frame, EstimateMeasurer{})

	assert.InDelta(t, foilMarginPx, l.Bounds.X, 1e-9)
	assert.InDelta(t, frame.Height-foilMarginPx, l.Bounds.Y+l.Bounds.H, 1e-9)
}

func TestLayoutFoilClampsScale(t *testing.T) {
	small := LayoutFoil(types.CutLettersFoil{Text: "A", Scale: 0.01}, frame, EstimateMeasurer{})
	assert.InDelta(t, 280*baseFontRatio*types.MinFoilScale, small.Style.SizePx, 1e-9)

	unset := LayoutFoil(types.CutLettersFoil{Text: "A"}, frame, EstimateMeasurer{})
	assert.InDelta(t, 280*baseFontRatio, unset.Style.SizePx, 1e-9)
}

func TestCurvedGlyphsFollowParabola(t *testing.T) {
	foil := types.CutLettersFoil{ID: 4, Text: "ABCDE", Scale: 1, Curve: 50, XRatio: 0.5, YRatio: 0.5}

	l := LayoutFoil(foil, frame, EstimateMeasurer{})

	require.True(t, l.Curved())
	require.Len(t, l.Glyphs, 5)
	wantLift := l.Style.SizePx * 0.5 * liftFactor
	assert.InDelta(t, wantLift, l.LiftPx, 1e-9)

	mid := l.Glyphs[2]
	assert.InDelta(t, 0, mid.X, 1e-9)
	assert.InDelta(t, -wantLift, mid.DY, 1e-9, "positive curve lifts the middle")
	assert.InDelta(t, 0, mid.Rotate, 1e-9)

	first, last := l.Glyphs[0], l.Glyphs[4]
	assert.InDelta(t, first.DY, last.DY, 1e-9)
	assert.InDelta(t, -first.Rotate, last.Rotate, 1e-9)
	assert.Greater(t, first.Rotate, 0.0)
	// n = 0.8 for the outer glyphs of five equal advances
	assert.InDelta(t, -wantLift*(1-0.64), first.DY, 1e-9)
	assert.InDelta(t, 0.8*50*rotationPerCurve, first.Rotate, 1e-9)

	down := LayoutFoil(types.CutLettersFoil{Text: "ABCDE", Scale: 1, Curve: -50}, frame, EstimateMeasurer{})
	assert.InDelta(t, wantLift, down.Glyphs[2].DY, 1e-9, "negative curve drops the middle")
}

func TestFontMeasurer(t *testing.T) {
	m := NewFontMeasurer()
	style := TextStyle{FontName: "Go", SizePx: 40}

	short := m.Measure("Hi", style)
	long := m.Measure("Hello world", style)
	require.Len(t, long.Advances, 11)
	assert.Greater(t, long.Width, short.Width)
	assert.Greater(t, short.Height, 0.0)

	bold := m.Measure("Hello world", TextStyle{FontName: "Go", SizePx: 40, Weight: 700})
	assert.GreaterOrEqual(t, bold.Width, long.Width)

	spaced := m.Measure("Hello world", TextStyle{FontName: "Go", SizePx: 40, LetterSpacingPx: 2})
	assert.InDelta(t, long.Width+20, spaced.Width, 1e-9)

	mono := m.Measure("iiii", TextStyle{FontName: "Go Mono", SizePx: 40})
	wide := m.Measure("WWWW", TextStyle{FontName: "Go Mono", SizePx: 40})
	assert.InDelta(t, mono.Width, wide.Width, 1e-9)

	assert.Equal(t, TextMetrics{}, m.Measure("", style))
	assert.Equal(t, TextMetrics{}, m.Measure("x", TextStyle{}))
}
