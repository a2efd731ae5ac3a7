package interaction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/core/types"
)

func TestFoilSetAddSelectRemove(t *testing.T) {
	s := NewFoilSet()

	a := s.Add("SALG")
	b := s.Add("")
	c := s.Add("<b>50%</b> rabatt")

	assert.Equal(t, []int{1, 2, 3}, []int{a.ID, b.ID, c.ID})
	assert.Equal(t, DefaultFoilText, b.Text)
	assert.Equal(t, "50% rabatt", c.Text)
	assert.Equal(t, 3, s.ActiveID(), "the newest foil is active")

	require.True(t, s.Select(1))
	assert.False(t, s.Select(42))
	assert.Equal(t, 1, s.ActiveID())

	require.True(t, s.Remove(1))
	assert.Equal(t, 3, s.ActiveID(), "removing the active foil activates the last one")
	assert.False(t, s.Remove(1))

	require.True(t, s.Remove(2))
	require.True(t, s.Remove(3))
	assert.Equal(t, 0, s.ActiveID())
	_, ok := s.Active()
	assert.False(t, ok)

	assert.Equal(t, 4, s.Add("ny").ID, "ids are never reused")
}

func TestFoilSetUpdateSanitisesAndClamps(t *testing.T) {
	s := NewFoilSet()
	f := s.Add("x")

	ok := s.Update(f.ID, func(foil *types.CutLettersFoil) {
		foil.ID = 99
		foil.Text = "<script>alert(1)</script>Tom &amp; Jerry\n  Co"
		foil.Scale = 9
		foil.Curve = -250
		foil.XRatio = 1.5
		foil.LetterSpacingPx = -2
	})
	require.True(t, ok)

	got, ok := s.Get(f.ID)
	require.True(t, ok)
	assert.Equal(t, "Tom & Jerry Co", got.Text)
	assert.Equal(t, types.MaxFoilScale, got.Scale)
	assert.Equal(t, -types.MaxFoilCurve, got.Curve)
	assert.Equal(t, 1.0, got.XRatio)
	assert.Equal(t, 0.0, got.LetterSpacingPx)

	assert.False(t, s.Update(99, func(*types.CutLettersFoil) {}))
}

func TestFoilSetLoadReseedsCounter(t *testing.T) {
	s := NewFoilSet()
	s.Add("first")

	s.Load([]types.CutLettersFoil{
		{ID: 7, Text: "a"},
		{ID: 0, Text: "b"},
		{ID: 7, Text: "c"},
		{ID: 3, Text: "d", Scale: 0.05},
	}, 3)

	var ids []int
	for _, f := range s.Foils() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []int{7, 8, 9, 3}, ids)
	assert.Equal(t, 3, s.ActiveID())
	d, _ := s.Get(3)
	assert.Equal(t, types.MinFoilScale, d.Scale)

	assert.Equal(t, 10, s.Add("next").ID)

	s.Load(nil, 5)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.ActiveID())
	assert.Equal(t, 11, s.Add("after reset").ID, "the counter never goes back")

	s.Load([]types.CutLettersFoil{{ID: 2, Text: "x"}}, 42)
	assert.Equal(t, 2, s.ActiveID(), "unknown active id falls back to the last foil")
}

func TestSanitizeCapsLength(t *testing.T) {
	s := NewFoilSet()
	long := strings.Repeat("æ", MaxFoilRunes+10)
	assert.Len(t, []rune(s.Sanitize(long)), MaxFoilRunes)
}
