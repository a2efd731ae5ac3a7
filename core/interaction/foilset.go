package interaction

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"storformat/core/types"
)

// MaxFoilRunes caps the length of a foil's text
const MaxFoilRunes = 120

// Defaults for new foils
const (
	DefaultFoilText   = "Din tekst"
	defaultFoilWeight = 700
)

// FoilSet owns the ordered cut-letter foils, the active foil and the id counter.
// It is not safe for concurrent use; the scheduler's consumer owns it.
type FoilSet struct {
	foils    []types.CutLettersFoil
	activeID int
	nextID   int
	policy   *bluemonday.Policy
}

// NewFoilSet creates an empty set
func NewFoilSet() *FoilSet {
	return &FoilSet{nextID: 1, policy: bluemonday.StrictPolicy()}
}

// Foils returns a copy of the foils in order
func (s *FoilSet) Foils() []types.CutLettersFoil {
	out := make([]types.CutLettersFoil, len(s.foils))
	copy(out, s.foils)
	return out
}

// Len returns the number of foils
func (s *FoilSet) Len() int {
	return len(s.foils)
}

// ActiveID returns the active foil id, 0 for none
func (s *FoilSet) ActiveID() int {
	return s.activeID
}

// Get returns the foil with id
func (s *FoilSet) Get(id int) (types.CutLettersFoil, bool) {
	if i := s.index(id); i >= 0 {
		return s.foils[i], true
	}
	return types.CutLettersFoil{}, false
}

// Active returns the active foil
func (s *FoilSet) Active() (types.CutLettersFoil, bool) {
	return s.Get(s.activeID)
}

// Add appends a foil with text, centred, and makes it active. Each new foil is
// placed a little lower than the previous one so they do not stack exactly.
func (s *FoilSet) Add(text string) types.CutLettersFoil {
	text = s.Sanitize(text)
	if text == "" {
		text = DefaultFoilText
	}
	y := 0.5 + 0.12*float64(len(s.foils)%3)
	foil := types.CutLettersFoil{
		ID:         s.nextID,
		Text:       text,
		Scale:      1,
		FontWeight: defaultFoilWeight,
		XRatio:     0.5,
		YRatio:     y,
	}
	s.nextID++
	s.foils = append(s.foils, foil)
	s.activeID = foil.ID
	return foil
}

// Remove deletes the foil with id. Removing the active foil activates the last remaining one.
func (s *FoilSet) Remove(id int) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.foils = append(s.foils[:i], s.foils[i+1:]...)
	if s.activeID == id {
		s.activeID = 0
		if n := len(s.foils); n > 0 {
			s.activeID = s.foils[n-1].ID
		}
	}
	return true
}

// Select makes id the active foil
func (s *FoilSet) Select(id int) bool {
	if s.index(id) < 0 {
		return false
	}
	s.activeID = id
	return true
}

// Update applies fn to the foil with id, then sanitises and clamps the result.
// The id itself cannot be changed.
func (s *FoilSet) Update(id int, fn func(*types.CutLettersFoil)) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	foil := s.foils[i]
	fn(&foil)
	foil.ID = id
	s.foils[i] = s.normalize(foil)
	return true
}

// Load replaces the foils, for example when restoring a saved configuration. Ids that
// are missing or duplicated get fresh ones, and the counter is reseeded above the
// highest id so later foils never collide.
func (s *FoilSet) Load(foils []types.CutLettersFoil, activeID int) {
	s.foils = s.foils[:0]
	seen := make(map[int]bool, len(foils))
	maxID := 0
	for _, f := range foils {
		if f.ID > maxID {
			maxID = f.ID
		}
	}
	if maxID >= s.nextID {
		s.nextID = maxID + 1
	}
	for _, f := range foils {
		if f.ID <= 0 || seen[f.ID] {
			f.ID = s.nextID
			s.nextID++
		}
		seen[f.ID] = true
		s.foils = append(s.foils, s.normalize(f))
	}

	s.activeID = 0
	if s.index(activeID) >= 0 {
		s.activeID = activeID
	} else if n := len(s.foils); n > 0 {
		s.activeID = s.foils[n-1].ID
	}
}

// Sanitize strips markup from foil text, flattens line breaks and caps its length
func (s *FoilSet) Sanitize(text string) string {
	clean := html.UnescapeString(s.policy.Sanitize(text))
	clean = strings.Join(strings.Fields(clean), " ")
	if r := []rune(clean); len(r) > MaxFoilRunes {
		clean = string(r[:MaxFoilRunes])
	}
	return clean
}

func (s *FoilSet) normalize(f types.CutLettersFoil) types.CutLettersFoil {
	f.Text = s.Sanitize(f.Text)
	if f.Scale == 0 {
		f.Scale = 1
	}
	f.Scale = clampRange(f.Scale, types.MinFoilScale, types.MaxFoilScale)
	f.Curve = clampRange(f.Curve, -types.MaxFoilCurve, types.MaxFoilCurve)
	f.XRatio = clampRange(f.XRatio, 0, 1)
	f.YRatio = clampRange(f.YRatio, 0, 1)
	if f.LetterSpacingPx < 0 {
		f.LetterSpacingPx = 0
	}
	return f
}

func (s *FoilSet) index(id int) int {
	if id <= 0 {
		return -1
	}
	for i, f := range s.foils {
		if f.ID == id {
			return i
		}
	}
	return -1
}
