package pricing

import (
	"strings"

	"storformat/core/text"
	"storformat/core/types"
)

// Match weights
const (
	variantWeight = 10
	nameWeight    = 3
)

// Matcher holds the catalog vocabulary used to pick materials, items and finishes.
// Catalog names are written by the shop, so these tables are separate from the host
// page keywords.
type Matcher struct {
	Variants  map[types.Variant][]string
	Finishing map[types.FinishingFlag][]string
}

// DefaultMatcher returns the Norwegian/English catalog vocabulary
func DefaultMatcher() Matcher {
	return Matcher{
		Variants: map[types.Variant][]string{
			types.VariantPVC:        {"pvc", "banner", "presenning"},
			types.VariantMesh:       {"mesh", "netting", "nett"},
			types.VariantTextile:    {"tekstil", "textile", "stoff", "fabric", "flagg"},
			types.VariantFoil:       {"folie", "foil", "vinyl", "klistremerke", "sticker"},
			types.VariantCutLetters: {"folietekst", "bokstav", "utskaret", "utskarne", "cut", "letters", "folie", "vinyl"},
		},
		Finishing: map[types.FinishingFlag][]string{
			types.FlagRings:       {"ringer", "maljer", "malje", "kroker", "grommet", "eyelet"},
			types.FlagHemming:     {"kantsom", "soming", "falset", "hemming", "hem"},
			types.FlagPockets:     {"lomme", "tunnel", "pocket"},
			types.FlagKeder:       {"keder"},
			types.FlagDoubleSided: {"dobbeltsidig", "tosidig", "2-sidig", "double"},
			types.FlagUVLaminate:  {"uv", "laminat", "laminering"},
		},
	}
}

// score rates name against the active variant and the product name.
// Each variant keyword found is worth 10, each product name token found 3.
func (m Matcher) score(name string, variant types.Variant, productName string) int {
	n := text.Normalize(name)
	s := 0
	for _, kw := range m.Variants[variant] {
		if text.ContainsAny(n, []string{kw}) {
			s += variantWeight
		}
	}
	for _, tok := range strings.Fields(text.Normalize(productName)) {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(n, tok) {
			s += nameWeight
		}
	}
	return s
}

// best returns the index of the highest scoring name. Candidates arrive sorted by sort
// order, so the first maximum wins ties; with no positive score the first candidate wins.
func (m Matcher) best(names []string, variant types.Variant, productName string) int {
	if len(names) == 0 {
		return -1
	}
	bestIdx, bestScore := 0, 0
	for i, name := range names {
		if s := m.score(name, variant, productName); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return bestIdx
}

// finish returns the first finish whose name carries a keyword of flag
func (m Matcher) finish(finishes []types.Finish, flag types.FinishingFlag) (types.Finish, bool) {
	for _, f := range finishes {
		if text.ContainsAny(text.Normalize(f.Name), m.Finishing[flag]) {
			return f, true
		}
	}
	return types.Finish{}, false
}
