package host

import (
	"storformat/core/text"
	"storformat/core/types"
	"storformat/internal/config"
)

// VariantRule maps label keywords to a variant
type VariantRule struct {
	Variant  types.Variant `json:"variant" yaml:"variant"`
	Keywords []string      `json:"keywords" yaml:"keywords"`
}

// Keywords is the host page contract expressed as data. Every entry is matched against
// normalized text (lowercase, no diacritics), so keywords are written normalized too.
type Keywords struct {
	SizeHeadings      []string `json:"sizeHeadings" yaml:"size_headings"`
	ProductHeadings   []string `json:"productHeadings" yaml:"product_headings"`
	FinishingHeadings []string `json:"finishingHeadings" yaml:"finishing_headings"`
	DeliveryHeadings  []string `json:"deliveryHeadings" yaml:"delivery_headings"`
	QuantityHeadings  []string `json:"quantityHeadings" yaml:"quantity_headings"`

	WidthLabels  []string `json:"widthLabels" yaml:"width_labels"`
	HeightLabels []string `json:"heightLabels" yaml:"height_labels"`

	// SelectedClasses mark a button as the active choice
	SelectedClasses []string `json:"selectedClasses" yaml:"selected_classes"`

	// Variants are checked in order; the first rule with a matching keyword wins
	Variants []VariantRule `json:"variants" yaml:"variants"`

	Finishing map[types.FinishingFlag][]string `json:"finishing" yaml:"finishing"`

	// RingSpacing100 marks a selected control as the 100 cm ring spacing option
	RingSpacing100 []string `json:"ringSpacing100" yaml:"ring_spacing_100"`
}

// KeywordsFromConfig returns the default contract with the configured overrides
func KeywordsFromConfig(cfg config.HostConfig) Keywords {
	kw := DefaultKeywords()
	if len(cfg.SelectedClasses) > 0 {
		kw.SelectedClasses = append([]string(nil), cfg.SelectedClasses...)
	}
	return kw
}

// DefaultKeywords returns the Norwegian/English host contract
func DefaultKeywords() Keywords {
	return Keywords{
		SizeHeadings:      []string{"storrelse", "mal", "dimensjon", "format", "size"},
		ProductHeadings:   []string{"produkt", "materiale", "type", "product", "material"},
		FinishingHeadings: []string{"etterbehandling", "tilvalg", "finishing", "finish"},
		DeliveryHeadings:  []string{"levering", "frakt", "delivery", "shipping"},
		QuantityHeadings:  []string{"antall", "quantity", "qty"},
		WidthLabels:       []string{"bredde", "width"},
		HeightLabels:      []string{"hoyde", "height"},
		SelectedClasses:   []string{"selected", "active", "is-selected", "is-active"},
		Variants: []VariantRule{
			// cut-letters first: its copy usually mentions foil as well
			{Variant: types.VariantCutLetters, Keywords: []string{"folietekst", "foliebokstaver", "utskarne", "utskarede", "cut letters", "cut-letters", "cut vinyl", "bokstaver"}},
			{Variant: types.VariantFoil, Keywords: []string{"folie", "foil", "klistremerke", "sticker"}},
			{Variant: types.VariantMesh, Keywords: []string{"mesh", "netting", "nett"}},
			{Variant: types.VariantTextile, Keywords: []string{"tekstil", "textile", "stoff", "fabric", "flagg"}},
			{Variant: types.VariantPVC, Keywords: []string{"pvc", "banner", "presenning"}},
		},
		Finishing: map[types.FinishingFlag][]string{
			types.FlagRings:       {"ringer", "maljer", "malje", "kroker", "rings", "grommet", "eyelet"},
			types.FlagHemming:     {"kantsom", "soming", "falset", "hemming", "hem"},
			types.FlagPockets:     {"lomme", "tunnel", "pocket"},
			types.FlagKeder:       {"keder"},
			types.FlagDoubleSided: {"dobbeltsidig", "tosidig", "2-sidig", "double sided", "double-sided"},
			types.FlagUVLaminate:  {"uv", "laminat", "laminering"},
		},
		RingSpacing100: []string{"100cm", "100 cm"},
	}
}

// MatchVariant returns the first variant whose keywords occur in label
func (k Keywords) MatchVariant(label string) (types.Variant, bool) {
	n := text.Normalize(label)
	for _, rule := range k.Variants {
		if text.ContainsAny(n, rule.Keywords) {
			return rule.Variant, true
		}
	}
	return types.VariantDefault, false
}

// MatchFinishing returns every finishing flag whose keywords occur in label
func (k Keywords) MatchFinishing(label string) []types.FinishingFlag {
	n := text.Normalize(label)
	var flags []types.FinishingFlag
	for _, flag := range types.FinishingFlags {
		if text.ContainsAny(n, k.Finishing[flag]) {
			flags = append(flags, flag)
		}
	}
	return flags
}
