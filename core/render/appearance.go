package render

import "storformat/core/types"

// Pattern is the texture drawn over the material gradient
type Pattern string

const (
	PatternNone    Pattern = "none"
	PatternMesh    Pattern = "mesh"
	PatternWeave   Pattern = "weave"
	PatternGloss   Pattern = "gloss"
	PatternBacking Pattern = "backing"
)

// GradientStop is one colour stop of the material gradient
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Look is how a material variant is drawn
type Look struct {
	Gradient       []GradientStop `json:"gradient"`
	Pattern        Pattern        `json:"pattern"`
	PatternOpacity float64        `json:"patternOpacity"`
	Opacity        float64        `json:"opacity"`
	// Sheen is the opacity of the specular highlight, 0 for none
	Sheen float64 `json:"sheen"`
}

var looks = map[types.Variant]Look{
	types.VariantPVC: {
		Gradient: []GradientStop{{0, "#fdfdfd"}, {0.55, "#f1f2f4"}, {1, "#dfe2e6"}},
		Pattern:  PatternNone,
		Opacity:  1,
		Sheen:    0.18,
	},
	types.VariantMesh: {
		Gradient:       []GradientStop{{0, "#f4f5f6"}, {1, "#d9dcdf"}},
		Pattern:        PatternMesh,
		PatternOpacity: 0.45,
		Opacity:        0.82,
	},
	types.VariantTextile: {
		Gradient:       []GradientStop{{0, "#fbfaf7"}, {0.5, "#f2efe8"}, {1, "#e4dfd4"}},
		Pattern:        PatternWeave,
		PatternOpacity: 0.3,
		Opacity:        1,
		Sheen:          0.05,
	},
	types.VariantFoil: {
		Gradient:       []GradientStop{{0, "#ffffff"}, {0.4, "#eef3f8"}, {1, "#d5dde6"}},
		Pattern:        PatternGloss,
		PatternOpacity: 0.2,
		Opacity:        1,
		Sheen:          0.35,
	},
	types.VariantCutLetters: {
		Gradient:       []GradientStop{{0, "#e9ecef"}, {1, "#cfd4da"}},
		Pattern:        PatternBacking,
		PatternOpacity: 0.25,
		Opacity:        1,
	},
	types.VariantDefault: {
		Gradient: []GradientStop{{0, "#fafafa"}, {1, "#e6e6e6"}},
		Pattern:  PatternNone,
		Opacity:  1,
		Sheen:    0.12,
	},
}

// Appearance returns the fixed look of a variant; unknown variants get the default look
func Appearance(v types.Variant) Look {
	if l, ok := looks[v]; ok {
		return l
	}
	return looks[types.VariantDefault]
}
