// Package envelope - Request normalization
// Handlers never pass raw request bodies to the engine. Every request becomes an
// Envelope: a canonical selection, sanitised foils, a clamped placement and a hash
// that identifies the input.
package envelope

import (
	"encoding/json"
	"time"

	"storformat/core/catalog"
	"storformat/core/determinism"
	"storformat/core/host"
	"storformat/core/interaction"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/internal/errors"
)

// RawInput is a request body before normalization
type RawInput struct {
	Selection    types.SelectionState
	Placement    *types.DesignPlacement
	Foils        []types.CutLettersFoil
	ActiveFoilID int
	Catalog      json.RawMessage
}

// Envelope is the normalized input the handlers hand to the engine
type Envelope struct {
	Selection    types.SelectionState   `json:"selection"`
	Placement    *types.DesignPlacement `json:"placement,omitempty"`
	Foils        []types.CutLettersFoil `json:"foils,omitempty"`
	ActiveFoilID int                    `json:"activeFoilId,omitempty"`

	// Catalog is set when the request carried one inline
	Catalog          *types.RuntimeCatalog `json:"-"`
	CatalogSignature determinism.Signature `json:"catalogSignature,omitempty"`

	InputHash    determinism.Signature `json:"inputHash"`
	NormalizedAt time.Time             `json:"normalizedAt"`
}

// Normalizer turns raw input into envelopes
type Normalizer struct {
	renderer *render.Renderer
	now      func() time.Time
}

// NewNormalizer creates a normalizer sizing placements with renderer's banner box
func NewNormalizer(renderer *render.Renderer) *Normalizer {
	return &Normalizer{renderer: renderer, now: time.Now}
}

// Normalize validates raw and returns its envelope
func (n *Normalizer) Normalize(raw RawInput) (*Envelope, error) {
	if v := raw.Selection.Variant; v != "" && !v.IsValid() {
		return nil, errors.Input("unknown variant").WithContext("variant", string(v))
	}
	if raw.Selection.WidthCm < 0 || raw.Selection.HeightCm < 0 || raw.Selection.Quantity < 0 {
		return nil, errors.Input("size and quantity must not be negative")
	}

	env := &Envelope{
		Selection:    canonicalSelection(raw.Selection),
		NormalizedAt: n.now().UTC(),
	}

	if len(raw.Foils) > 0 {
		set := interaction.NewFoilSet()
		set.Load(raw.Foils, raw.ActiveFoilID)
		env.Foils = set.Foils()
		env.ActiveFoilID = set.ActiveID()
	}

	if raw.Placement != nil && env.Selection.Variant != types.VariantCutLetters {
		box := n.renderer.Box(env.Selection)
		p := render.PlacementFromRect(interaction.ClampDesign(render.DesignRect(*raw.Placement, box), box), box)
		env.Placement = &p
	}

	if len(raw.Catalog) > 0 && string(raw.Catalog) != "null" {
		cat, ok := catalog.Parse(raw.Catalog)
		if !ok {
			return nil, errors.Input("inline catalog must be a JSON object with a products array")
		}
		env.Catalog = cat
		env.CatalogSignature = catalog.Signature(cat)
	}

	env.InputHash = computeInputHash(env)
	return env, nil
}

// canonicalSelection applies the host reader's fallbacks and snaps ring spacing
func canonicalSelection(sel types.SelectionState) types.SelectionState {
	out := host.Read(host.Static(sel))
	switch {
	case !out.Finishing.Rings:
		out.Finishing.RingSpacingCm = 0
	case out.Finishing.RingSpacingCm != types.RingSpacing100:
		out.Finishing.RingSpacingCm = types.RingSpacing50
	}
	return out
}

func computeInputHash(env *Envelope) determinism.Signature {
	// hash only the fields that affect the result
	return determinism.SignatureOf(struct {
		Selection        types.SelectionState
		Placement        *types.DesignPlacement
		Foils            []types.CutLettersFoil
		ActiveFoilID     int
		CatalogSignature determinism.Signature
	}{env.Selection, env.Placement, env.Foils, env.ActiveFoilID, env.CatalogSignature})
}

// ShortHash returns the first 12 characters of the input hash
func (e *Envelope) ShortHash() string {
	if len(e.InputHash) >= 12 {
		return string(e.InputHash[:12])
	}
	return string(e.InputHash)
}

// Inline reports whether the request carried its own catalog
func (e *Envelope) Inline() bool {
	return e.Catalog != nil
}
