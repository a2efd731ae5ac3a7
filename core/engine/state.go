package engine

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"storformat/core/catalog"
	"storformat/core/determinism"
	"storformat/core/interaction"
	"storformat/core/pricing"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/internal/errors"
	"storformat/internal/logging"
)

// DefaultTargetDPI is the print resolution used to size a fresh upload
const DefaultTargetDPI = 200.0

const cmPerInch = 2.54

// Upload is the shopper's design file
type Upload struct {
	Handle      string                `json:"handle"`
	Name        string                `json:"name"`
	ContentType string                `json:"contentType"`
	SizeBytes   int                   `json:"sizeBytes"`
	WidthPx     int                   `json:"widthPx"`
	HeightPx    int                   `json:"heightPx"`
	Placement   types.DesignPlacement `json:"placement"`
}

// StateOptions configures a new EngineState
type StateOptions struct {
	Blobs     BlobStore
	Renderer  *render.Renderer
	TargetDPI float64
}

// EngineState is everything the configurator remembers between ticks. It is owned by
// the scheduler's consumer and changed only through its methods.
type EngineState struct {
	Catalog          *types.RuntimeCatalog
	CatalogSignature determinism.Signature
	CatalogKey       string

	Selection types.SelectionState
	Upload    *Upload
	Foils     *interaction.FoilSet

	Price *pricing.Result
	Scene *render.Scene
	// presented is the signature of the last frame handed to the presenter
	presented determinism.Signature

	design    *interaction.DesignController
	foil      *interaction.FoilController
	blobs     BlobStore
	renderer  *render.Renderer
	targetDPI float64
	log       *zap.Logger
}

// NewState creates an empty state
func NewState(opts StateOptions) *EngineState {
	st := &EngineState{
		Foils:     interaction.NewFoilSet(),
		design:    interaction.NewDesignController(),
		foil:      interaction.NewFoilController(),
		blobs:     opts.Blobs,
		renderer:  opts.Renderer,
		targetDPI: opts.TargetDPI,
		log:       logging.Named("engine"),
	}
	if st.renderer == nil {
		st.renderer = render.NewRenderer(render.DefaultMaxWidthPx, render.DefaultMaxHeightPx, nil)
	}
	if st.targetDPI <= 0 {
		st.targetDPI = DefaultTargetDPI
	}
	return st
}

// Blobs returns the blob store behind uploads
func (st *EngineState) Blobs() BlobStore {
	return st.blobs
}

// Box returns the live banner box
func (st *EngineState) Box() render.Box {
	return st.renderer.Box(st.Selection)
}

// SetCatalog installs a resolved catalog. It reports false when the signature is unchanged.
func (st *EngineState) SetCatalog(res catalog.Resolution) bool {
	if !res.Found() || !res.Changed(st.CatalogSignature) {
		return false
	}
	st.Catalog = res.Catalog
	st.CatalogSignature = res.Signature
	st.CatalogKey = res.Key
	return true
}

// ApplySelection installs the selection read from the host and reports whether it changed.
// Switching to cut letters drops the uploaded design.
func (st *EngineState) ApplySelection(ctx context.Context, sel types.SelectionState) bool {
	if sel == st.Selection {
		return false
	}
	if sel.Variant == types.VariantCutLetters && st.Upload != nil {
		st.ClearUpload(ctx)
	}
	st.Selection = sel
	return true
}

// SetUpload stores a new design file, revokes the previous one and places the design
// centred at its natural print size.
func (st *EngineState) SetUpload(ctx context.Context, data []byte, name string) (*Upload, error) {
	if st.blobs == nil {
		return nil, errors.New(errors.TypeInternal, "no blob store configured")
	}
	if st.Selection.Variant == types.VariantCutLetters {
		return nil, errors.Input("cut letters do not take a design upload")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "unsupported image", err).WithContext("name", name)
	}
	contentType := "image/" + format

	handle, err := st.blobs.Put(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	st.revoke(ctx)

	st.design.Reset()
	st.Upload = &Upload{
		Handle:      handle,
		Name:        name,
		ContentType: contentType,
		SizeBytes:   len(data),
		WidthPx:     cfg.Width,
		HeightPx:    cfg.Height,
	}
	st.Upload.Placement = st.clampPlacement(InitialPlacement(cfg.Width, cfg.Height, st.targetDPI, st.Selection))
	return st.Upload, nil
}

// ClearUpload removes the design and revokes its blob
func (st *EngineState) ClearUpload(ctx context.Context) {
	st.revoke(ctx)
	st.Upload = nil
	st.design.Reset()
}

func (st *EngineState) revoke(ctx context.Context) {
	if st.Upload == nil || st.blobs == nil {
		return
	}
	if err := st.blobs.Revoke(ctx, st.Upload.Handle); err != nil {
		st.log.Debug("blob revoke failed", zap.String("handle", st.Upload.Handle), zap.Error(err))
	}
}

// InitialPlacement sizes an image of widthPx × heightPx printed at dpi on the selected
// banner and centres it
func InitialPlacement(widthPx, heightPx int, dpi float64, sel types.SelectionState) types.DesignPlacement {
	if dpi <= 0 {
		dpi = DefaultTargetDPI
	}
	bannerW, bannerH := sel.WidthCm, sel.HeightCm
	if bannerW <= 0 {
		bannerW = 100
	}
	if bannerH <= 0 {
		bannerH = 100
	}
	w := float64(widthPx) / dpi * cmPerInch / bannerW
	h := float64(heightPx) / dpi * cmPerInch / bannerH
	return types.DesignPlacement{
		XRatio:      (1 - w) / 2,
		YRatio:      (1 - h) / 2,
		WidthRatio:  w,
		HeightRatio: h,
	}
}

func (st *EngineState) clampPlacement(p types.DesignPlacement) types.DesignPlacement {
	box := st.Box()
	clamped := interaction.ClampDesign(render.DesignRect(p, box), box)
	if clamped == render.DesignRect(p, box) {
		return p
	}
	return render.PlacementFromRect(clamped, box)
}

// AddFoil adds a cut-letter foil and makes it active
func (st *EngineState) AddFoil(text string) types.CutLettersFoil {
	return st.Foils.Add(text)
}

// RemoveFoil deletes a foil
func (st *EngineState) RemoveFoil(id int) bool {
	if id == st.Foils.ActiveID() {
		st.foil.Reset()
	}
	return st.Foils.Remove(id)
}

// SelectFoil makes a foil active
func (st *EngineState) SelectFoil(id int) bool {
	if id != st.Foils.ActiveID() {
		st.foil.Reset()
	}
	return st.Foils.Select(id)
}

// UpdateFoil edits a foil in place
func (st *EngineState) UpdateFoil(id int, fn func(*types.CutLettersFoil)) bool {
	return st.Foils.Update(id, fn)
}

// LoadFoils restores saved foils
func (st *EngineState) LoadFoils(foils []types.CutLettersFoil, activeID int) {
	st.foil.Reset()
	st.Foils.Load(foils, activeID)
}

// HandleDesignPointer feeds a pointer event to the design controller and reports
// whether the design moved
func (st *EngineState) HandleDesignPointer(ev interaction.PointerEvent) bool {
	if st.Upload == nil {
		return false
	}
	p, changed := st.design.Handle(ev, st.Upload.Placement, st.Box())
	if changed {
		st.Upload.Placement = p
	}
	return changed
}

// HandleFoilPointer feeds a pointer event to the foil controller. A pointer going down
// on a foil selects it first, unless another pointer is still dragging or resizing.
func (st *EngineState) HandleFoilPointer(ev interaction.PointerEvent) bool {
	_, idle := st.foil.State().(interaction.Idle)
	if idle && ev.Kind == interaction.PointerDown && ev.FoilID > 0 && ev.FoilID != st.Foils.ActiveID() {
		st.SelectFoil(ev.FoilID)
	}
	foil, ok := st.Foils.Active()
	if !ok {
		return false
	}
	box := st.Box()
	bounds := st.renderer.Foil(foil, box).Bounds
	next, changed := st.foil.Handle(ev, foil, bounds, box)
	if !changed {
		return false
	}
	return st.Foils.Update(foil.ID, func(f *types.CutLettersFoil) {
		f.XRatio, f.YRatio, f.Scale = next.XRatio, next.YRatio, next.Scale
	})
}

// DesignState returns the design controller's interaction state
func (st *EngineState) DesignState() interaction.State {
	return st.design.State()
}

// FoilState returns the foil controller's interaction state
func (st *EngineState) FoilState() interaction.State {
	return st.foil.State()
}

// RenderInput is what the renderer needs from the state
func (st *EngineState) RenderInput() render.Input {
	in := render.Input{
		Selection:    st.Selection,
		Foils:        st.Foils.Foils(),
		ActiveFoilID: st.Foils.ActiveID(),
	}
	if st.Upload != nil {
		in.Design = &render.DesignInput{Placement: st.Upload.Placement, Href: st.Upload.Handle}
	}
	return in
}
