// Package api - HTTP handlers
// Handlers decode, normalize, call the engine and encode. Pricing, rendering and the
// checkout payload all live in core packages.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"storformat/api/envelope"
	"storformat/core/catalog"
	"storformat/core/checkout"
	"storformat/core/engine"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/internal/errors"
)

// maxBodyBytes caps request bodies; uploads travel base64 encoded
const maxBodyBytes = 32 << 20

// Handler serves the configurator endpoints
type Handler struct {
	engine     *engine.Engine
	normalizer *envelope.Normalizer
	bridge     *checkout.Bridge
	blobs      engine.BlobStore
	targetDPI  float64
	audit      envelope.AuditLogger
	version    string
}

// catalogChoice is the catalog a request is answered from
type catalogChoice struct {
	resolution catalog.Resolution
	source     string
}

func (h *Handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	env, ok := h.normalize(w, r, "price", envelope.RawInput{Selection: req.Selection, Catalog: req.Catalog})
	if !ok {
		return
	}
	cat, err := h.catalogFor(r.Context(), env)
	if err != nil {
		h.fail(w, r, "price", env, err)
		return
	}

	resp := PriceResponse{
		Selection: env.Selection,
		Price:     h.engine.PriceCatalog(env.Selection, cat.resolution.Catalog),
		Metadata:  h.metadata(env, cat, start),
	}
	h.succeed(r, "price", env, start)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req RenderRequest
	if !decode(w, r, &req) {
		return
	}
	raw := envelope.RawInput{Selection: req.Selection, Foils: req.Foils, ActiveFoilID: req.ActiveFoilID}
	if d := req.Design; d != nil {
		raw.Placement = d.Placement
		if raw.Placement == nil && d.WidthPx > 0 && d.HeightPx > 0 {
			p := engine.InitialPlacement(d.WidthPx, d.HeightPx, h.targetDPI, req.Selection)
			raw.Placement = &p
		}
	}
	env, ok := h.normalize(w, r, "render", raw)
	if !ok {
		return
	}

	in := render.Input{Selection: env.Selection, Foils: env.Foils, ActiveFoilID: env.ActiveFoilID}
	if req.Design != nil && env.Placement != nil {
		in.Design = &render.DesignInput{Placement: *env.Placement, Href: req.Design.Href}
	}
	markup, err := h.engine.Render(in).Markup()
	if err != nil {
		h.fail(w, r, "render", env, err)
		return
	}

	h.succeed(r, "render", env, start)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Input-Hash", string(env.InputHash))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	var req CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	raw := envelope.RawInput{Selection: req.Selection, Catalog: req.Catalog, Foils: req.Foils, ActiveFoilID: req.ActiveFoilID}
	if req.Upload != nil {
		raw.Placement = req.Upload.Placement
	}
	env, ok := h.normalize(w, r, "checkout", raw)
	if !ok {
		return
	}
	cat, err := h.catalogFor(ctx, env)
	if err != nil {
		h.fail(w, r, "checkout", env, err)
		return
	}

	st := engine.NewState(engine.StateOptions{Blobs: h.blobs, Renderer: h.engine.Renderer(), TargetDPI: h.targetDPI})
	st.SetCatalog(cat.resolution)
	st.ApplySelection(ctx, env.Selection)
	st.LoadFoils(env.Foils, env.ActiveFoilID)
	if req.Upload != nil && len(req.Upload.Data) > 0 {
		up, err := st.SetUpload(ctx, req.Upload.Data, req.Upload.Name)
		if err != nil {
			h.fail(w, r, "checkout", env, err)
			return
		}
		defer st.ClearUpload(context.WithoutCancel(ctx))
		if env.Placement != nil {
			up.Placement = *env.Placement
		}
	}
	engine.NewPipeline(h.engine, nil, nil).Refresh(ctx, st)

	target, err := h.bridge.Handoff(ctx, st)
	if err != nil {
		h.fail(w, r, "checkout", env, err)
		return
	}
	h.succeed(r, "checkout", env, start)
	writeJSON(w, http.StatusOK, CheckoutResponse{RedirectURL: target, Metadata: h.metadata(env, cat, start)})
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	res := h.engine.Catalog(r.Context())
	resp := CatalogResponse{Found: res.Found(), Products: []ProductSummary{}}
	if res.Found() {
		resp.Signature = string(res.Signature)
		resp.Store = res.Store
		resp.Key = res.Key
		resp.Products = summarize(res.Catalog)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
		"engine":  "storformat",
	})
}

// catalogFor returns the inline catalog or resolves one from the store
func (h *Handler) catalogFor(ctx context.Context, env *envelope.Envelope) (catalogChoice, error) {
	if env.Inline() {
		return catalogChoice{
			resolution: catalog.Resolution{Catalog: env.Catalog, Signature: env.CatalogSignature},
			source:     "inline",
		}, nil
	}
	res := h.engine.Catalog(ctx)
	if !res.Found() {
		return catalogChoice{}, errors.NotFound("catalog", "store")
	}
	return catalogChoice{resolution: res, source: res.Store}, nil
}

func (h *Handler) normalize(w http.ResponseWriter, r *http.Request, route string, raw envelope.RawInput) (*envelope.Envelope, bool) {
	env, err := h.normalizer.Normalize(raw)
	if err != nil {
		h.fail(w, r, route, nil, err)
		return nil, false
	}
	return env, true
}

func (h *Handler) metadata(env *envelope.Envelope, cat catalogChoice, start time.Time) ResponseMetadata {
	return ResponseMetadata{
		InputHash:        string(env.InputHash),
		CatalogSignature: string(cat.resolution.Signature),
		CatalogSource:    cat.source,
		EngineVersion:    h.version,
		DurationMs:       time.Since(start).Milliseconds(),
	}
}

func (h *Handler) succeed(r *http.Request, route string, env *envelope.Envelope, start time.Time) {
	entry := envelope.NewAuditEntry(route, env, middleware.GetReqID(r.Context()), clientIP(r))
	entry.SetDuration(time.Since(start))
	h.audit.Log(entry)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, route string, env *envelope.Envelope, err error) {
	entry := envelope.NewAuditEntry(route, env, middleware.GetReqID(r.Context()), clientIP(r))
	entry.MarkFailed(err)
	h.audit.Log(entry)

	status, code := statusFor(err)
	writeError(w, r, status, code, err.Error())
}

// statusFor maps an error type to an HTTP status and error code
func statusFor(err error) (int, string) {
	switch t := errors.TypeOf(err); t {
	case errors.TypeInput:
		return http.StatusBadRequest, string(t)
	case errors.TypeNotFound:
		return http.StatusNotFound, string(t)
	case errors.TypeCheckout:
		return http.StatusUnprocessableEntity, string(t)
	case errors.TypeStorage:
		return http.StatusServiceUnavailable, string(t)
	default:
		return http.StatusInternalServerError, string(errors.TypeInternal)
	}
}

func summarize(c *types.RuntimeCatalog) []ProductSummary {
	out := make([]ProductSummary, 0, len(c.Products))
	for _, p := range c.Products {
		s := ProductSummary{ID: p.ID, Slug: p.Slug, Name: p.Name}
		if sf := p.Storformat; sf != nil {
			s.Priced = len(sf.Materials) > 0
			s.Materials = len(sf.Materials)
			s.Finishes = len(sf.Finishes)
		}
		out = append(out, s)
	}
	return out
}

// decode reads a JSON body, answering 400 itself on failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	}})
}
