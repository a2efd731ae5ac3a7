// Package engine - Sync pipeline
// One tick runs the phases in order:
// 1. Resolve the runtime catalog
// 2. Read the host selection
// 3. Price
// 4. Render and present
// A failing phase degrades the tick instead of aborting it.
package engine

import (
	"context"

	"go.uber.org/zap"

	"storformat/core/determinism"
	"storformat/core/host"
	"storformat/core/pricing"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/internal/logging"
)

// Phase is how far a tick got
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolved
	PhaseRead
	PhasePriced
	PhaseRendered
	PhasePresented
)

// String returns the phase name
func (p Phase) String() string {
	names := []string{"idle", "resolved", "read", "priced", "rendered", "presented"}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// HostSource yields a host adapter for the current page state
type HostSource interface {
	HostAdapter(ctx context.Context) (host.HostAdapter, error)
}

// HostSourceFunc adapts a function to HostSource
type HostSourceFunc func(ctx context.Context) (host.HostAdapter, error)

// HostAdapter implements HostSource
func (f HostSourceFunc) HostAdapter(ctx context.Context) (host.HostAdapter, error) {
	return f(ctx)
}

// Frame is what a presenter shows
type Frame struct {
	Selection    types.SelectionState   `json:"selection"`
	Price        *pricing.Result        `json:"price,omitempty"`
	Scene        *render.Scene          `json:"scene"`
	Upload       *Upload                `json:"upload,omitempty"`
	Foils        []types.CutLettersFoil `json:"foils,omitempty"`
	ActiveFoilID int                    `json:"activeFoilId,omitempty"`
}

// Signature identifies a frame's visible content
func (f Frame) Signature() determinism.Signature {
	return determinism.SignatureOf(struct {
		Scene determinism.Signature
		Price *pricing.Result
	}{f.Scene.Signature(), f.Price})
}

// Presenter shows frames, for example by patching the live page or printing to a terminal
type Presenter interface {
	Present(ctx context.Context, f Frame) error
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(ctx context.Context, f Frame) error

// Present implements Presenter
func (f PresenterFunc) Present(ctx context.Context, fr Frame) error {
	return f(ctx, fr)
}

// Presenters presents to each presenter in order. Every presenter sees the frame; the
// first error is returned.
type Presenters []Presenter

// Present implements Presenter
func (ps Presenters) Present(ctx context.Context, fr Frame) error {
	var first error
	for _, p := range ps {
		if err := p.Present(ctx, fr); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// TickIssue is a degraded phase
type TickIssue struct {
	Phase   Phase
	Message string
	Cause   error
}

// TickReport summarises one tick
type TickReport struct {
	Phase            Phase
	CatalogChanged   bool
	SelectionChanged bool
	Presented        bool
	Issues           []TickIssue
}

func (r *TickReport) record(phase Phase, msg string, cause error) {
	r.Issues = append(r.Issues, TickIssue{Phase: phase, Message: msg, Cause: cause})
}

// Pipeline runs sync ticks against an EngineState
type Pipeline struct {
	engine    *Engine
	hosts     HostSource
	presenter Presenter
	log       *zap.Logger
}

// NewPipeline creates a pipeline. A nil host source keeps the current selection;
// a nil presenter renders without presenting.
func NewPipeline(e *Engine, hosts HostSource, presenter Presenter) *Pipeline {
	return &Pipeline{engine: e, hosts: hosts, presenter: presenter, log: logging.Named("pipeline")}
}

// Engine returns the pipeline's engine
func (p *Pipeline) Engine() *Engine {
	return p.engine
}

// Tick resolves, reads, prices, renders and presents. It never fails: every degraded
// phase is logged at debug level and listed in the report.
func (p *Pipeline) Tick(ctx context.Context, st *EngineState) TickReport {
	var report TickReport

	res := p.engine.Catalog(ctx)
	if !res.Found() {
		report.record(PhaseResolved, "no runtime catalog", nil)
	}
	report.CatalogChanged = st.SetCatalog(res)
	report.Phase = PhaseResolved

	if p.hosts != nil {
		adapter, err := p.hosts.HostAdapter(ctx)
		if err != nil {
			report.record(PhaseRead, "host page unavailable", err)
		} else {
			report.SelectionChanged = st.ApplySelection(ctx, host.Read(adapter))
		}
	}
	report.Phase = PhaseRead

	p.price(st)
	report.Phase = PhasePriced

	p.present(ctx, st, &report)
	for _, issue := range report.Issues {
		p.log.Debug("tick degraded",
			zap.Stringer("phase", issue.Phase),
			zap.String("issue", issue.Message),
			zap.Error(issue.Cause))
	}
	return report
}

// Refresh re-prices, re-renders and presents without touching the catalog or the host.
// Pointer events use it so a drag redraws immediately.
func (p *Pipeline) Refresh(ctx context.Context, st *EngineState) TickReport {
	report := TickReport{Phase: PhaseRead}
	p.price(st)
	report.Phase = PhasePriced
	p.present(ctx, st, &report)
	return report
}

func (p *Pipeline) price(st *EngineState) {
	if st.Catalog == nil {
		st.Price = nil
		return
	}
	st.Price = p.engine.PriceCatalog(st.Selection, st.Catalog)
}

func (p *Pipeline) present(ctx context.Context, st *EngineState, report *TickReport) {
	st.Scene = p.engine.Render(st.RenderInput())
	report.Phase = PhaseRendered

	if p.presenter == nil {
		return
	}
	frame := st.Frame()
	sig := frame.Signature()
	if sig != "" && sig == st.presented {
		return
	}
	if err := p.presenter.Present(ctx, frame); err != nil {
		report.record(PhasePresented, "present failed", err)
		return
	}
	st.presented = sig
	report.Presented = true
	report.Phase = PhasePresented
}

// Frame returns the state's current frame
func (st *EngineState) Frame() Frame {
	return Frame{
		Selection:    st.Selection,
		Price:        st.Price,
		Scene:        st.Scene,
		Upload:       st.Upload,
		Foils:        st.Foils.Foils(),
		ActiveFoilID: st.Foils.ActiveID(),
	}
}
