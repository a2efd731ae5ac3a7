// Package engine provides the configurator engine.
// The sync pipeline, the CLI and the HTTP API are thin wrappers around it.
package engine

import (
	"context"

	"storformat/core/catalog"
	"storformat/core/pricing"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/internal/errors"
)

// Engine prices and renders selections against the resolved catalog
type Engine struct {
	resolver *catalog.Resolver
	pricer   *pricing.Engine
	renderer *render.Renderer
}

// Options configures an engine. Nil members get defaults.
type Options struct {
	Resolver *catalog.Resolver
	Pricer   *pricing.Engine
	Renderer *render.Renderer
}

// New creates an engine
func New(opts Options) *Engine {
	e := &Engine{resolver: opts.Resolver, pricer: opts.Pricer, renderer: opts.Renderer}
	if e.resolver == nil {
		e.resolver = catalog.NewResolver(catalog.KeyPlan{})
	}
	if e.pricer == nil {
		e.pricer = pricing.Default()
	}
	if e.renderer == nil {
		e.renderer = render.NewRenderer(render.DefaultMaxWidthPx, render.DefaultMaxHeightPx, nil)
	}
	return e
}

// Renderer returns the engine's renderer
func (e *Engine) Renderer() *render.Renderer {
	return e.renderer
}

// Catalog resolves the runtime catalog from the configured stores
func (e *Engine) Catalog(ctx context.Context) catalog.Resolution {
	return e.resolver.ResolveWithSource(ctx)
}

// Price prices sel. An inline catalog wins over the resolved one. A selection without
// pricing is a NOT_FOUND error here because callers of this path expect an answer.
func (e *Engine) Price(ctx context.Context, sel types.SelectionState, inline *types.RuntimeCatalog) (*pricing.Result, error) {
	cat := inline
	if cat == nil {
		cat = e.resolver.Resolve(ctx)
	}
	if cat == nil {
		return nil, errors.NotFound("catalog", e.resolver.Plan().CompositeKey())
	}
	res := e.pricer.PriceCatalog(sel, cat)
	if res == nil {
		return nil, errors.NotFound("pricing", sel.ProductSlug).WithContext("variant", sel.Variant)
	}
	return res, nil
}

// PriceCatalog prices sel against cat; nil means no pricing is available
func (e *Engine) PriceCatalog(sel types.SelectionState, cat *types.RuntimeCatalog) *pricing.Result {
	return e.pricer.PriceCatalog(sel, cat)
}

// Render builds the scene for in
func (e *Engine) Render(in render.Input) *render.Scene {
	return e.renderer.Render(in)
}
