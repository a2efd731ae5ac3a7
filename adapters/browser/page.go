package browser

import (
	"context"
	"net/url"

	"storformat/adapters/dom"
	"storformat/core/engine"
	"storformat/core/host"
	"storformat/internal/errors"
)

// Document is anything that can hand out the current page HTML
type Document interface {
	HTML(ctx context.Context) (string, error)
}

// PageSource reads the host state from a live page's current HTML
type PageSource struct {
	doc      Document
	keywords host.Keywords
}

// NewPageSource creates a host source over doc
func NewPageSource(doc Document, kw host.Keywords) *PageSource {
	return &PageSource{doc: doc, keywords: kw}
}

// HostAdapter implements engine.HostSource
func (p *PageSource) HostAdapter(ctx context.Context) (host.HostAdapter, error) {
	markup, err := p.doc.HTML(ctx)
	if err != nil {
		return nil, err
	}
	page, err := dom.FromString(markup)
	if err != nil {
		return nil, err
	}
	return page.HostAdapter(p.keywords), nil
}

// Redirect navigates to target, resolved against the current page URL
func (s *Session) Redirect(ctx context.Context, target string) error {
	base, err := s.Location(ctx)
	if err != nil {
		return err
	}
	abs, err := ResolveURL(base, target)
	if err != nil {
		return err
	}
	return s.Navigate(ctx, abs)
}

// ResolveURL resolves a possibly relative target against base
func ResolveURL(base, target string) (string, error) {
	t, err := url.Parse(target)
	if err != nil {
		return "", errors.Wrap(errors.TypeInput, "parse redirect url", err).WithContext("url", target)
	}
	if t.IsAbs() {
		return t.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(errors.TypeInput, "parse page url", err).WithContext("url", base)
	}
	return b.ResolveReference(t).String(), nil
}

var _ engine.HostSource = (*PageSource)(nil)
