package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storformat/core/engine"
	"storformat/core/ui"
	"storformat/internal/errors"
	"storformat/internal/logging"
)

// DefaultAnchor finds the element the overlay covers: an explicit marker first, then the
// usual product image containers
const DefaultAnchor = "[data-storformat-anchor], .product-image, .product-gallery, main img"

// OverlayPresenter injects each frame into the page
type OverlayPresenter struct {
	page   Evaluator
	blobs  engine.BlobStore
	anchor string
	log    *zap.Logger
}

// NewOverlayPresenter creates a presenter. Blob hrefs are inlined from blobs.
func NewOverlayPresenter(page Evaluator, blobs engine.BlobStore, anchor string) *OverlayPresenter {
	if anchor == "" {
		anchor = DefaultAnchor
	}
	return &OverlayPresenter{page: page, blobs: blobs, anchor: anchor, log: logging.Named("overlay")}
}

// Present implements engine.Presenter. A page without an anchor is an error so the
// pipeline retries on the next tick.
func (p *OverlayPresenter) Present(ctx context.Context, f engine.Frame) error {
	if f.Scene == nil {
		return nil
	}
	markup, err := f.Scene.MarkupResolved(func(href string) string {
		return p.resolve(ctx, href)
	})
	if err != nil {
		return err
	}
	price := ""
	if f.Price != nil {
		price = ui.Money(f.Price.Total)
	}

	var placed bool
	if err := p.page.Evaluate(ctx, injectScript(p.anchor, markup, price), &placed); err != nil {
		return err
	}
	if !placed {
		return errors.Browser("overlay anchor not found", nil).WithContext("anchor", p.anchor)
	}
	return nil
}

// resolve turns a blob handle into a data URL. Other hrefs pass through; a missing blob
// renders as an empty image.
func (p *OverlayPresenter) resolve(ctx context.Context, href string) string {
	if !strings.HasPrefix(href, engine.BlobPrefix) || p.blobs == nil {
		return href
	}
	blob, ok, err := p.blobs.Get(ctx, href)
	if err != nil || !ok {
		p.log.Debug("overlay blob unavailable", zap.String("handle", href), zap.Error(err))
		return ""
	}
	return DataURL(blob.ContentType, blob.Data)
}

// DataURL encodes data as a base64 data URL
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// injectScript places markup over the anchor's container and shows the price badge
func injectScript(anchor, markup, price string) string {
	return fmt.Sprintf(`((anchor, markup, price) => {
  const host = document.querySelector(anchor);
  if (!host) return false;
  let box = document.getElementById(%[1]s);
  if (!box) {
    const parent = host.parentElement || document.body;
    if (getComputedStyle(parent).position === 'static') parent.style.position = 'relative';
    box = document.createElement('div');
    box.id = %[1]s;
    box.style.cssText = 'position:absolute;inset:0;display:flex;flex-direction:column;align-items:center;justify-content:center;z-index:10;touch-action:none;';
    parent.appendChild(box);
  }
  box.innerHTML = markup;
  if (price) {
    const tag = document.createElement('div');
    tag.className = 'sf-price';
    tag.style.cssText = 'margin-top:8px;padding:4px 10px;border-radius:4px;background:#111;color:#fff;font:600 14px sans-serif;';
    tag.textContent = price;
    box.appendChild(tag);
  }
  return true;
})(%[2]s, %[3]s, %[4]s)`, jsString(OverlayID), jsString(anchor), jsString(markup), jsString(price))
}

var _ engine.Presenter = (*OverlayPresenter)(nil)
