// Package dom provides the host page adapter over an HTML document.
// It implements host.Page with goquery so the structural reader can run against a
// static snapshot (CLI, API, tests) or the outer HTML of a live page (adapters/browser).
package dom

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"storformat/core/host"
	"storformat/core/text"
	"storformat/internal/errors"
)

const (
	headingSelector = "h1, h2, h3, h4, h5, h6, legend, label, .heading, [data-heading]"
	blockSelector   = "section, fieldset, [data-block], .block, .option-group"
	numberSelector  = "input[type=number], input[inputmode=numeric], input[inputmode=decimal]"
	buttonSelector  = "button, [role=button], [role=radio], [role=option], input[type=radio], input[type=checkbox], option"
)

// Adapter implements host.Page over a parsed document
type Adapter struct {
	doc *goquery.Document
}

// New parses HTML from r
func New(r io.Reader) (*Adapter, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "parse host page", err)
	}
	return &Adapter{doc: doc}, nil
}

// FromString parses an HTML string
func FromString(markup string) (*Adapter, error) {
	return New(strings.NewReader(markup))
}

// FromDocument wraps an already parsed document
func FromDocument(doc *goquery.Document) *Adapter {
	return &Adapter{doc: doc}
}

// HostAdapter returns a structural host adapter reading this page with keywords kw
func (a *Adapter) HostAdapter(kw host.Keywords) *host.StructuralAdapter {
	return host.NewStructuralAdapter(a, kw)
}

// Blocks implements host.Page. A heading's block is its closest section-like ancestor,
// or its parent when the page has none.
func (a *Adapter) Blocks(keywords []string) []host.Block {
	var blocks []host.Block
	seen := map[*html.Node]bool{}

	a.doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		heading := text.Normalize(h.Text())
		if heading == "" || !text.ContainsAny(heading, keywords) {
			return
		}
		container := h.Closest(blockSelector)
		if container.Length() == 0 {
			container = h.Parent()
		}
		if container.Length() == 0 {
			return
		}
		node := container.Get(0)
		if seen[node] {
			return
		}
		seen[node] = true

		blocks = append(blocks, a.block(h, container))
	})
	return blocks
}

func (a *Adapter) block(heading, container *goquery.Selection) host.Block {
	b := host.Block{Heading: strings.TrimSpace(heading.Text())}

	container.Find(numberSelector).Each(func(_ int, in *goquery.Selection) {
		f := host.NumberField{Label: a.labelFor(in)}
		if v, ok := in.Attr("value"); ok {
			n, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(v), ",", ".", 1), 64)
			if err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
				f.Value, f.HasValue = n, true
			}
		}
		b.Numbers = append(b.Numbers, f)
	})

	container.Find(buttonSelector).Each(func(_ int, el *goquery.Selection) {
		btn := host.Button{
			ID:      firstAttr(el, "data-id", "data-value", "value"),
			Text:    strings.TrimSpace(el.Text()),
			Classes: strings.Fields(el.AttrOr("class", "")),
			Pressed: ariaTrue(el),
		}
		if goquery.NodeName(el) == "input" {
			btn.Text = a.labelFor(el)
			_, btn.Pressed = el.Attr("checked")
			btn.Pressed = btn.Pressed || ariaTrue(el)
		}
		if goquery.NodeName(el) == "option" {
			_, btn.Pressed = el.Attr("selected")
		}
		if btn.Text == "" {
			btn.Text = el.AttrOr("aria-label", "")
		}
		b.Buttons = append(b.Buttons, btn)
	})
	return b
}

// labelFor finds the human label of an input: label[for=id], an enclosing label, then
// aria-label, placeholder and name
func (a *Adapter) labelFor(in *goquery.Selection) string {
	if id, ok := in.Attr("id"); ok && id != "" {
		if l := a.doc.Find(`label[for="` + id + `"]`); l.Length() > 0 {
			return strings.TrimSpace(l.First().Text())
		}
	}
	if l := in.Closest("label"); l.Length() > 0 {
		return strings.TrimSpace(l.Text())
	}
	return firstAttr(in, "aria-label", "placeholder", "name")
}

// ProductSlug implements host.Page
func (a *Adapter) ProductSlug() string {
	if s := a.doc.Find("[data-product-slug]").First(); s.Length() > 0 {
		return strings.TrimSpace(s.AttrOr("data-product-slug", ""))
	}
	if m := a.doc.Find(`meta[property="product:slug"], meta[name="product-slug"]`).First(); m.Length() > 0 {
		return strings.TrimSpace(m.AttrOr("content", ""))
	}
	if c, ok := a.doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		c = strings.TrimRight(strings.SplitN(c, "?", 2)[0], "/")
		if i := strings.LastIndex(c, "/"); i >= 0 && i < len(c)-1 {
			return c[i+1:]
		}
	}
	return ""
}

func ariaTrue(el *goquery.Selection) bool {
	for _, attr := range []string{"aria-pressed", "aria-checked", "aria-selected"} {
		if strings.EqualFold(el.AttrOr(attr, ""), "true") {
			return true
		}
	}
	return false
}

func firstAttr(el *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(el.AttrOr(n, "")); v != "" {
			return v
		}
	}
	return ""
}

var _ host.Page = (*Adapter)(nil)
