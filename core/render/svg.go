package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"storformat/internal/errors"
)

// Element ids and handle names referenced by the interaction overlay
const (
	materialGradientID = "sf-material"
	sheenGradientID    = "sf-sheen"
	patternID          = "sf-pattern"
	clipID             = "sf-clip"

	HandleNW = "nw"
	HandleNE = "ne"
	HandleSW = "sw"
	HandleSE = "se"

	handlePx = 10.0
)

// Node builds the scene as an SVG element tree
func (s *Scene) Node() *html.Node {
	root := element("svg",
		"xmlns", "http://www.w3.org/2000/svg",
		"class", "sf-preview",
		"width", num(s.Box.Width),
		"height", num(s.Box.Height),
		"viewBox", fmt.Sprintf("0 0 %s %s", num(s.Box.Width), num(s.Box.Height)),
		"data-variant", string(s.Variant),
		"data-signature", string(s.Signature()),
	)
	appendChildren(root, s.defs())

	full := func() []string {
		return []string{"x", "0", "y", "0", "width", num(s.Box.Width), "height", num(s.Box.Height)}
	}
	appendChildren(root, element("rect", append(full(),
		"fill", "url(#"+materialGradientID+")",
		"opacity", num(s.Look.Opacity),
		"stroke", "#b8bec5",
	)...))
	if s.Look.Pattern != PatternNone && s.Look.PatternOpacity > 0 {
		appendChildren(root, element("rect", append(full(),
			"fill", "url(#"+patternID+")",
			"opacity", num(s.Look.PatternOpacity),
		)...))
	}
	if s.Look.Sheen > 0 {
		appendChildren(root, element("rect", append(full(),
			"fill", "url(#"+sheenGradientID+")",
			"opacity", num(s.Look.Sheen),
		)...))
	}

	if s.Design != nil {
		appendChildren(root, s.designNode())
	}
	for _, o := range s.Overlays {
		appendChildren(root, overlayNode(o))
	}
	if len(s.RingPoints) > 0 {
		g := element("g", "class", "sf-rings")
		r := s.Rings.DiameterPx / 2
		for _, p := range s.RingPoints {
			appendChildren(g, element("circle",
				"cx", num(p.X), "cy", num(p.Y), "r", num(r),
				"fill", "#f7f7f7", "stroke", "#7d838a",
				"stroke-width", num(math.Max(1, s.Rings.DiameterPx/5)),
			))
		}
		appendChildren(root, g)
	}
	for _, f := range s.Foils {
		appendChildren(root, foilNode(f))
	}
	return root
}

// Markup renders the scene as SVG markup
func (s *Scene) Markup() (string, error) {
	return renderNode(s.Node())
}

// MarkupResolved renders the scene with every image href passed through resolve
func (s *Scene) MarkupResolved(resolve func(href string) string) (string, error) {
	root := s.Node()
	rewriteHrefs(root, resolve)
	return renderNode(root)
}

func renderNode(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", errors.Wrap(errors.TypeInternal, "render svg", err)
	}
	return b.String(), nil
}

func rewriteHrefs(n *html.Node, resolve func(string) string) {
	if n.Type == html.ElementNode && n.Data == "image" {
		for i, a := range n.Attr {
			if a.Key == "href" {
				n.Attr[i].Val = resolve(a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteHrefs(c, resolve)
	}
}

func (s *Scene) defs() *html.Node {
	defs := element("defs")

	grad := element("linearGradient", "id", materialGradientID, "x1", "0", "y1", "0", "x2", "0", "y2", "1")
	for _, st := range s.Look.Gradient {
		appendChildren(grad, element("stop", "offset", num(st.Offset), "stop-color", st.Color))
	}
	sheen := element("linearGradient", "id", sheenGradientID, "x1", "0", "y1", "0", "x2", "1", "y2", "1")
	appendChildren(sheen,
		element("stop", "offset", "0", "stop-color", "#ffffff", "stop-opacity", "0.9"),
		element("stop", "offset", "0.45", "stop-color", "#ffffff", "stop-opacity", "0"),
	)
	appendChildren(defs, grad, sheen, element("clipPath", "id", clipID))
	appendChildren(defs.LastChild, element("rect", "x", "0", "y", "0", "width", num(s.Box.Width), "height", num(s.Box.Height)))

	if p := patternNode(s.Look.Pattern); p != nil {
		appendChildren(defs, p)
	}
	return defs
}

func patternNode(p Pattern) *html.Node {
	var size string
	var body []*html.Node
	switch p {
	case PatternMesh:
		size = "6"
		body = []*html.Node{element("circle", "cx", "3", "cy", "3", "r", "1.2", "fill", "#5f666d")}
	case PatternWeave:
		size = "4"
		body = []*html.Node{
			element("path", "d", "M0 2H4", "stroke", "#9a9384", "stroke-width", "0.6"),
			element("path", "d", "M2 0V4", "stroke", "#b3ad9f", "stroke-width", "0.6"),
		}
	case PatternGloss:
		size = "24"
		body = []*html.Node{element("path", "d", "M0 24L24 0", "stroke", "#ffffff", "stroke-width", "3")}
	case PatternBacking:
		size = "16"
		body = []*html.Node{element("path", "d", "M16 0H0V16", "fill", "none", "stroke", "#aab1b8", "stroke-width", "0.5")}
	default:
		return nil
	}
	n := element("pattern", "id", patternID, "width", size, "height", size, "patternUnits", "userSpaceOnUse")
	appendChildren(n, body...)
	return n
}

func (s *Scene) designNode() *html.Node {
	r := s.Design.Rect
	g := element("g", "class", "sf-design", "data-target", "design")
	appendChildren(g,
		element("image",
			"href", s.Design.Href,
			"x", num(r.X), "y", num(r.Y), "width", num(r.W), "height", num(r.H),
			"preserveAspectRatio", "none",
			"clip-path", "url(#"+clipID+")",
			"data-target", "body",
		),
		element("rect",
			"x", num(r.X), "y", num(r.Y), "width", num(r.W), "height", num(r.H),
			"fill", "none", "stroke", "#1f6feb", "stroke-dasharray", "4 3",
		),
	)
	for _, h := range handles(r) {
		appendChildren(g, h)
	}
	return g
}

func handles(r Rect) []*html.Node {
	corners := []struct {
		name string
		x, y float64
	}{
		{HandleNW, r.X, r.Y},
		{HandleNE, r.X + r.W, r.Y},
		{HandleSW, r.X, r.Y + r.H},
		{HandleSE, r.X + r.W, r.Y + r.H},
	}
	out := make([]*html.Node, len(corners))
	for i, c := range corners {
		out[i] = element("rect",
			"class", "sf-handle",
			"data-target", c.name,
			"x", num(c.x-handlePx/2), "y", num(c.y-handlePx/2),
			"width", num(handlePx), "height", num(handlePx),
			"fill", "#ffffff", "stroke", "#1f6feb",
		)
	}
	return out
}

func overlayNode(o Overlay) *html.Node {
	r := o.Rect
	attrs := []string{"class", "sf-" + string(o.Kind), "x", num(r.X), "y", num(r.Y), "width", num(r.W), "height", num(r.H)}
	switch o.Kind {
	case OverlayHem:
		return element("rect", append(attrs,
			"fill", "none", "stroke", "#6b7178",
			"stroke-width", num(o.StrokePx), "stroke-dasharray", "6 4",
		)...)
	case OverlayPocket:
		return element("rect", append(attrs, "fill", "#000000", "opacity", "0.08")...)
	case OverlayKeder:
		return element("rect", append(attrs,
			"fill", "#3d4248", "opacity", "0.55",
			"stroke", "#22262a", "stroke-width", num(o.StrokePx),
		)...)
	case OverlayUVSheen:
		return element("rect", append(attrs, "fill", "url(#"+sheenGradientID+")", "opacity", "0.25")...)
	case OverlayDoubleSided:
		g := element("g", "class", "sf-"+string(o.Kind))
		label := element("text",
			"x", num(r.X+r.W/2), "y", num(r.Y+r.H/2),
			"text-anchor", "middle", "dominant-baseline", "central",
			"font-size", "11", "fill", "#ffffff",
		)
		appendChildren(label, textNode(o.Label))
		appendChildren(g,
			element("rect", "x", num(r.X), "y", num(r.Y), "width", num(r.W), "height", num(r.H), "rx", "4", "fill", "#1f2328"),
			label,
		)
		return g
	default:
		return element("rect", attrs...)
	}
}

func foilNode(f FoilLayout) *html.Node {
	g := element("g",
		"class", "sf-foil",
		"data-target", "foil",
		"data-foil-id", strconv.Itoa(f.ID),
		"transform", fmt.Sprintf("translate(%s %s)", num(f.Center.X), num(f.Center.Y)),
	)
	font := []string{
		"font-family", f.Style.FontName,
		"font-size", num(f.Style.SizePx),
		"font-weight", strconv.Itoa(weight(f.Style.Weight)),
		"fill", "#1f2328",
		"text-anchor", "middle",
		"dominant-baseline", "central",
	}
	if f.Curved() {
		for _, gl := range f.Glyphs {
			t := element("text", append(font,
				"transform", fmt.Sprintf("translate(%s %s) rotate(%s)", num(gl.X), num(gl.DY), num(gl.Rotate)),
			)...)
			appendChildren(t, textNode(gl.Char))
			appendChildren(g, t)
		}
	} else {
		t := element("text", append(font, "letter-spacing", num(f.Style.LetterSpacingPx))...)
		appendChildren(t, textNode(f.Text))
		appendChildren(g, t)
	}
	if f.Active {
		b := f.Bounds
		appendChildren(g, element("rect",
			"x", num(b.X-f.Center.X), "y", num(b.Y-f.Center.Y),
			"width", num(b.W), "height", num(b.H),
			"fill", "none", "stroke", "#1f6feb", "stroke-dasharray", "4 3",
		))
	}
	return g
}

func weight(w int) int {
	if w <= 0 {
		return 400
	}
	return w
}

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendChildren(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}

// num formats a pixel value with at most two decimals
func num(v float64) string {
	// adding zero turns -0 into 0
	return strconv.FormatFloat(math.Round(v*100)/100+0, 'f', -1, 64)
}
