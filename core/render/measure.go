package render

import (
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"go.uber.org/zap"

	"storformat/internal/logging"
)

// TextStyle is the font setup of a measured string
type TextStyle struct {
	FontName        string  `json:"fontName"`
	SizePx          float64 `json:"sizePx"`
	Weight          int     `json:"weight"`
	LetterSpacingPx float64 `json:"letterSpacingPx"`
}

// Bold reports whether the weight selects a bold face
func (s TextStyle) Bold() bool {
	return s.Weight >= 600
}

// TextMetrics is the measured size of a string. Advances holds one raw advance per rune,
// without letter spacing.
type TextMetrics struct {
	Width    float64
	Height   float64
	Advances []float64
}

// TextMeasurer is the offscreen text measurer used by the cut-letter layout
type TextMeasurer interface {
	Measure(s string, style TextStyle) TextMetrics
}

// FontMeasurer measures text with the Go fonts. Font names containing "mono" use Go Mono,
// everything else Go Regular. It is safe for concurrent use.
type FontMeasurer struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
}

// NewFontMeasurer creates a measurer
func NewFontMeasurer() *FontMeasurer {
	return &FontMeasurer{fonts: make(map[string]*opentype.Font)}
}

// Measure implements TextMeasurer
func (m *FontMeasurer) Measure(s string, style TextStyle) TextMetrics {
	if style.SizePx <= 0 || s == "" {
		return TextMetrics{}
	}
	f, err := m.font(style)
	if err != nil {
		logging.Debug("font unavailable, estimating text size", zap.Error(err))
		return EstimateMeasurer{}.Measure(s, style)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    style.SizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return EstimateMeasurer{}.Measure(s, style)
	}
	defer face.Close()

	metrics := TextMetrics{}
	runes := []rune(s)
	metrics.Advances = make([]float64, len(runes))
	for i, r := range runes {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		metrics.Advances[i] = px(adv)
		metrics.Width += metrics.Advances[i]
	}
	metrics.Width += style.LetterSpacingPx * float64(len(runes)-1)
	fm := face.Metrics()
	metrics.Height = px(fm.Ascent + fm.Descent)
	return metrics
}

func (m *FontMeasurer) font(style TextStyle) (*opentype.Font, error) {
	mono := strings.Contains(strings.ToLower(style.FontName), "mono")
	var key string
	var data []byte
	switch {
	case mono && style.Bold():
		key, data = "mono-bold", gomonobold.TTF
	case mono:
		key, data = "mono", gomono.TTF
	case style.Bold():
		key, data = "bold", gobold.TTF
	default:
		key, data = "regular", goregular.TTF
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.fonts[key]; ok {
		return f, nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	m.fonts[key] = f
	return f, nil
}

func px(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// EstimateMeasurer approximates text as fixed pitch glyphs 0.6 em wide and 1.2 em tall
type EstimateMeasurer struct{}

// Measure implements TextMeasurer
func (EstimateMeasurer) Measure(s string, style TextStyle) TextMetrics {
	runes := []rune(s)
	if style.SizePx <= 0 || len(runes) == 0 {
		return TextMetrics{}
	}
	adv := style.SizePx * 0.6
	metrics := TextMetrics{Height: style.SizePx * 1.2, Advances: make([]float64, len(runes))}
	for i := range runes {
		metrics.Advances[i] = adv
	}
	metrics.Width = adv*float64(len(runes)) + style.LetterSpacingPx*float64(len(runes)-1)
	return metrics
}
