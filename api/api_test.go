package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/adapters/storage"
	"storformat/core/catalog"
	"storformat/core/checkout"
	"storformat/core/engine"
	"storformat/core/render"
)

const catalogKey = "storformat:config"

func fixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../core/catalog/testdata/banner.json")
	require.NoError(t, err)
	return string(raw)
}

func newServer(t *testing.T, seeded bool, tweaks ...func(*Options)) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore("shared")
	if seeded {
		require.NoError(t, store.Set(context.Background(), catalogKey, fixture(t), 0))
	}
	e := engine.New(engine.Options{
		Resolver: catalog.NewResolver(catalog.KeyPlan{ExplicitKey: catalogKey, Prefix: "storformat"}, store),
		Renderer: render.NewRenderer(0, 0, render.EstimateMeasurer{}),
	})
	opts := Options{
		Version:  "test",
		Engine:   e,
		Store:    store,
		Checkout: checkout.Options{URL: "https://shop.example/checkout", Tenant: "acme", Site: "main"},
	}
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	return NewServer(opts), store
}

func do(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const (
	bannerSelection = `{"widthCm":200,"heightCm":100,"quantity":1,"variant":"pvc","productSlug":"banner"}`
	unpricedCatalog = `{"products":[{"slug":"poster","name":"Poster"}]}`
)

func TestHealthAndVersion(t *testing.T) {
	s, _ := newServer(t, false)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = do(t, s, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"test"`)
}

func TestPriceFromStore(t *testing.T) {
	s, _ := newServer(t, true)

	rec := do(t, s, http.MethodPost, "/price", `{"selection":`+bannerSelection+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Price)
	assert.Equal(t, "240", resp.Price.ProductPrice.String())
	assert.Equal(t, "shared", resp.Metadata.CatalogSource)
	assert.NotEmpty(t, resp.Metadata.InputHash)
	assert.NotEmpty(t, resp.Metadata.CatalogSignature)
}

func TestPriceInlineCatalog(t *testing.T) {
	s, _ := newServer(t, false)

	rec := do(t, s, http.MethodPost, "/price", `{"selection":`+bannerSelection+`}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/price", `{"selection":`+bannerSelection+`,"catalog":`+fixture(t)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "inline", resp.Metadata.CatalogSource)
	assert.Equal(t, "240", resp.Price.ProductPrice.String())

	rec = do(t, s, http.MethodPost, "/price", `{"selection":`+bannerSelection+`,"catalog":{"items":[]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceWithoutPricingIsNull(t *testing.T) {
	s, _ := newServer(t, false)

	rec := do(t, s, http.MethodPost, "/price", `{"selection":{"widthCm":50,"heightCm":70,"productSlug":"poster"},"catalog":`+unpricedCatalog+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":null`)
}

func TestBadInput(t *testing.T) {
	s, _ := newServer(t, true)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", `{"selection":`, "INVALID_JSON"},
		{"unknown variant", `{"selection":{"variant":"marble"}}`, "INPUT_ERROR"},
		{"negative size", `{"selection":{"widthCm":-1}}`, "INPUT_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/price", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestRender(t *testing.T) {
	s, _ := newServer(t, false)

	body := `{"selection":` + bannerSelection + `,"design":{"href":"https://cdn.example/logo.png","width_px":800,"height_px":400}}`
	rec := do(t, s, http.MethodPost, "/render", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Input-Hash"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
	assert.Contains(t, rec.Body.String(), "https://cdn.example/logo.png")

	letters := `{"selection":{"widthCm":200,"heightCm":100,"variant":"cut-letters"},"foils":[{"text":"<i>Salg</i>"}]}`
	rec = do(t, s, http.MethodPost, "/render", letters)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Salg")
	assert.NotContains(t, rec.Body.String(), "<i>")
}

func TestCheckout(t *testing.T) {
	s, store := newServer(t, true)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 300, 150))))
	data, err := json.Marshal(img.Bytes())
	require.NoError(t, err)

	body := `{"selection":` + bannerSelection + `,"upload":{"name":"logo.png","data":` + string(data) + `}}`
	rec := do(t, s, http.MethodPost, "/checkout", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://shop.example/checkout?site=main&tenant=acme", resp.RedirectURL)

	payload, err := checkout.NewBridge(store, checkout.Options{}).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, payload.Upload)
	assert.Equal(t, "logo.png", payload.Upload.Name)
	assert.NotEmpty(t, payload.Upload.PreviewDataURL)

	keys, err := store.Keys(context.Background(), engine.BlobPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys, "the uploaded blob is released after the hand-off")
}

func TestCheckoutErrors(t *testing.T) {
	s, _ := newServer(t, true)

	rec := do(t, s, http.MethodPost, "/checkout", `{"selection":{"widthCm":200,"heightCm":100,"variant":"cut-letters"},"upload":{"name":"x.png","data":"AAAA"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/checkout", `{"selection":{"productSlug":"poster"},"catalog":`+unpricedCatalog+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCatalog(t *testing.T) {
	s, _ := newServer(t, true)

	rec := do(t, s, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, catalogKey, resp.Key)
	require.NotEmpty(t, resp.Products)
	assert.Equal(t, "banner", resp.Products[0].Slug)
	assert.True(t, resp.Products[0].Priced)

	empty, _ := newServer(t, false)
	rec = do(t, empty, http.MethodGet, "/catalog", "")
	assert.Contains(t, rec.Body.String(), `"found":false`)
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited independently")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(visitorTTL + time.Second)
	rl.Allow("10.0.0.3")
	assert.Len(t, rl.visitors, 1, "idle clients are swept")

	assert.True(t, NewRateLimiter(0, 0).Allow("x"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s, _ := newServer(t, false, func(o *Options) {
		o.RatePerSecond = 1
		o.Burst = 1
	})

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
