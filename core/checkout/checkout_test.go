package checkout

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/adapters/storage"
	"storformat/core/catalog"
	"storformat/core/engine"
	"storformat/core/host"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/internal/errors"
)

const catalogKey = "storformat:config"

// pricedState runs one pipeline tick over the fixture catalog for sel
func pricedState(t *testing.T, sel types.SelectionState) (*engine.EngineState, *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	raw, err := os.ReadFile("../catalog/testdata/banner.json")
	require.NoError(t, err)
	store := storage.NewMemoryStore("session")
	require.NoError(t, store.Set(ctx, catalogKey, string(raw), 0))

	renderer := render.NewRenderer(0, 0, render.EstimateMeasurer{})
	e := engine.New(engine.Options{
		Resolver: catalog.NewResolver(catalog.KeyPlan{ExplicitKey: catalogKey, Prefix: "storformat"}, store),
		Renderer: renderer,
	})
	hosts := engine.HostSourceFunc(func(context.Context) (host.HostAdapter, error) {
		return host.Static(sel), nil
	})
	st := engine.NewState(engine.StateOptions{
		Blobs:    engine.NewStoreBlobs(store, time.Hour),
		Renderer: renderer,
	})
	engine.NewPipeline(e, hosts, nil).Tick(ctx, st)
	return st, store
}

func bannerSelection() types.SelectionState {
	return types.SelectionState{
		WidthCm:          200,
		HeightCm:         100,
		Quantity:         2,
		Variant:          types.VariantPVC,
		ProductSlug:      "banner",
		DeliveryMethodID: "pickup",
		Finishing:        types.Finishing{Hemming: true},
	}
}

func testOptions() Options {
	return Options{URL: "https://shop.example/checkout?step=1", Tenant: "acme", Site: "acme.example"}
}

func TestHandoffStoresPayloadAndReturnsURL(t *testing.T) {
	ctx := context.Background()
	st, store := pricedState(t, bannerSelection())
	require.NotNil(t, st.Price)

	b := NewBridge(store, testOptions())
	target, err := b.Handoff(ctx, st)
	require.NoError(t, err)

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "/checkout", u.Path)
	assert.Equal(t, "1", u.Query().Get("step"))
	assert.Equal(t, "acme", u.Query().Get("tenant"))
	assert.Equal(t, "acme.example", u.Query().Get("site"))

	p, err := b.Load(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "banner", p.Product.Slug)
	assert.Equal(t, types.VariantPVC, p.Variant)
	assert.Equal(t, 200.0, p.WidthCm)
	assert.Equal(t, 2, p.Quantity)
	assert.True(t, p.Finishing.Hemming)
	require.NotNil(t, p.Price)
	assert.True(t, p.Price.Total.Equal(st.Price.Total))
	require.NotNil(t, p.Delivery)
	assert.Equal(t, "pickup", p.Delivery.ID)
	assert.Nil(t, p.Upload)
	assert.Empty(t, p.Foils)
}

func TestHandoffIncludesUploadPreview(t *testing.T) {
	ctx := context.Background()
	st, store := pricedState(t, bannerSelection())

	var src bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 1200, 600))
	require.NoError(t, png.Encode(&src, img))
	_, err := st.SetUpload(ctx, src.Bytes(), "logo.png")
	require.NoError(t, err)

	b := NewBridge(store, testOptions())
	p, err := b.BuildPayload(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, p.Upload)
	assert.Equal(t, "logo.png", p.Upload.Name)
	assert.Equal(t, 1200, p.Upload.WidthPx)
	assert.Equal(t, st.Upload.Placement, p.Upload.Placement)

	cfg := decodePreview(t, p.Upload.PreviewDataURL)
	assert.Equal(t, 480, cfg.Bounds().Dx())
	assert.Equal(t, 240, cfg.Bounds().Dy())
}

func TestHandoffWithoutPreviewWhenBlobIsGone(t *testing.T) {
	ctx := context.Background()
	st, store := pricedState(t, bannerSelection())

	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, image.NewGray(image.Rect(0, 0, 40, 40))))
	up, err := st.SetUpload(ctx, src.Bytes(), "small.png")
	require.NoError(t, err)
	require.NoError(t, st.Blobs().Revoke(ctx, up.Handle))

	p, err := NewBridge(store, testOptions()).BuildPayload(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, p.Upload)
	assert.Empty(t, p.Upload.PreviewDataURL)
}

func TestHandoffCarriesFoilsForCutLetters(t *testing.T) {
	ctx := context.Background()
	sel := bannerSelection()
	sel.Variant = types.VariantCutLetters
	st, store := pricedState(t, sel)
	st.AddFoil("Åpent")
	st.AddFoil("Hver dag")

	p, err := NewBridge(store, testOptions()).BuildPayload(ctx, st)
	require.NoError(t, err)
	require.Len(t, p.Foils, 2)
	assert.Equal(t, "Åpent", p.Foils[0].Text)
}

func TestHandoffErrors(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore("session")

	unpriced := engine.NewState(engine.StateOptions{})
	_, err := NewBridge(store, testOptions()).Handoff(ctx, unpriced)
	assert.True(t, errors.IsType(err, errors.TypeCheckout))

	st, _ := pricedState(t, bannerSelection())
	_, err = NewBridge(store, Options{}).Handoff(ctx, st)
	assert.True(t, errors.IsType(err, errors.TypeCheckout))

	_, err = NewBridge(store, testOptions()).Load(ctx)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestPreviewKeepsSmallImagesAndFlattens(t *testing.T) {
	var src bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	require.NoError(t, png.Encode(&src, img))

	dataURL, err := PreviewDataURL(src.Bytes(), 480)
	require.NoError(t, err)
	out := decodePreview(t, dataURL)
	assert.Equal(t, 100, out.Bounds().Dx())

	r, g, b, _ := out.At(10, 10).RGBA()
	white := color.White
	wr, wg, wb, _ := white.RGBA()
	assert.InDelta(t, float64(wr), float64(r), 2000, "transparent pixels become white")
	assert.InDelta(t, float64(wg), float64(g), 2000)
	assert.InDelta(t, float64(wb), float64(b), 2000)

	_, err = PreviewDataURL([]byte("not an image"), 480)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func decodePreview(t *testing.T, dataURL string) image.Image {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	require.True(t, strings.HasPrefix(dataURL, prefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}
