package browser

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/adapters/storage"
	"storformat/core/catalog"
	"storformat/core/checkout"
	"storformat/core/engine"
	"storformat/core/host"
	"storformat/core/interaction"
	"storformat/core/render"
	"storformat/core/scheduler"
	"storformat/core/types"
	"storformat/internal/errors"
)

// fakeEvaluator records scripts and answers with a canned reply
type fakeEvaluator struct {
	scripts []string
	reply   any
	err     error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, expression string, res any) error {
	f.scripts = append(f.scripts, expression)
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(f.reply)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, res)
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newState() *engine.EngineState {
	return engine.NewState(engine.StateOptions{
		Blobs:    engine.NewStoreBlobs(storage.NewMemoryStore("blobs"), time.Hour),
		Renderer: render.NewRenderer(0, 0, render.EstimateMeasurer{}),
	})
}

func TestDetectChromePathPrefersEnv(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(bin, nil, 0o755))

	t.Setenv("CHROME_PATH", bin)
	assert.Equal(t, bin, DetectChromePath())
}

func TestSessionStoreScripts(t *testing.T) {
	script := storeScript(FrameParent, "return {ok: true};", `he said "hi"`, "line\nbreak")
	assert.Contains(t, script, "window.parent.sessionStorage")
	assert.Contains(t, script, `["he said \"hi\"", "line\nbreak"]`)

	script = storeScript(FrameSelf, "return {ok: true};")
	assert.Contains(t, script, "const st = window.sessionStorage;")
	assert.True(t, strings.HasSuffix(script, "([])"))
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	page := &fakeEvaluator{reply: storeReply{OK: true, Value: `{"products":[]}`}}
	s := NewSessionStore(page, FrameSelf)
	assert.Equal(t, "session:self", s.Name())

	v, ok, err := s.Get(ctx, "storformat:config")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"products":[]}`, v)
	assert.Contains(t, page.scripts[0], `"storformat:config"`)

	page.reply = storeReply{OK: true, Keys: []string{"storformat:b", "storformat:a"}}
	keys, err := s.Keys(ctx, "storformat:")
	require.NoError(t, err)
	assert.Equal(t, []string{"storformat:a", "storformat:b"}, keys)

	page.reply = storeReply{Error: "SecurityError: Blocked a frame"}
	_, _, err = NewSessionStore(page, FrameParent).Get(ctx, "k")
	assert.True(t, errors.IsType(err, errors.TypeStorage))

	page.err = errors.Browser("evaluate", nil)
	assert.True(t, errors.IsType(s.Set(ctx, "k", "v", 0), errors.TypeStorage))
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"pointer","layer":"foil","pointer":{"pointerId":3,"kind":"down","target":"se","x":10.5,"y":4,"foilId":2}}`)
	require.NoError(t, err)
	assert.Equal(t, EventPointer, ev.Type)
	assert.Equal(t, LayerFoil, ev.Layer)
	assert.Equal(t, interaction.PointerEvent{PointerID: 3, Kind: interaction.PointerDown, Target: interaction.TargetSE, X: 10.5, Y: 4, FoilID: 2}, ev.Pointer)

	_, err = DecodeEvent(`{"type":"explode"}`)
	assert.True(t, errors.IsType(err, errors.TypeInput))

	_, err = DecodeEvent(`not json`)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestEnqueueKeepsGestureEnds(t *testing.T) {
	pointer := func(kind interaction.PointerKind) Event {
		return Event{Type: EventPointer, Pointer: interaction.PointerEvent{PointerID: 1, Kind: kind}}
	}
	tests := []struct {
		name  string
		ev    Event
		drain bool
		want  bool
	}{
		{name: "mutation is dropped", ev: Event{Type: EventMutation}, want: false},
		{name: "move is dropped", ev: pointer(interaction.PointerMove), drain: true, want: false},
		{name: "up waits for room", ev: pointer(interaction.PointerUp), drain: true, want: true},
		{name: "cancel waits for room", ev: pointer(interaction.PointerCancel), drain: true, want: true},
		{name: "up gives up after the wait", ev: pointer(interaction.PointerUp), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := make(chan Event, 1)
			events <- Event{Type: EventResize}
			if tt.drain {
				go func() {
					time.Sleep(20 * time.Millisecond)
					<-events
				}()
			}

			assert.Equal(t, tt.want, enqueue(context.Background(), events, tt.ev))
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	full := make(chan Event, 1)
	full <- Event{Type: EventResize}
	assert.False(t, enqueue(ctx, full, pointer(interaction.PointerUp)), "a cancelled session stops waiting")
}

func TestApplyUploadAndDrag(t *testing.T) {
	ctx := context.Background()
	st := newState()

	changed, err := Apply(ctx, st, Event{Type: EventUpload, Name: "logo.png", Data: pngBase64(t, 400, 200)})
	require.NoError(t, err)
	require.True(t, changed)
	require.NotNil(t, st.Upload)

	start := st.Upload.Placement
	box := st.Box()
	c := render.DesignRect(start, box).Center()
	for _, p := range []interaction.PointerEvent{
		{PointerID: 1, Kind: interaction.PointerDown, Target: interaction.TargetBody, X: c.X, Y: c.Y},
		{PointerID: 1, Kind: interaction.PointerMove, X: c.X + 20, Y: c.Y + 10},
		{PointerID: 1, Kind: interaction.PointerUp, X: c.X + 20, Y: c.Y + 10},
	} {
		_, err := Apply(ctx, st, Event{Type: EventPointer, Layer: LayerDesign, Pointer: p})
		require.NoError(t, err)
	}
	assert.InDelta(t, start.XRatio+20/box.Width, st.Upload.Placement.XRatio, 1e-9)
	assert.InDelta(t, start.YRatio+10/box.Height, st.Upload.Placement.YRatio, 1e-9)

	changed, err = Apply(ctx, st, Event{Type: EventUpload})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, st.Upload)

	_, err = Apply(ctx, st, Event{Type: EventUpload, Data: "%%%"})
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestApplyFoilActions(t *testing.T) {
	ctx := context.Background()
	st := newState()

	apply := func(ev Event) bool {
		ev.Type = EventFoil
		changed, err := Apply(ctx, st, ev)
		require.NoError(t, err)
		return changed
	}

	assert.True(t, apply(Event{Action: FoilAdd, Text: "Hei"}))
	assert.True(t, apply(Event{Action: FoilAdd, Text: "<b>Salg</b>"}))
	require.Equal(t, 2, st.Foils.Len())
	assert.Equal(t, 2, st.Foils.ActiveID())

	assert.True(t, apply(Event{Action: FoilSelect, FoilID: 1}))
	assert.True(t, apply(Event{Action: FoilUpdate, FoilID: 1, Foil: &types.CutLettersFoil{ID: 99, Text: "Hallo", Scale: 9, Curve: 40, XRatio: 0.5, YRatio: 0.5}}))
	f, ok := st.Foils.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Hallo", f.Text)
	assert.Equal(t, types.MaxFoilScale, f.Scale)

	assert.True(t, apply(Event{Action: FoilRemove, FoilID: 2}))
	assert.False(t, apply(Event{Action: FoilRemove, FoilID: 2}))
	assert.False(t, apply(Event{Action: FoilUpdate, FoilID: 1}))
	assert.False(t, apply(Event{Action: "rename"}))
}

func TestOverlayPresenterInlinesBlobs(t *testing.T) {
	ctx := context.Background()
	st := newState()
	raw, err := base64.StdEncoding.DecodeString(pngBase64(t, 40, 20))
	require.NoError(t, err)
	_, err = st.SetUpload(ctx, raw, "logo.png")
	require.NoError(t, err)
	st.Scene = render.NewRenderer(0, 0, render.EstimateMeasurer{}).Render(st.RenderInput())

	page := &fakeEvaluator{reply: true}
	p := NewOverlayPresenter(page, st.Blobs(), "")
	require.NoError(t, p.Present(ctx, st.Frame()))
	require.Len(t, page.scripts, 1)
	assert.Contains(t, page.scripts[0], "data:image/png;base64,")
	assert.NotContains(t, page.scripts[0], engine.BlobPrefix)
	assert.Contains(t, page.scripts[0], jsString(DefaultAnchor))

	page.reply = false
	err = p.Present(ctx, st.Frame())
	assert.True(t, errors.IsType(err, errors.TypeBrowser))

	assert.NoError(t, p.Present(ctx, engine.Frame{}), "a frame without a scene is a no-op")
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"https://shop.example/p/banner?x=1", "/checkout?tenant=acme", "https://shop.example/checkout?tenant=acme"},
		{"https://shop.example/p/banner", "checkout", "https://shop.example/p/checkout"},
		{"https://shop.example/p/banner", "https://pay.example/c", "https://pay.example/c"},
	}
	for _, tt := range tests {
		got, err := ResolveURL(tt.base, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

type staticDocument string

func (d staticDocument) HTML(context.Context) (string, error) { return string(d), nil }

func TestPageSourceReadsCurrentHTML(t *testing.T) {
	raw, err := os.ReadFile("../dom/testdata/product.html")
	require.NoError(t, err)

	adapter, err := NewPageSource(staticDocument(raw), host.DefaultKeywords()).HostAdapter(context.Background())
	require.NoError(t, err)
	sel := host.Read(adapter)
	assert.Equal(t, 200.0, sel.WidthCm)
	assert.Equal(t, types.VariantCutLetters, sel.Variant)
}

// fakePage hands the live loop's handler to the test
type fakePage struct {
	mu       sync.Mutex
	handle   func(context.Context, Event)
	redirect string
}

func (p *fakePage) Listen(ctx context.Context, handle func(context.Context, Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handle = handle
	return nil
}

func (p *fakePage) Redirect(ctx context.Context, target string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redirect = target
	return nil
}

func (p *fakePage) emit(ctx context.Context, ev Event) {
	p.mu.Lock()
	h := p.handle
	p.mu.Unlock()
	h(ctx, ev)
}

func (p *fakePage) listening() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle != nil
}

func (p *fakePage) redirected() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.redirect
}

func TestLiveRunsPageEventsOnTheScheduler(t *testing.T) {
	raw, err := os.ReadFile("../../core/catalog/testdata/banner.json")
	require.NoError(t, err)
	store := storage.NewMemoryStore("session")
	require.NoError(t, store.Set(context.Background(), "storformat:config", string(raw), 0))

	e := engine.New(engine.Options{
		Resolver: catalog.NewResolver(catalog.KeyPlan{ExplicitKey: "storformat:config", Prefix: "storformat"}, store),
		Renderer: render.NewRenderer(0, 0, render.EstimateMeasurer{}),
	})
	sel := types.SelectionState{WidthCm: 200, HeightCm: 100, Quantity: 1, Variant: types.VariantPVC, ProductSlug: "banner"}
	hosts := engine.HostSourceFunc(func(context.Context) (host.HostAdapter, error) { return host.Static(sel), nil })
	st := engine.NewState(engine.StateOptions{Blobs: engine.NewStoreBlobs(store, time.Hour)})
	bridge := checkout.NewBridge(store, checkout.Options{URL: "/checkout", Tenant: "acme"})

	page := &fakePage{}
	live := NewLive(page, engine.NewPipeline(e, hosts, nil), st, bridge, scheduler.Options{Debounce: time.Millisecond, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = live.Run(ctx) }()
	require.Eventually(t, page.listening, time.Second, 5*time.Millisecond)

	page.emit(ctx, Event{Type: EventFoil, Action: FoilAdd, Text: "Hei"})
	page.emit(ctx, Event{Type: EventMutation})
	page.emit(ctx, Event{Type: EventCheckout})
	require.Eventually(t, func() bool { return page.redirected() != "" }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "/checkout?tenant=acme", page.redirected())

	cancel()
	<-live.Scheduler().Done()
	assert.Equal(t, 1, st.Foils.Len())
	require.NotNil(t, st.Price)

	payload, err := bridge.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "banner", payload.Product.Slug)
}
