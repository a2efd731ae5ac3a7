// Package checkout - Checkout Bridge
// Hands the finished configuration to the shop's checkout: the payload goes to the
// transient store and the caller navigates to the returned URL.
package checkout

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storformat/adapters/storage"
	"storformat/core/engine"
	"storformat/core/pricing"
	"storformat/core/types"
	"storformat/internal/config"
	"storformat/internal/errors"
	"storformat/internal/logging"
)

// Defaults
const (
	DefaultPayloadKey   = "storformat:checkout"
	DefaultTTL          = 30 * time.Minute
	DefaultPreviewMaxPx = 480
)

// Payload is what checkout reads back
type Payload struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Tenant    string    `json:"tenant,omitempty"`
	Site      string    `json:"site,omitempty"`

	Product   types.ProductRef `json:"product"`
	Variant   types.Variant    `json:"variant"`
	WidthCm   float64          `json:"widthCm"`
	HeightCm  float64          `json:"heightCm"`
	Quantity  int              `json:"quantity"`
	Finishing types.Finishing  `json:"finishing"`

	Price    *pricing.Result        `json:"price"`
	Delivery *pricing.DeliveryLine  `json:"delivery,omitempty"`
	Upload   *UploadMeta            `json:"upload,omitempty"`
	Foils    []types.CutLettersFoil `json:"foils,omitempty"`
}

// UploadMeta describes the design file without its bytes
type UploadMeta struct {
	Name           string                `json:"name"`
	ContentType    string                `json:"contentType"`
	SizeBytes      int                   `json:"sizeBytes"`
	WidthPx        int                   `json:"widthPx"`
	HeightPx       int                   `json:"heightPx"`
	Placement      types.DesignPlacement `json:"placement"`
	PreviewDataURL string                `json:"previewDataUrl,omitempty"`
}

// Options configures the bridge
type Options struct {
	URL          string
	PayloadKey   string
	TTL          time.Duration
	PreviewMaxPx int
	Tenant       string
	Site         string
}

// OptionsFromConfig reads checkout settings and tenant identity from configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:          cfg.Checkout.URL,
		PayloadKey:   cfg.Checkout.PayloadKey,
		TTL:          time.Duration(cfg.Checkout.TTLSeconds) * time.Second,
		PreviewMaxPx: cfg.Checkout.PreviewMaxPx,
		Tenant:       cfg.Tenant.ID,
		Site:         cfg.Tenant.Site,
	}
}

// Bridge writes checkout payloads
type Bridge struct {
	store storage.Store
	opts  Options
	now   func() time.Time
	log   *zap.Logger
}

// NewBridge creates a bridge writing to store
func NewBridge(store storage.Store, opts Options) *Bridge {
	if opts.PayloadKey == "" {
		opts.PayloadKey = DefaultPayloadKey
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.PreviewMaxPx <= 0 {
		opts.PreviewMaxPx = DefaultPreviewMaxPx
	}
	return &Bridge{store: store, opts: opts, now: time.Now, log: logging.Named("checkout")}
}

// Handoff stores the payload for st and returns the URL to navigate to
func (b *Bridge) Handoff(ctx context.Context, st *engine.EngineState) (string, error) {
	target, err := b.RedirectURL()
	if err != nil {
		return "", err
	}
	payload, err := b.BuildPayload(ctx, st)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Checkout("encode payload", err)
	}
	if err := b.store.Set(ctx, b.opts.PayloadKey, string(raw), b.opts.TTL); err != nil {
		return "", errors.Checkout("store payload", err).WithContext("store", b.store.Name())
	}
	b.log.Info("checkout payload stored",
		zap.String("id", payload.ID),
		zap.String("product", payload.Product.Slug),
		zap.String("total", payload.Price.Total.String()))
	return target, nil
}

// BuildPayload assembles the payload. A state without a price cannot be checked out.
func (b *Bridge) BuildPayload(ctx context.Context, st *engine.EngineState) (*Payload, error) {
	if st == nil || st.Price == nil {
		return nil, errors.Checkout("no price for the current selection", nil)
	}
	sel := st.Selection
	p := &Payload{
		ID:        uuid.NewString(),
		CreatedAt: b.now().UTC(),
		Tenant:    b.opts.Tenant,
		Site:      b.opts.Site,
		Product:   st.Price.Product,
		Variant:   sel.Variant,
		WidthCm:   sel.WidthCm,
		HeightCm:  sel.HeightCm,
		Quantity:  sel.EffectiveQuantity(),
		Finishing: sel.Finishing,
		Price:     st.Price,
		Delivery:  st.Price.Delivery,
	}
	if sel.Variant == types.VariantCutLetters {
		p.Foils = st.Foils.Foils()
	}
	if up := st.Upload; up != nil {
		p.Upload = &UploadMeta{
			Name:        up.Name,
			ContentType: up.ContentType,
			SizeBytes:   up.SizeBytes,
			WidthPx:     up.WidthPx,
			HeightPx:    up.HeightPx,
			Placement:   up.Placement,
		}
		p.Upload.PreviewDataURL = b.preview(ctx, st.Blobs(), up.Handle)
	}
	return p, nil
}

// preview degrades to no preview when the blob is gone or undecodable
func (b *Bridge) preview(ctx context.Context, blobs engine.BlobStore, handle string) string {
	if blobs == nil {
		return ""
	}
	blob, ok, err := blobs.Get(ctx, handle)
	if err != nil || !ok {
		b.log.Warn("design blob unavailable for preview", zap.String("handle", handle), zap.Error(err))
		return ""
	}
	dataURL, err := PreviewDataURL(blob.Data, b.opts.PreviewMaxPx)
	if err != nil {
		b.log.Warn("design preview failed", zap.Error(err))
		return ""
	}
	return dataURL
}

// RedirectURL returns the checkout URL with site and tenant query parameters
func (b *Bridge) RedirectURL() (string, error) {
	u, err := url.Parse(b.opts.URL)
	if err != nil || b.opts.URL == "" {
		return "", errors.Checkout("invalid checkout url", err).WithContext("url", b.opts.URL)
	}
	q := u.Query()
	if b.opts.Site != "" {
		q.Set("site", b.opts.Site)
	}
	if b.opts.Tenant != "" {
		q.Set("tenant", b.opts.Tenant)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Load reads the stored payload back, as the checkout page does
func (b *Bridge) Load(ctx context.Context) (*Payload, error) {
	raw, ok, err := b.store.Get(ctx, b.opts.PayloadKey)
	if err != nil {
		return nil, errors.Checkout("read payload", err)
	}
	if !ok {
		return nil, errors.NotFound("checkout payload", b.opts.PayloadKey)
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, errors.Checkout("decode payload", err)
	}
	return &p, nil
}
