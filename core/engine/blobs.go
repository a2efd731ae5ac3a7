package engine

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"storformat/adapters/storage"
	"storformat/internal/errors"
)

// BlobPrefix marks blob handles and the store keys behind them
const BlobPrefix = "blob:"

// BlobStore keeps uploaded binary content behind transient handles.
// Every handle that is replaced or cleared must be revoked.
type BlobStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Get(ctx context.Context, handle string) (Blob, bool, error)
	Revoke(ctx context.Context, handle string) error
}

// Blob is stored binary content
type Blob struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// StoreBlobs keeps blobs in a key-value store
type StoreBlobs struct {
	store storage.Store
	ttl   time.Duration
}

// NewStoreBlobs creates a blob store over store; ttl 0 keeps blobs until revoked
func NewStoreBlobs(store storage.Store, ttl time.Duration) *StoreBlobs {
	return &StoreBlobs{store: store, ttl: ttl}
}

// Put stores data and returns a new handle
func (b *StoreBlobs) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	raw, err := json.Marshal(Blob{ContentType: contentType, Data: data})
	if err != nil {
		return "", errors.Internal("encode blob", err)
	}
	handle := BlobPrefix + uuid.NewString()
	if err := b.store.Set(ctx, handle, string(raw), b.ttl); err != nil {
		return "", errors.Storage("store blob", err)
	}
	return handle, nil
}

// Get returns the blob behind handle
func (b *StoreBlobs) Get(ctx context.Context, handle string) (Blob, bool, error) {
	if !strings.HasPrefix(handle, BlobPrefix) {
		return Blob{}, false, nil
	}
	raw, ok, err := b.store.Get(ctx, handle)
	if err != nil {
		return Blob{}, false, errors.Storage("read blob", err)
	}
	if !ok {
		return Blob{}, false, nil
	}
	var blob Blob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return Blob{}, false, errors.Wrap(errors.TypeStorage, "decode blob", err)
	}
	return blob, true, nil
}

// Revoke releases handle. Unknown handles are ignored.
func (b *StoreBlobs) Revoke(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	if err := b.store.Delete(ctx, handle); err != nil {
		return errors.Storage("revoke blob", err)
	}
	return nil
}
