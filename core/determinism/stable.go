// Package determinism provides primitives for stable ordering and content signatures.
// Signatures let the sync loop skip work when nothing changed between ticks.
package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// ContentHash is a SHA-256 hash for content identity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Signature returns the short form used for change detection
func (h ContentHash) Signature() Signature {
	return Signature(h.Hex()[:16])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// Signature is a short content signature. The empty signature means "nothing".
type Signature string

// HashValue hashes the canonical JSON encoding of v.
// encoding/json sorts map keys, so equal values always hash equally.
func HashValue(v any) (ContentHash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ContentHash{}, err
	}
	return ComputeHash(data), nil
}

// SignatureOf returns the signature of v, or "" when v cannot be encoded
func SignatureOf(v any) Signature {
	h, err := HashValue(v)
	if err != nil {
		return ""
	}
	return h.Signature()
}

// SortSlice sorts a slice in a stable, deterministic manner
func SortSlice[T any](slice []T, less func(a, b T) bool) {
	sort.SliceStable(slice, func(i, j int) bool {
		return less(slice[i], slice[j])
	})
}

// SortedKeys returns the keys of a string-keyed map in order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
