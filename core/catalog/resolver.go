// Package catalog - Runtime catalog resolution
// The resolver looks the catalog up in one or more transient stores (the current
// browsing context first, then its parent). Absence is a valid outcome.
package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storformat/core/determinism"
	"storformat/core/types"
	"storformat/internal/config"
	"storformat/internal/logging"
)

// Source is a readable transient store
type Source interface {
	Name() string
	Get(ctx context.Context, key string) (string, bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// KeyPlan names the keys a resolver tries
type KeyPlan struct {
	ExplicitKey string
	Prefix      string
	Tenant      string
	Site        string
}

// PlanFromConfig builds a key plan from configuration
func PlanFromConfig(cfg *config.Config) KeyPlan {
	return KeyPlan{
		ExplicitKey: cfg.Catalog.ExplicitKey,
		Prefix:      cfg.Catalog.KeyPrefix,
		Tenant:      cfg.Tenant.ID,
		Site:        cfg.Tenant.Site,
	}
}

// CompositeKey is the tenant/site scoped key, e.g. storformat:acme:main
func (k KeyPlan) CompositeKey() string {
	if k.Prefix == "" || k.Tenant == "" {
		return ""
	}
	parts := []string{k.Prefix, k.Tenant}
	if k.Site != "" {
		parts = append(parts, k.Site)
	}
	return strings.Join(parts, ":")
}

// scanPrefixes are the prefixes whose keys are tried after the fixed keys, narrowest first
func (k KeyPlan) scanPrefixes() []string {
	if k.Prefix == "" {
		return nil
	}
	var out []string
	if c := k.CompositeKey(); c != "" {
		out = append(out, c+":")
	}
	if k.Site != "" {
		out = append(out, k.Prefix+":"+k.Site)
	}
	return append(out, k.Prefix+":")
}

// Resolution is the outcome of one lookup
type Resolution struct {
	Catalog   *types.RuntimeCatalog
	Signature determinism.Signature
	Store     string
	Key       string
}

// Found reports whether a catalog was resolved
func (r Resolution) Found() bool {
	return r.Catalog != nil
}

// Changed reports whether the resolved catalog differs from the one signed prev
func (r Resolution) Changed(prev determinism.Signature) bool {
	return r.Signature != prev
}

// Resolver loads the runtime catalog from transient stores
type Resolver struct {
	plan    KeyPlan
	sources []Source
	log     *zap.Logger
}

// NewResolver creates a resolver over sources, tried in order
func NewResolver(plan KeyPlan, sources ...Source) *Resolver {
	var kept []Source
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Resolver{plan: plan, sources: kept, log: logging.Named("catalog")}
}

// Plan returns the key plan
func (r *Resolver) Plan() KeyPlan {
	return r.plan
}

// Resolve returns the first usable catalog, or nil
func (r *Resolver) Resolve(ctx context.Context) *types.RuntimeCatalog {
	return r.ResolveWithSource(ctx).Catalog
}

// ResolveWithSource returns the first usable catalog together with where it was found.
// Store failures are logged at debug level and treated as absence.
func (r *Resolver) ResolveWithSource(ctx context.Context) Resolution {
	for _, src := range r.sources {
		for _, key := range r.candidateKeys(ctx, src) {
			raw, ok, err := src.Get(ctx, key)
			if err != nil {
				r.log.Debug("catalog read failed", zap.String("store", src.Name()), zap.String("key", key), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			cat, ok := Parse([]byte(raw))
			if !ok {
				r.log.Debug("ignoring non-catalog value", zap.String("store", src.Name()), zap.String("key", key))
				continue
			}
			return Resolution{
				Catalog:   cat,
				Signature: Signature(cat),
				Store:     src.Name(),
				Key:       key,
			}
		}
	}
	return Resolution{}
}

func (r *Resolver) candidateKeys(ctx context.Context, src Source) []string {
	seen := map[string]bool{}
	var keys []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	add(r.plan.ExplicitKey)
	add(r.plan.CompositeKey())
	for _, prefix := range r.plan.scanPrefixes() {
		found, err := src.Keys(ctx, prefix)
		if err != nil {
			r.log.Debug("catalog key scan failed", zap.String("store", src.Name()), zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		for _, k := range found {
			add(k)
		}
	}
	return keys
}
