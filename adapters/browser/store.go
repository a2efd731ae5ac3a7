package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"storformat/adapters/storage"
	"storformat/internal/errors"
)

// Frame selects whose sessionStorage a SessionStore reads
type Frame string

const (
	FrameSelf   Frame = "self"
	FrameParent Frame = "parent"
)

func (f Frame) storage() string {
	if f == FrameParent {
		return "window.parent.sessionStorage"
	}
	return "window.sessionStorage"
}

// SessionStore is a storage.Store over a page's sessionStorage. sessionStorage has no
// expiry, so ttl is ignored. A cross-origin parent makes every call fail.
type SessionStore struct {
	page  Evaluator
	frame Frame
}

// NewSessionStore creates a store over frame's sessionStorage
func NewSessionStore(page Evaluator, frame Frame) *SessionStore {
	return &SessionStore{page: page, frame: frame}
}

// storeReply is what the store scripts return
type storeReply struct {
	OK    bool     `json:"ok"`
	Value string   `json:"value"`
	Keys  []string `json:"keys"`
	Error string   `json:"error"`
}

// Name implements storage.Store
func (s *SessionStore) Name() string {
	return string(storage.BackendSession) + ":" + string(s.frame)
}

// Get implements storage.Store
func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	r, err := s.call(ctx, "const v = st.getItem(a[0]); return {ok: v !== null, value: v === null ? '' : v};", key)
	if err != nil {
		return "", false, err
	}
	return r.Value, r.OK, nil
}

// Set implements storage.Store
func (s *SessionStore) Set(ctx context.Context, key, value string, _ time.Duration) error {
	_, err := s.call(ctx, "st.setItem(a[0], a[1]); return {ok: true};", key, value)
	return err
}

// Keys implements storage.Store
func (s *SessionStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	r, err := s.call(ctx, "const keys = []; for (let i = 0; i < st.length; i++) { const k = st.key(i); if (k !== null && k.startsWith(a[0])) keys.push(k); } return {ok: true, keys};", prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(r.Keys)
	return r.Keys, nil
}

// Delete implements storage.Store
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	_, err := s.call(ctx, "st.removeItem(a[0]); return {ok: true};", key)
	return err
}

// Close implements storage.Store. The page owns the storage.
func (s *SessionStore) Close() error {
	return nil
}

func (s *SessionStore) call(ctx context.Context, body string, args ...string) (storeReply, error) {
	var r storeReply
	if err := s.page.Evaluate(ctx, storeScript(s.frame, body, args...), &r); err != nil {
		return r, errors.Storage("session storage", err).WithContext("store", s.Name())
	}
	if r.Error != "" {
		return r, errors.Storage(r.Error, nil).WithContext("store", s.Name())
	}
	return r, nil
}

// storeScript wraps body in a function of the storage st and the argument array a.
// Arguments travel as JSON literals.
func storeScript(frame Frame, body string, args ...string) string {
	lits := make([]string, len(args))
	for i, a := range args {
		lits[i] = jsString(a)
	}
	return fmt.Sprintf("((a) => { try { const st = %s; %s } catch (e) { return {error: String(e)}; } })([%s])",
		frame.storage(), body, strings.Join(lits, ", "))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

var _ storage.Store = (*SessionStore)(nil)
