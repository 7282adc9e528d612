// Package site tracks which Discourse site the adapter is pointed at and
// hands out transport clients bound to the right credential for it.
package site

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/forumhq/discourse-mcp/internal/discourse"
)

// ErrNoSiteSelected is returned by EnsureSelected before any selection or
// tethering has succeeded.
var ErrNoSiteSelected = errors.New("site: no site selected")

// Registration maps a normalized base address to the credential used for it.
type Registration struct {
	Base string
	Cred discourse.Credential
}

// State holds the default credential, the ordered per-site overrides, and the
// single currently-selected base address. The override table is immutable
// after construction; only the selection pointer mutates. Concurrent
// re-selection is racy by design for a single-operator adapter — the mutex
// guards memory safety, not logical serialization.
type State struct {
	mu        sync.Mutex
	def       discourse.Credential
	overrides []Registration
	selected  string
	clients   map[string]*discourse.Client
	opts      []discourse.Option
	logger    *slog.Logger
}

// StateOption configures a State.
type StateOption func(*State)

// WithClientOptions sets transport options applied to every client the state
// builds (timeout, basic auth, backoff tuning).
func WithClientOptions(opts ...discourse.Option) StateOption {
	return func(s *State) { s.opts = opts }
}

// WithLogger sets the logger passed to built clients.
func WithLogger(l *slog.Logger) StateOption {
	return func(s *State) { s.logger = l }
}

// NewState creates a State with a default credential and per-site overrides.
// Override base addresses are normalized once here; matching later is exact.
func NewState(def discourse.Credential, overrides []Registration, opts ...StateOption) (*State, error) {
	s := &State{
		def:     def,
		clients: make(map[string]*discourse.Client),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, o := range overrides {
		base, err := NormalizeBase(o.Base)
		if err != nil {
			return nil, fmt.Errorf("site: invalid override address %q: %w", o.Base, err)
		}
		s.overrides = append(s.overrides, Registration{Base: base, Cred: o.Cred})
	}
	return s, nil
}

// NormalizeBase reduces a raw URL to scheme+host, stripping any path. A bare
// host defaults to https.
func NormalizeBase(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty address")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return u.Scheme + "://" + u.Host, nil
}

// resolveCred returns the credential for a normalized base: the first exact
// override match, else the default.
func (s *State) resolveCred(base string) discourse.Credential {
	for _, o := range s.overrides {
		if o.Base == base {
			return o.Cred
		}
	}
	return s.def
}

// clientFor returns the shared client for a base, building it on first use.
func (s *State) clientFor(base string) *discourse.Client {
	if c, ok := s.clients[base]; ok {
		return c
	}
	opts := append([]discourse.Option{discourse.WithLogger(s.logger)}, s.opts...)
	c := discourse.NewClient(base, s.resolveCred(base), opts...)
	s.clients[base] = c
	return c
}

// BuildClientForSite normalizes raw and returns the base plus a ready client
// without touching the selection. Callers use this to probe a site before
// committing to it.
func (s *State) BuildClientForSite(raw string) (string, *discourse.Client, error) {
	base, err := NormalizeBase(raw)
	if err != nil {
		return "", nil, fmt.Errorf("site: invalid address %q: %w", raw, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return base, s.clientFor(base), nil
}

// Select commits base as the active selection. Idempotent; reachability is
// the caller's job (typically an /about.json probe first).
func (s *State) Select(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = base
}

// EnsureSelected returns the active base and its client, or ErrNoSiteSelected.
func (s *State) EnsureSelected() (string, *discourse.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return "", nil, ErrNoSiteSelected
	}
	return s.selected, s.clientFor(s.selected), nil
}

// SelectedBase returns the active base address, or "" when none is selected.
func (s *State) SelectedBase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// AuthType returns the resolved credential type for a base address.
func (s *State) AuthType(base string) discourse.AuthType {
	return s.resolveCred(base).Type
}

// HasAdminAuth reports whether the default credential or any override uses
// the admin-style key variant. Used only for registration-time policy; per
// call authorization is the guard's job.
func (s *State) HasAdminAuth() bool {
	if s.def.Type == discourse.AuthAPIKey {
		return true
	}
	for _, o := range s.overrides {
		if o.Cred.Type == discourse.AuthAPIKey {
			return true
		}
	}
	return false
}
