package credentials

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Holder)(nil)

// Holder caches the current credential in memory so requests never touch the store.
// A nil Store keeps the credential in memory only.
type Holder struct {
	store Store

	mu     sync.RWMutex
	token  string
	claims Claims
}

func NewHolder(store Store) *Holder {
	return &Holder{store: store}
}

// Load reads the persisted credential into memory. It reports whether one was found.
func (h *Holder) Load(ctx context.Context) (bool, error) {
	if h.store == nil {
		_, ok := h.Current()
		return ok, nil
	}

	token, err := h.store.Load(ctx)
	if err != nil {
		if apperrors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Wrapf(err, "load credential")
	}
	if token == "" {
		return false, nil
	}

	h.set(token)
	return true, nil
}

// Set replaces the credential. Memory is updated even when persisting fails.
func (h *Holder) Set(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Invalidf("empty credential")
	}
	h.set(token)

	if h.store == nil {
		return nil
	}
	return apperrors.Wrapf(h.store.Save(ctx, token), "save credential")
}

// Clear drops the credential from memory and from the store.
func (h *Holder) Clear(ctx context.Context) error {
	h.Forget()
	return h.ClearStored(ctx)
}

// Forget drops the in-memory credential only. Requests stop carrying it at once.
func (h *Holder) Forget() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = ""
	h.claims = Claims{}
}

// ClearStored removes the persisted credential. It is skipped when a new credential was
// set after Forget, so a later login is not wiped from the store.
func (h *Holder) ClearStored(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	if _, held := h.Current(); held {
		return nil
	}
	return apperrors.Wrapf(h.store.Clear(ctx), "clear credential")
}

// Current returns the credential held in memory.
func (h *Holder) Current() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, h.token != ""
}

// Claims returns what Inspect learned about the current credential.
func (h *Holder) Claims() Claims {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.claims
}

// Expired reports whether the held credential is known to be expired at now.
func (h *Holder) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != "" && h.claims.ExpiredAt(now)
}

// Token implements oauth2.TokenSource. It returns ErrNotFound when no credential is held.
func (h *Holder) Token() (*oauth2.Token, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" {
		return nil, ErrNotFound
	}
	return &oauth2.Token{
		AccessToken: h.token,
		TokenType:   "Bearer",
		Expiry:      h.claims.Expiry,
	}, nil
}

func (h *Holder) set(token string) {
	claims := Inspect(token)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
	h.claims = claims
}
