package credentialfakerepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/skins-market-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore keeps the credential in memory. It backs the "memory" store mode and tests.
type FakeStore struct {
	lock   sync.RWMutex
	values map[string]string

	// SaveErr, when set, is returned by Save without storing anything.
	SaveErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
	}
}

// NewFakeStoreWith returns a store already holding token.
func NewFakeStoreWith(token string) *FakeStore {
	s := NewFakeStore()
	s.values[credentials.TokenKey] = token
	return s
}

func (s *FakeStore) Load(_ context.Context) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	token, ok := s.values[credentials.TokenKey]
	if !ok {
		return "", credentials.ErrNotFound
	}
	return token, nil
}

func (s *FakeStore) Save(_ context.Context, token string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.values[credentials.TokenKey] = token
	return nil
}

func (s *FakeStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, credentials.TokenKey)
	return nil
}

// Stored returns the persisted credential, for assertions.
func (s *FakeStore) Stored() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	token, ok := s.values[credentials.TokenKey]
	return token, ok
}
