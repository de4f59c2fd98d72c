// Package filestore persists the credential as a small JSON document in the data folder.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/jrsteele09/skins-market-client/credentials"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

// FileName is the document written inside the data folder.
const FileName = "credentials.json"

var _ credentials.Store = (*Store)(nil)

// Store keeps a key/value document on disk; the credential lives under credentials.TokenKey.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates the data folder if needed.
func New(folder string) (*Store, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, apperrors.Wrapf(err, "create data folder %s", folder)
	}
	return &Store{path: filepath.Join(folder, FileName)}, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	token, ok := values[credentials.TokenKey]
	if !ok || token == "" {
		return "", credentials.ErrNotFound
	}
	return token, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[credentials.TokenKey] = token
	return writeJSONAtomic(s.path, values)
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[credentials.TokenKey]; !ok {
		return nil
	}
	delete(values, credentials.TokenKey)
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrapf(err, "remove %s", s.path)
		}
		return nil
	}
	return writeJSONAtomic(s.path, values)
}

// read returns the document, or an empty one when the file does not exist yet.
func (s *Store) read() (map[string]string, error) {
	values := make(map[string]string)
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, apperrors.Wrapf(err, "read %s", s.path)
	}
	if len(b) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, apperrors.Wrapf(err, "decode %s", s.path)
	}
	return values, nil
}

func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	defer os.Remove(tmp)

	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	return os.Rename(tmp, path)
}
