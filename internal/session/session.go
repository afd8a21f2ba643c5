// Package session persists the bearer token obtained at login.
//
// The store is the client-side analog of the browser's key-value
// storage in the original web application: a single token in a flat
// credentials file. It is passed explicitly to every component that
// needs it; nothing in the repository reads ambient global state.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/me/shelf/pkg/model"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Token string `json:"token"`
}

// Store holds the persisted bearer token. Presence of a token is the
// sole "authenticated" signal; no expiry is tracked client-side. A
// stale-but-present token is treated as valid until the server rejects
// it with 401.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a session store backed by the given credentials
// file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the default credentials file path
// (~/.shelf/credentials.json).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".shelf", credentialsFileName), nil
}

// Save persists the token, replacing any previous one. Concurrent
// Save/Clear calls serialize on the store's lock; last write wins.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(credentials{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the persisted token. Clearing an already-empty store
// is not an error. No server-side invalidation call is made.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Token returns the stored token, or empty string if none is stored
// or the file is unreadable.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	return creds.Token
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// AuthHeader returns the Authorization header value for the stored
// token, or an AUTH_MISSING error when no token is stored.
func (s *Store) AuthHeader() (string, error) {
	tok := s.Token()
	if tok == "" {
		return "", model.NewAuthMissingError()
	}
	return "Bearer " + tok, nil
}
