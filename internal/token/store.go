// Package token persists the opaque bearer token across sessions. One file,
// one string; validity is decided lazily by whether an authenticated request
// succeeds, never tracked here.
package token

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes the token file.
type Store struct {
	path string
}

// NewStore returns a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath places the token under the user config dir, falling back to the
// temp dir when no config dir is resolvable.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "papr", "token")
}

// Load returns the stored token, or "" when none has been saved.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, creating parent directories as needed. The file is
// user-only: it is a credential.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

// Clear removes the token file. Clearing an absent token is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
