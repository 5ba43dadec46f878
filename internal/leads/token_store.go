package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	tokenStoreDirectoryName = "solarsite"
	tokenStoreFileName      = "admin_session.json"
	tokenStoreFileMode      = 0o600
	tokenStoreDirectoryMode = 0o700
)

var (
	// ErrNoSession indicates no operator session has been saved.
	ErrNoSession = errors.New("leads: no saved session")
	// ErrMissingTokenStorePath indicates the token store was built without a file path.
	ErrMissingTokenStorePath = errors.New("leads: missing token store path")
)

// TokenStore persists the operator session between CLI invocations.
type TokenStore struct {
	path string
}

// NewTokenStore stores the session at path.
func NewTokenStore(path string) (*TokenStore, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, ErrMissingTokenStorePath
	}
	return &TokenStore{path: trimmedPath}, nil
}

// DefaultTokenStorePath returns the session file location under the user config directory.
func DefaultTokenStorePath() (string, error) {
	configDirectory, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("leads: resolve config dir: %w", err)
	}
	return filepath.Join(configDirectory, tokenStoreDirectoryName, tokenStoreFileName), nil
}

// Path returns the session file location.
func (store *TokenStore) Path() string {
	return store.path
}

// Load reads the saved session.
func (store *TokenStore) Load() (Session, error) {
	contents, err := os.ReadFile(store.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("leads: read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(contents, &session); err != nil {
		return Session{}, fmt.Errorf("leads: decode session: %w", err)
	}
	if strings.TrimSpace(session.Token) == "" {
		return Session{}, ErrNoSession
	}
	return session, nil
}

// Save writes the session, readable only by the current user.
func (store *TokenStore) Save(session Session) error {
	if strings.TrimSpace(session.Token) == "" {
		return ErrMissingToken
	}
	encoded, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("leads: encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(store.path), tokenStoreDirectoryMode); err != nil {
		return fmt.Errorf("leads: create session dir: %w", err)
	}
	if err := os.WriteFile(store.path, encoded, tokenStoreFileMode); err != nil {
		return fmt.Errorf("leads: write session: %w", err)
	}
	return os.Chmod(store.path, tokenStoreFileMode)
}

// Clear removes the saved session. Clearing an absent session succeeds.
func (store *TokenStore) Clear() error {
	err := os.Remove(store.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("leads: remove session: %w", err)
}
