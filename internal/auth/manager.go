// Package auth manages the OAuth credentials for the remote task service.
//
// Credentials live under a single config directory: credentials.json holds
// the OAuth client downloaded from the API console, token.json holds the
// user's token together with the time it was obtained. The token file is the
// connect/disconnect switch; removing it disconnects the account.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	tasks "google.golang.org/api/tasks/v1"
)

const (
	// CredentialsFile is the OAuth client secrets file inside the config dir.
	CredentialsFile = "credentials.json"

	// TokenFile stores the obtained token inside the config dir.
	TokenFile = "token.json"

	appName = "pomosync"
)

// ErrNotConnected is returned when no token has been obtained yet.
var ErrNotConnected = errors.New("not connected: run the connect command first")

// storedToken wraps the OAuth token with the time it was obtained, so the
// scheduler can refresh proactively instead of waiting for a 401.
type storedToken struct {
	oauth2.Token
	ObtainedAt time.Time `json:"obtainedAt"`
}

// Manager loads, refreshes, and persists the OAuth token.
type Manager struct {
	config    *oauth2.Config
	tokenPath string
}

// DefaultConfigDir returns ~/.config/pomosync.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// NewManager reads the client secrets from dir and prepares a Manager.
// The token file may not exist yet; Connected reports whether it does.
func NewManager(dir string) (*Manager, error) {
	secrets, err := os.ReadFile(filepath.Join(dir, CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("unable to read client secrets from %s: %w",
			filepath.Join(dir, CredentialsFile), err)
	}

	config, err := google.ConfigFromJSON(secrets, tasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secrets: %w", err)
	}

	return &Manager{
		config:    config,
		tokenPath: filepath.Join(dir, TokenFile),
	}, nil
}

// AuthURL returns the URL the user must visit to authorize access.
// AccessTypeOffline is required so the response carries a refresh token.
func (m *Manager) AuthURL() string {
	return m.config.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Authorize exchanges the authorization code for a token and persists it.
func (m *Manager) Authorize(ctx context.Context, code string) error {
	tok, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	return m.save(tok)
}

// Connected reports whether a token is on disk.
func (m *Manager) Connected() bool {
	_, err := os.Stat(m.tokenPath)
	return err == nil
}

// Disconnect removes the stored token. Missing token is not an error.
func (m *Manager) Disconnect() error {
	if err := os.Remove(m.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Stale reports whether the stored token is older than maxAge.
// An unreadable token counts as stale so the next refresh surfaces the
// real problem.
func (m *Manager) Stale(maxAge time.Duration) bool {
	st, err := m.load()
	if err != nil {
		return true
	}
	return time.Since(st.ObtainedAt) >= maxAge
}

// Refresh exchanges the refresh token for a fresh access token and persists
// the result with a new obtained-at stamp.
func (m *Manager) Refresh(ctx context.Context) error {
	st, err := m.load()
	if err != nil {
		return err
	}

	// Expire the access token so the token source performs a real refresh
	// instead of handing back the cached one.
	stale := st.Token
	stale.Expiry = time.Now().Add(-time.Minute)

	tok, err := m.config.TokenSource(ctx, &stale).Token()
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	return m.save(tok)
}

// HTTPClient returns an HTTP client carrying the stored token.
//
// The client reads the token from disk on every request, so a Refresh made
// after the client was built (the daemon refreshes mid-flight) reaches the
// wire without rebuilding anything. Refreshing itself stays the caller's
// job; the source only reflects what is persisted.
func (m *Manager) HTTPClient(ctx context.Context) (*http.Client, error) {
	if _, err := m.load(); err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: &fileTokenSource{m: m}},
	}, nil
}

// fileTokenSource hands out whatever token is currently persisted.
type fileTokenSource struct {
	m *Manager
}

func (s *fileTokenSource) Token() (*oauth2.Token, error) {
	st, err := s.m.load()
	if err != nil {
		return nil, err
	}
	tok := st.Token
	return &tok, nil
}

func (m *Manager) load() (*storedToken, error) {
	f, err := os.Open(m.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()

	var st storedToken
	if err := json.NewDecoder(f).Decode(&st); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", m.tokenPath, err)
	}
	return &st, nil
}

func (m *Manager) save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(m.tokenPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(m.tokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	defer f.Close()

	st := storedToken{Token: *tok, ObtainedAt: time.Now()}
	if err := json.NewEncoder(f).Encode(&st); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}
