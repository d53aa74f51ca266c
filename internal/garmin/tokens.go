// Package garmin fetches raw wellness exports from the Garmin Connect
// API. It reuses OAuth tokens saved by garth-compatible tools; it never
// performs the interactive login itself.
package garmin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/pulse.report/internal/fsutil"
)

// Token filenames inside the token directory. Both must exist and be
// non-empty for the store to be considered logged in.
const (
	oauth1TokenFile = "oauth1_token.json"
	oauth2TokenFile = "oauth2_token.json"
)

// DefaultTokenDir returns the token directory: $GARMINTOKENS if set,
// otherwise ~/.garth.
func DefaultTokenDir() string {
	if dir := os.Getenv("GARMINTOKENS"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".garth"
	}
	return filepath.Join(home, ".garth")
}

// TokenStore reads saved OAuth tokens from a directory.
type TokenStore struct {
	fs  fsutil.FileSystem
	dir string
}

// NewTokenStore returns a TokenStore over dir.
func NewTokenStore(fs fsutil.FileSystem, dir string) *TokenStore {
	return &TokenStore{fs: fs, dir: dir}
}

// Dir returns the token directory.
func (ts *TokenStore) Dir() string { return ts.dir }

// HasTokens reports whether both token files exist and are non-empty.
func (ts *TokenStore) HasTokens() bool {
	for _, name := range []string{oauth1TokenFile, oauth2TokenFile} {
		info, err := ts.fs.Stat(filepath.Join(ts.dir, name))
		if err != nil || info.Size() <= 0 {
			return false
		}
	}
	return true
}

// oauth2Token is the subset of garth's oauth2_token.json we need.
type oauth2Token struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// AccessToken returns the OAuth2 bearer token from the store.
func (ts *TokenStore) AccessToken() (string, error) {
	if !ts.HasTokens() {
		return "", fmt.Errorf("no saved tokens in %s; log in with a garth-compatible tool first", ts.dir)
	}

	path := filepath.Join(ts.dir, oauth2TokenFile)
	data, err := ts.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var tok oauth2Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%s has no access_token", path)
	}
	return tok.AccessToken, nil
}
