package garmin

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/pulse.report/internal/fsutil"
)

func TestDefaultTokenDir(t *testing.T) {
	t.Setenv("GARMINTOKENS", "/srv/tokens")
	if dir := DefaultTokenDir(); dir != "/srv/tokens" {
		t.Errorf("DefaultTokenDir = %s, want /srv/tokens", dir)
	}

	t.Setenv("GARMINTOKENS", "")
	if dir := DefaultTokenDir(); !strings.HasSuffix(dir, ".garth") {
		t.Errorf("DefaultTokenDir = %s, want a .garth path", dir)
	}
}

func TestHasTokens(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	ts := NewTokenStore(fs, "tokens")

	if ts.HasTokens() {
		t.Error("HasTokens on empty dir = true")
	}

	writeToken(t, fs, "oauth1_token.json", `{"oauth_token":"x"}`)
	if ts.HasTokens() {
		t.Error("HasTokens with only oauth1 = true")
	}

	writeToken(t, fs, "oauth2_token.json", "")
	if ts.HasTokens() {
		t.Error("HasTokens with empty oauth2 = true")
	}

	writeToken(t, fs, "oauth2_token.json", `{"access_token":"abc"}`)
	if !ts.HasTokens() {
		t.Error("HasTokens with both files = false")
	}
}

func TestAccessToken(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	ts := NewTokenStore(fs, "tokens")

	if _, err := ts.AccessToken(); err == nil {
		t.Error("AccessToken without tokens succeeded")
	}

	writeToken(t, fs, "oauth1_token.json", `{"oauth_token":"x"}`)
	writeToken(t, fs, "oauth2_token.json", `{"token_type":"Bearer","access_token":"abc123","expires_at":1999999999}`)

	token, err := ts.AccessToken()
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "abc123" {
		t.Errorf("AccessToken = %s, want abc123", token)
	}
}

func TestAccessTokenMissingField(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	ts := NewTokenStore(fs, "tokens")

	writeToken(t, fs, "oauth1_token.json", `{"oauth_token":"x"}`)
	writeToken(t, fs, "oauth2_token.json", `{"token_type":"Bearer"}`)

	if _, err := ts.AccessToken(); err == nil {
		t.Error("AccessToken without access_token field succeeded")
	}
}

func writeToken(t *testing.T, fs *fsutil.MemoryFileSystem, name, content string) {
	t.Helper()
	if err := fs.WriteFile(filepath.Join("tokens", name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
