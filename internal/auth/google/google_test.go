package google

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/storage"
)

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return New("client-id", "client-secret", "http://localhost:8081/api/auth/google/callback", repo)
}

func TestNewTokenFormat(t *testing.T) {
	tok := NewToken()
	if !strings.HasPrefix(tok, "u_") {
		t.Fatalf("token %q missing u_ prefix", tok)
	}
	if len(tok) != 34 {
		t.Fatalf("token length = %d, want 34", len(tok))
	}
	if tok == NewToken() {
		t.Fatal("tokens must be unique")
	}
}

func TestLoginURL(t *testing.T) {
	a := newTestAuth(t)

	raw := a.LoginURL("state-token")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse login URL: %v", err)
	}

	q := u.Query()
	checks := map[string]string{
		"client_id":     "client-id",
		"state":         "state-token",
		"access_type":   "offline",
		"prompt":        "select_account",
		"response_type": "code",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if scope := q.Get("scope"); !strings.Contains(scope, "email") || !strings.Contains(scope, "profile") {
		t.Errorf("scope = %q, want email and profile", scope)
	}
}

func TestEnsureUserAssignsTokenOnce(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	a.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	ident := Identity{GoogleID: "g-123", Email: "a@example.com", Name: "Ada", Picture: "http://img"}

	first, err := a.EnsureUser(ctx, ident)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if !strings.HasPrefix(first.Token, "u_") {
		t.Fatalf("token %q missing prefix", first.Token)
	}

	// Later logins keep the token and only advance last_login, even when the
	// Google profile has changed.
	again, err := a.EnsureUser(ctx, Identity{GoogleID: "g-123", Email: "new@example.com", Name: "Renamed"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.Token != first.Token {
		t.Fatalf("token changed across logins: %q -> %q", first.Token, again.Token)
	}
	if again.Email != "a@example.com" || again.Name != "Ada" {
		t.Fatalf("existing profile fields must not be mutated: %+v", again)
	}
	if !again.LastLogin.After(first.LastLogin) {
		t.Fatalf("last_login did not advance: %v -> %v", first.LastLogin, again.LastLogin)
	}
}

func TestEnsureUserDistinctIdentities(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()

	u1, err := a.EnsureUser(ctx, Identity{GoogleID: "g-1", Email: "one@example.com"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	u2, err := a.EnsureUser(ctx, Identity{GoogleID: "g-2", Email: "two@example.com"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if u1.Token == u2.Token {
		t.Fatal("distinct identities must not share a token")
	}
}
