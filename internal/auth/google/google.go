// Package google implements sign-in with Google and the mapping from a
// Google identity to an owner token.
package google

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// ErrNoEmail is returned when Google's profile carries no email address; the
// message is sent to clients verbatim.
var ErrNoEmail = errors.New("Could not extract Google email")

// Identity is the subset of a Google profile the backend keeps.
type Identity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// Authenticator runs the redirect flow and ID-token verification, and owns
// the user upsert that assigns owner tokens.
type Authenticator struct {
	cfg     *oauth2.Config
	storage *storage.SQLiteRepository
	now     func() time.Time

	// verifyToken is swappable so tests do not reach Google.
	verifyToken func(ctx context.Context, credential, audience string) (*idtoken.Payload, error)
}

func New(clientID, clientSecret, redirectURL string, st *storage.SQLiteRepository) *Authenticator {
	return &Authenticator{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		storage:     st,
		now:         func() time.Time { return time.Now().UTC() },
		verifyToken: idtoken.Validate,
	}
}

// LoginURL builds the consent-screen redirect for the browser flow.
func (a *Authenticator) LoginURL(state string) string {
	return a.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// HandleCallback exchanges the authorization code, fetches the Google
// profile, and upserts the user record.
func (a *Authenticator) HandleCallback(ctx context.Context, code string) (core.User, error) {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return core.User{}, fmt.Errorf("exchange code: %w", err)
	}

	svc, err := goauth2.NewService(ctx, option.WithTokenSource(a.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return core.User{}, fmt.Errorf("userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return core.User{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return core.User{}, ErrNoEmail
	}

	name := info.Name
	if name == "" {
		name = info.GivenName
	}

	return a.EnsureUser(ctx, Identity{
		GoogleID: info.Id,
		Email:    info.Email,
		Name:     name,
		Picture:  info.Picture,
	})
}

// VerifyCredential validates a Google ID token (the one-tap flow) and returns
// the identity it asserts.
func (a *Authenticator) VerifyCredential(ctx context.Context, credential string) (Identity, error) {
	payload, err := a.verifyToken(ctx, credential, a.cfg.ClientID)
	if err != nil {
		return Identity{}, fmt.Errorf("verify credential: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return Identity{}, ErrNoEmail
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return Identity{
		GoogleID: payload.Subject,
		Email:    email,
		Name:     name,
		Picture:  picture,
	}, nil
}

// EnsureUser maps a Google identity to its user record. The owner token is
// generated exactly once per identity; later logins keep the token and only
// advance last_login. Profile fields of an existing record are not mutated.
func (a *Authenticator) EnsureUser(ctx context.Context, ident Identity) (core.User, error) {
	existing, err := a.storage.GetUserByGoogleID(ctx, ident.GoogleID)
	if err == nil {
		now := a.now()
		if err := a.storage.TouchLastLogin(ctx, ident.GoogleID, now); err != nil {
			return core.User{}, err
		}
		existing.LastLogin = now
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, err
	}

	now := a.now()
	return a.storage.CreateUser(ctx, core.User{
		GoogleID:  ident.GoogleID,
		Token:     NewToken(),
		Name:      ident.Name,
		Email:     ident.Email,
		Picture:   ident.Picture,
		CreatedAt: now,
		LastLogin: now,
	})
}

// NewToken mints an owner token: "u_" plus 32 hex characters.
func NewToken() string {
	id := uuid.New()
	return "u_" + hex.EncodeToString(id[:])
}
