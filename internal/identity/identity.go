// Package identity provides the account providers the client authenticates against
// and the change notifications the session watcher subscribes to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/skinscope/internal/storage"
)

// Session is an authenticated principal. It is opaque to everything except the provider.
type Session struct {
	ExpiresAt    time.Time
	UserID       string
	Email        string
	Token        string
	RefreshToken string
}

// Clone returns a copy safe to hand to listeners.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Listener receives the current session after every change; nil means signed out.
type Listener func(*Session)

// Provider is an identity provider.
type Provider interface {
	// Subscribe registers a listener and returns its unsubscribe function.
	// Every listener receives the current session at least once.
	Subscribe(fn Listener) (unsubscribe func())
	// SignUp creates an account. It does not sign the new user in.
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	Close() error
}

// Store is the persistence the providers need.
type Store interface {
	CreateAccount(ctx context.Context, account *storage.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*storage.Account, error)
	SaveSession(ctx context.Context, record *storage.SessionRecord) error
	LoadSession(ctx context.Context, provider string) (*storage.SessionRecord, error)
	ClearSession(ctx context.Context, provider string) error
	GetOrCreateSetting(ctx context.Context, key string, create func() (string, error)) (string, error)
}

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrMissingPassword    = errors.New("missing password")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrProvider           = errors.New("identity provider error")
)

// AuthError carries the message shown to the user for a failed identity operation.
type AuthError struct {
	Err     error
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(err error, code, message string) *AuthError {
	return &AuthError{Err: err, Code: code, Message: message}
}

// Message returns the text to show the user for an identity failure.
func Message(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Session) record(provider string) *storage.SessionRecord {
	return &storage.SessionRecord{
		Provider:     provider,
		UserID:       s.UserID,
		Email:        s.Email,
		Token:        s.Token,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}

func sessionFromRecord(r *storage.SessionRecord) *Session {
	return &Session{
		UserID:       r.UserID,
		Email:        r.Email,
		Token:        r.Token,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
	}
}

// awaitRestore blocks until restored is closed so a sign-in or sign-out is
// never overwritten by the session restored at start-up.
func awaitRestore(ctx context.Context, restored <-chan struct{}) error {
	select {
	case <-restored:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session restore: %w", ctx.Err())
	}
}
