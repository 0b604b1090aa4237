package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/storage"
)

// ProviderLocal names sessions issued by LocalProvider.
const ProviderLocal = "local"

const (
	localSecretSetting = "local_jwt_secret"
	localIssuer        = "skinscope"
	minPasswordLength  = 6
	defaultSessionTTL  = 24 * time.Hour
)

// LocalProvider authenticates against accounts kept in the local database.
// Sessions are HS256 tokens that survive restarts until they expire.
type LocalProvider struct {
	store    Store
	hub      *Hub
	now      func() time.Time
	timer    *time.Timer
	restored chan struct{}
	secret   []byte
	ttl      time.Duration
	mu       sync.Mutex
}

// LocalOption configures a LocalProvider.
type LocalOption func(*LocalProvider)

// WithSecret sets the token signing secret. Without it a secret is generated and stored.
func WithSecret(secret string) LocalOption {
	return func(p *LocalProvider) {
		if secret != "" {
			p.secret = []byte(secret)
		}
	}
}

// WithSessionTTL sets how long an issued session stays valid.
func WithSessionTTL(ttl time.Duration) LocalOption {
	return func(p *LocalProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewLocalProvider creates the provider and starts restoring the persisted session.
func NewLocalProvider(ctx context.Context, store Store, opts ...LocalOption) (*LocalProvider, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", common.ErrMissingConfig)
	}

	p := &LocalProvider{
		store:    store,
		hub:      NewHub(),
		now:      time.Now,
		ttl:      defaultSessionTTL,
		restored: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if len(p.secret) == 0 {
		secret, err := store.GetOrCreateSetting(ctx, localSecretSetting, generateSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing secret: %w", err)
		}
		p.secret = []byte(secret)
	}

	go p.restore(ctx)
	return p, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (p *LocalProvider) restore(ctx context.Context) {
	defer close(p.restored)

	session, err := p.loadSession(ctx)
	if err != nil {
		slog.Warn("Failed to restore session", "provider", ProviderLocal, "error", err)
		session = nil
	}
	if session != nil {
		p.scheduleExpiry(session)
		slog.Debug("Restored session", "provider", ProviderLocal, "email", session.Email)
	}
	p.hub.SetReady(session)
}

func (p *LocalProvider) loadSession(ctx context.Context) (*Session, error) {
	record, err := p.store.LoadSession(ctx, ProviderLocal)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	subject, err := p.verify(record.Token)
	if err == nil && subject != record.UserID {
		err = fmt.Errorf("token subject %q does not match user %q", subject, record.UserID)
	}
	if err != nil {
		slog.Info("Discarding stored session", "provider", ProviderLocal, "error", err)
		if clearErr := p.store.ClearSession(ctx, ProviderLocal); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	return sessionFromRecord(record), nil
}

// Subscribe implements Provider.
func (p *LocalProvider) Subscribe(fn Listener) func() {
	return p.hub.Subscribe(fn)
}

// Ready is closed once the persisted session has been restored.
func (p *LocalProvider) Ready() <-chan struct{} {
	return p.hub.Ready()
}

// SignUp implements Provider.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) error {
	email, err := validateCredentials(email, password)
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return newAuthError(ErrWeakPassword, "weak-password",
			fmt.Sprintf("Password should be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	account := &storage.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return newAuthError(ErrEmailInUse, "email-already-in-use", "Email already in use")
		}
		return err
	}

	slog.Info("Created account", "provider", ProviderLocal, "email", email)
	return nil
}

// SignIn implements Provider.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	if err := awaitRestore(ctx, p.restored); err != nil {
		return nil, err
	}

	account, err := p.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, newAuthError(ErrInvalidCredentials, "invalid-credential", "Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); cmpErr != nil {
		return nil, newAuthError(ErrInvalidCredentials, "invalid-credential", "Invalid email or password")
	}

	session, err := p.issue(account)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveSession(ctx, session.record(ProviderLocal)); err != nil {
		return nil, err
	}

	p.scheduleExpiry(session)
	p.hub.Publish(session)
	slog.Info("Signed in", "provider", ProviderLocal, "email", account.Email)
	return session.Clone(), nil
}

// SignOut implements Provider. Subscribers see the sign-out even when
// clearing the stored session fails.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := awaitRestore(ctx, p.restored); err != nil {
		return err
	}
	p.stopTimer()
	err := p.store.ClearSession(ctx, ProviderLocal)
	p.hub.Publish(nil)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close stops the expiry timer and drops subscribers.
func (p *LocalProvider) Close() error {
	<-p.restored
	p.stopTimer()
	p.hub.Close()
	return nil
}

func (p *LocalProvider) issue(account *storage.Account) (*Session, error) {
	now := p.now()
	expires := now.Add(p.ttl).Truncate(time.Second)

	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"iss":   localIssuer,
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		UserID:    account.ID,
		Email:     account.Email,
		Token:     signed,
		ExpiresAt: expires,
	}, nil
}

// verify checks the token signature and expiry and returns its subject.
func (p *LocalProvider) verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithTimeFunc(p.now),
		jwt.WithIssuer(localIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	return token.Claims.GetSubject()
}

func (p *LocalProvider) scheduleExpiry(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	token := s.Token
	p.timer = time.AfterFunc(s.ExpiresAt.Sub(p.now()), func() {
		p.expire(token)
	})
}

func (p *LocalProvider) expire(token string) {
	current, _ := p.hub.Current()
	if current == nil || current.Token != token {
		return
	}
	slog.Info("Session expired", "provider", ProviderLocal, "email", current.Email)
	if err := p.store.ClearSession(context.Background(), ProviderLocal); err != nil {
		slog.Warn("Failed to clear expired session", "error", err)
	}
	p.hub.Publish(nil)
}

func (p *LocalProvider) stopTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// validateCredentials returns the normalized email.
func validateCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", newAuthError(ErrInvalidEmail, "missing-email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", newAuthError(ErrInvalidEmail, "invalid-email", "Invalid email address")
	}
	if password == "" {
		return "", newAuthError(ErrMissingPassword, "missing-password", "Password is required")
	}
	return email, nil
}
