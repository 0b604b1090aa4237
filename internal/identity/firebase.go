package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/Veraticus/skinscope/internal/common"
)

// ProviderFirebase names sessions issued by FirebaseProvider.
const ProviderFirebase = "firebase"

// DefaultFirebaseTokenURL is the secure token endpoint used to refresh ID tokens.
const DefaultFirebaseTokenURL = "https://securetoken.googleapis.com/v1/token"

// refreshLead is how long before expiry an ID token is refreshed.
const refreshLead = time.Minute

// FirebaseProvider authenticates email/password accounts with Firebase Authentication.
type FirebaseProvider struct {
	store      Store
	svc        *identitytoolkit.Service
	hub        *Hub
	httpClient *http.Client
	now        func() time.Time
	timer      *time.Timer
	restored   chan struct{}
	apiKey     string
	tokenURL   string
	mu         sync.Mutex
}

// FirebaseOption configures a FirebaseProvider.
type FirebaseOption func(*firebaseConfig)

type firebaseConfig struct {
	httpClient *http.Client
	now        func() time.Time
	endpoint   string
	tokenURL   string
}

// WithEndpoint overrides the identity toolkit base URL.
func WithEndpoint(endpoint string) FirebaseOption {
	return func(c *firebaseConfig) {
		c.endpoint = endpoint
	}
}

// WithTokenURL overrides the secure token endpoint.
func WithTokenURL(tokenURL string) FirebaseOption {
	return func(c *firebaseConfig) {
		c.tokenURL = tokenURL
	}
}

// WithFirebaseHTTPClient sets the client used for token refreshes.
func WithFirebaseHTTPClient(client *http.Client) FirebaseOption {
	return func(c *firebaseConfig) {
		c.httpClient = client
	}
}

// WithFirebaseClock overrides the time source.
func WithFirebaseClock(now func() time.Time) FirebaseOption {
	return func(c *firebaseConfig) {
		c.now = now
	}
}

// NewFirebaseProvider creates the provider and starts restoring the persisted session.
func NewFirebaseProvider(ctx context.Context, apiKey string, store Store, opts ...FirebaseOption) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: firebase api key", common.ErrMissingConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", common.ErrMissingConfig)
	}

	cfg := firebaseConfig{
		tokenURL:   DefaultFirebaseTokenURL,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.endpoint))
	}
	svc, err := identitytoolkit.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}

	p := &FirebaseProvider{
		store:      store,
		svc:        svc,
		hub:        NewHub(),
		httpClient: cfg.httpClient,
		now:        cfg.now,
		restored:   make(chan struct{}),
		apiKey:     apiKey,
		tokenURL:   cfg.tokenURL,
	}

	go p.restore(ctx)
	return p, nil
}

func (p *FirebaseProvider) restore(ctx context.Context) {
	defer close(p.restored)

	record, err := p.store.LoadSession(ctx, ProviderFirebase)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("Failed to restore session", "provider", ProviderFirebase, "error", err)
		}
		p.hub.SetReady(nil)
		return
	}

	session := sessionFromRecord(record)
	if !p.now().Before(session.ExpiresAt.Add(-refreshLead)) {
		session, err = p.refresh(ctx, session)
		if err != nil {
			p.discard(ctx, err)
			p.hub.SetReady(nil)
			return
		}
	}

	p.scheduleRefresh(session)
	p.hub.SetReady(session)
}

// discard drops a session the token service refused. Network failures keep the
// stored refresh token for the next start.
func (p *FirebaseProvider) discard(ctx context.Context, err error) {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		slog.Warn("Could not refresh session", "provider", ProviderFirebase, "error", err)
		return
	}
	slog.Info("Discarding stored session", "provider", ProviderFirebase, "error", err)
	if clearErr := p.store.ClearSession(ctx, ProviderFirebase); clearErr != nil {
		slog.Warn("Failed to clear session", "provider", ProviderFirebase, "error", clearErr)
	}
}

// Subscribe implements Provider.
func (p *FirebaseProvider) Subscribe(fn Listener) func() {
	return p.hub.Subscribe(fn)
}

// Ready is closed once the persisted session has been restored.
func (p *FirebaseProvider) Ready() <-chan struct{} {
	return p.hub.Ready()
}

// SignUp implements Provider.
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) error {
	email, err := validateCredentials(email, password)
	if err != nil {
		return err
	}

	resp, err := p.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return mapFirebaseError(err)
	}

	slog.Info("Created account", "provider", ProviderFirebase, "email", email, "user_id", resp.LocalId)
	return nil
}

// SignIn implements Provider.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	if err := awaitRestore(ctx, p.restored); err != nil {
		return nil, err
	}

	resp, err := p.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapFirebaseError(err)
	}
	if resp.IdToken == "" {
		return nil, newAuthError(ErrProvider, "missing-token", "Sign in did not return a token")
	}

	session := &Session{
		UserID:       resp.LocalId,
		Email:        resp.Email,
		Token:        resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    p.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if session.Email == "" {
		session.Email = email
	}

	if err := p.store.SaveSession(ctx, session.record(ProviderFirebase)); err != nil {
		return nil, err
	}
	p.scheduleRefresh(session)
	p.hub.Publish(session)
	slog.Info("Signed in", "provider", ProviderFirebase, "email", session.Email)
	return session.Clone(), nil
}

// SignOut implements Provider.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	if err := awaitRestore(ctx, p.restored); err != nil {
		return err
	}
	p.stopTimer()
	err := p.store.ClearSession(ctx, ProviderFirebase)
	p.hub.Publish(nil)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close stops the refresh timer and drops subscribers.
func (p *FirebaseProvider) Close() error {
	<-p.restored
	p.stopTimer()
	p.hub.Close()
	return nil
}

// refresh exchanges the refresh token for a new ID token.
func (p *FirebaseProvider) refresh(ctx context.Context, s *Session) (*Session, error) {
	if s.RefreshToken == "" {
		return nil, &oauth2.RetrieveError{ErrorCode: "missing_refresh_token"}
	}

	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.tokenURL + "?key=" + url.QueryEscape(p.apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	refreshed := s.Clone()
	refreshed.Token = tok.AccessToken
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		refreshed.Token = idToken
	}
	if userID, ok := tok.Extra("user_id").(string); ok && userID != "" {
		refreshed.UserID = userID
	}
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	refreshed.ExpiresAt = tok.Expiry
	if refreshed.ExpiresAt.IsZero() {
		refreshed.ExpiresAt = p.now().Add(time.Hour)
	}

	if err := p.store.SaveSession(ctx, refreshed.record(ProviderFirebase)); err != nil {
		return nil, err
	}
	slog.Debug("Refreshed session", "provider", ProviderFirebase, "expires_at", refreshed.ExpiresAt)
	return refreshed, nil
}

func (p *FirebaseProvider) scheduleRefresh(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	token := s.Token
	delay := s.ExpiresAt.Add(-refreshLead).Sub(p.now())
	p.timer = time.AfterFunc(delay, func() {
		p.renew(token)
	})
}

// renew runs on the refresh timer. A failed refresh signs the user out.
func (p *FirebaseProvider) renew(token string) {
	current, _ := p.hub.Current()
	if current == nil || current.Token != token {
		return
	}

	ctx := context.Background()
	refreshed, err := p.refresh(ctx, current)
	if err != nil {
		slog.Warn("Session refresh failed", "provider", ProviderFirebase, "error", err)
		if clearErr := p.store.ClearSession(ctx, ProviderFirebase); clearErr != nil {
			slog.Warn("Failed to clear session", "provider", ProviderFirebase, "error", clearErr)
		}
		p.hub.Publish(nil)
		return
	}
	p.scheduleRefresh(refreshed)
	p.hub.Publish(refreshed)
}

func (p *FirebaseProvider) stopTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// firebaseMessages maps identity toolkit error codes to user-facing text.
var firebaseMessages = map[string]struct {
	err     error
	message string
}{
	"EMAIL_EXISTS":                {ErrEmailInUse, "Email already in use"},
	"EMAIL_NOT_FOUND":             {ErrInvalidCredentials, "Invalid email or password"},
	"INVALID_PASSWORD":            {ErrInvalidCredentials, "Invalid email or password"},
	"INVALID_LOGIN_CREDENTIALS":   {ErrInvalidCredentials, "Invalid email or password"},
	"USER_DISABLED":               {ErrInvalidCredentials, "This account has been disabled"},
	"INVALID_EMAIL":               {ErrInvalidEmail, "Invalid email address"},
	"MISSING_PASSWORD":            {ErrMissingPassword, "Password is required"},
	"WEAK_PASSWORD":               {ErrWeakPassword, "Password should be at least 6 characters"},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {ErrTooManyAttempts, "Too many attempts. Please try again later"},
}

func mapFirebaseError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}

	code := apiErr.Message
	if idx := strings.Index(code, " : "); idx >= 0 {
		code = code[:idx]
	}
	code = strings.TrimSpace(code)

	if known, ok := firebaseMessages[code]; ok {
		return newAuthError(known.err, code, known.message)
	}
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(apiErr.Code)
	}
	return newAuthError(ErrProvider, code, message)
}
