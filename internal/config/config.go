// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/spf13/viper"
)

// DefaultAPIURL is the prediction service base used when nothing is configured.
const DefaultAPIURL = "http://localhost:10000"

// Identity provider names.
const (
	ProviderLocal    = "local"
	ProviderFirebase = "firebase"
)

// Config holds the resolved application configuration.
type Config struct {
	Logging  LoggingConfig
	Identity IdentityConfig
	APIURL   string
	Database string
	UI       UIConfig
	Predict  PredictConfig
}

// PredictConfig configures the prediction client.
type PredictConfig struct {
	// Timeout is zero unless the user opts into a client-side bound.
	Timeout time.Duration
}

// IdentityConfig selects and configures the identity provider.
type IdentityConfig struct {
	Provider string
	Local    LocalIdentityConfig
	Firebase FirebaseIdentityConfig
}

// LocalIdentityConfig configures the sqlite-backed provider.
type LocalIdentityConfig struct {
	Secret     string
	SessionTTL time.Duration
}

// FirebaseIdentityConfig configures the hosted provider.
type FirebaseIdentityConfig struct {
	APIKey   string
	Endpoint string
	TokenURL string
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// UIConfig configures the interactive client.
type UIConfig struct {
	Theme        string
	Splash       time.Duration
	PreviewWidth int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("predict.timeout", time.Duration(0))
	v.SetDefault("identity.provider", ProviderLocal)
	v.SetDefault("identity.local.session_ttl", 24*time.Hour)
	v.SetDefault("identity.firebase.token_url", "https://securetoken.googleapis.com/v1/token")
	v.SetDefault("database.path", "~/.local/share/skinscope/skinscope.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "~/.local/state/skinscope/skinscope.log")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.splash", 2*time.Second)
	v.SetDefault("ui.preview_width", 32)
}

// Load resolves the configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (config file, flags or SKINSCOPE_ env vars)
// 2. Direct environment variables (API_URL, FIREBASE_API_KEY)
// 3. Default values
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIURL:   v.GetString("api_url"),
		Database: ExpandPath(v.GetString("database.path")),
		Predict: PredictConfig{
			Timeout: v.GetDuration("predict.timeout"),
		},
		Identity: IdentityConfig{
			Provider: strings.ToLower(v.GetString("identity.provider")),
			Local: LocalIdentityConfig{
				Secret:     v.GetString("identity.local.secret"),
				SessionTTL: v.GetDuration("identity.local.session_ttl"),
			},
			Firebase: FirebaseIdentityConfig{
				APIKey:   v.GetString("identity.firebase.api_key"),
				Endpoint: v.GetString("identity.firebase.endpoint"),
				TokenURL: v.GetString("identity.firebase.token_url"),
			},
		},
		Logging: LoggingConfig{
			Level:      v.GetString("logging.level"),
			Format:     v.GetString("logging.format"),
			File:       ExpandPath(v.GetString("logging.file")),
			MaxSizeMB:  v.GetInt("logging.max_size_mb"),
			MaxBackups: v.GetInt("logging.max_backups"),
			MaxAgeDays: v.GetInt("logging.max_age_days"),
		},
		UI: UIConfig{
			Theme:        v.GetString("ui.theme"),
			Splash:       v.GetDuration("ui.splash"),
			PreviewWidth: v.GetInt("ui.preview_width"),
		},
	}

	// The web client read API_URL directly; keep honouring it.
	if cfg.APIURL == DefaultAPIURL {
		if env := os.Getenv("API_URL"); env != "" {
			cfg.APIURL = env
		}
	}
	if cfg.Identity.Firebase.APIKey == "" {
		cfg.Identity.Firebase.APIKey = os.Getenv("FIREBASE_API_KEY")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api_url %q is not an absolute URL", common.ErrInvalidConfig, c.APIURL)
	}
	if c.Predict.Timeout < 0 {
		return fmt.Errorf("%w: predict.timeout must not be negative", common.ErrInvalidConfig)
	}

	switch c.Identity.Provider {
	case ProviderLocal:
		if c.Identity.Local.SessionTTL <= 0 {
			return fmt.Errorf("%w: identity.local.session_ttl must be positive", common.ErrInvalidConfig)
		}
	case ProviderFirebase:
		if c.Identity.Firebase.APIKey == "" {
			return fmt.Errorf("%w: identity.firebase.api_key (or FIREBASE_API_KEY)", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown identity provider %q", common.ErrInvalidConfig, c.Identity.Provider)
	}

	if c.Database == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.UI.PreviewWidth < 0 {
		return fmt.Errorf("%w: ui.preview_width must not be negative", common.ErrInvalidConfig)
	}
	return nil
}
