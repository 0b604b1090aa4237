package tui

import (
	"time"

	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/submission"
	"github.com/Veraticus/skinscope/internal/tui/components"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme          themes.Theme
	Auth           components.Authenticator
	Predictor      submission.Predictor
	InitialRoute   nav.Route
	RecordDir      string
	Splash         time.Duration
	SignUpRedirect time.Duration
	Width          int
	Height         int
	PreviewWidth   int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:          themes.Default,
		InitialRoute:   nav.Root,
		Splash:         2 * time.Second,
		SignUpRedirect: components.DefaultSignUpRedirect,
		Width:          80,
		Height:         24,
		PreviewWidth:   32,
	}
}

// WithAuthenticator sets the identity provider the forms talk to.
func WithAuthenticator(auth components.Authenticator) Option {
	return func(c *Config) {
		c.Auth = auth
	}
}

// WithPredictor sets the prediction service.
func WithPredictor(p submission.Predictor) Option {
	return func(c *Config) {
		c.Predictor = p
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSplash sets how long the splash screen shows. Zero skips it.
func WithSplash(d time.Duration) Option {
	return func(c *Config) {
		c.Splash = d
	}
}

// WithSignUpRedirect sets the delay between a successful sign-up and the
// move to the sign-in form.
func WithSignUpRedirect(d time.Duration) Option {
	return func(c *Config) {
		c.SignUpRedirect = d
	}
}

// WithPreviewWidth sets the thumbnail width in pixels.
func WithPreviewWidth(width int) Option {
	return func(c *Config) {
		c.PreviewWidth = width
	}
}

// WithInitialRoute sets the route requested on start.
func WithInitialRoute(path string) Option {
	return func(c *Config) {
		c.InitialRoute = nav.Resolve(path)
	}
}

// WithRecording writes every frame to a new directory under dir.
func WithRecording(dir string) Option {
	return func(c *Config) {
		c.RecordDir = dir
	}
}
