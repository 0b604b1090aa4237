package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/config"
	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/session"
	"github.com/Veraticus/skinscope/internal/storage"
)

// sessionWait bounds how long a command waits for the provider to restore
// the saved session.
const sessionWait = 30 * time.Second

// app bundles what every command needs.
type app struct {
	store    *storage.SQLiteStorage
	provider identity.Provider
	cfg      config.Config
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Invalid configuration", err)
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	provider, err := identity.New(ctx, cfg.Identity, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create identity provider: %w", err)
	}

	slog.Debug("Opened application", "database", cfg.Database, "provider", cfg.Identity.Provider, "api_url", cfg.APIURL)
	return &app{cfg: cfg, store: store, provider: provider}, nil
}

// Close shuts the provider down before the database it writes to.
func (a *app) Close() error {
	return errors.Join(a.provider.Close(), a.store.Close())
}

// predictor builds the prediction client. opts are applied after the configured ones.
func (a *app) predictor(opts ...predict.Option) *predict.Client {
	base := []predict.Option{predict.WithTimeout(a.cfg.Predict.Timeout)}
	return predict.New(a.cfg.APIURL, append(base, opts...)...)
}

// currentSession waits for the provider to report whether anyone is signed in.
func (a *app) currentSession(ctx context.Context) (session.State, error) {
	watcher := session.NewWatcher(a.provider)
	watcher.Activate()
	defer watcher.Deactivate()

	ctx, cancel := context.WithTimeout(ctx, sessionWait)
	defer cancel()

	state, err := watcher.Wait(ctx)
	if err != nil {
		return state, fmt.Errorf("failed to restore session: %w", err)
	}
	return state, nil
}

// requireSession fails unless someone is signed in.
func (a *app) requireSession(ctx context.Context) (*identity.Session, error) {
	state, err := a.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if state.Status != session.Present {
		return nil, common.NewUserError("Not signed in. Run: skinscope auth signin", common.ErrNotSignedIn)
	}
	return state.Session, nil
}
