package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/session"
)

// Run starts the interactive client on provider and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, provider identity.Provider, opts ...Option) error {
	if provider == nil {
		return fmt.Errorf("identity provider is required")
	}

	watcher := session.NewWatcher(provider)
	watcher.Activate()
	defer watcher.Deactivate()

	opts = append([]Option{WithAuthenticator(provider)}, opts...)
	m := New(watcher, opts...)
	if m.config.Predictor == nil {
		return fmt.Errorf("prediction service is required")
	}

	rec, err := NewRecorder(m.config.RecordDir)
	if err != nil {
		return err
	}
	defer rec.Close()

	var program tea.Model = m
	if rec.Dir() != "" {
		slog.Info("Recording TUI session", "dir", rec.Dir())
		program = recording{Model: m, rec: rec}
	}

	final, err := tea.NewProgram(program, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	switch fm := final.(type) {
	case Model:
		fm.shutdown()
	case recording:
		fm.shutdown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
