package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/skinscope/internal/session"
)

// scopedMsg is a message produced by a mounted screen. seq is the mount it
// belongs to; messages for a screen that has since been unmounted are dropped.
type scopedMsg struct {
	msg tea.Msg
	seq uint64
}

// sessionChangedMsg carries a new watcher state.
type sessionChangedMsg struct {
	state session.State
}

// splashDoneMsg ends the splash screen.
type splashDoneMsg struct{}
