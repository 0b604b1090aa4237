package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/skinscope/internal/session"
)

// scope tags everything cmd produces with a mount sequence. Batches are
// unpacked so each leaf is tagged on its own.
func scope(seq uint64, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		switch msg := cmd().(type) {
		case nil:
			return nil
		case tea.BatchMsg:
			cmds := make([]tea.Cmd, 0, len(msg))
			for _, c := range msg {
				cmds = append(cmds, scope(seq, c))
			}
			return tea.BatchMsg(cmds)
		default:
			return scopedMsg{seq: seq, msg: msg}
		}
	}
}

// waitForSession blocks until the watcher reports a new state.
func waitForSession(updates <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return sessionChangedMsg{state: state}
	}
}

// splash ends the splash screen after d.
func splash(d time.Duration) tea.Cmd {
	if d <= 0 {
		return func() tea.Msg { return splashDoneMsg{} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return splashDoneMsg{}
	})
}
