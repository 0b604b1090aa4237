package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/nav"
)

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case m.splashing:
		content = m.renderSplash()
	case m.loading:
		content = m.renderLoading()
	default:
		switch m.mounted {
		case nav.SignIn:
			content = m.signIn.View()
		case nav.SignUp:
			content = m.signUp.View()
		case nav.Home:
			content = m.home.View()
		case nav.Result:
			content = m.result.View()
		}
	}

	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// renderSplash renders the start-up screen.
func (m Model) renderSplash() string {
	return lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("SkinScope"),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Skin lesion screening"),
	)
}

// renderLoading is the guard's placeholder while the session is unknown.
func (m Model) renderLoading() string {
	return lipgloss.JoinVertical(
		lipgloss.Center,
		m.spinner.View(),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Checking your session..."),
	)
}
