package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/diseaseinfo"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// renderReference lists every reference entry.
func renderReference(theme themes.Theme, width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Skin Condition Reference"))
	b.WriteString("\n")
	for i, e := range diseaseinfo.Entries() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderEntry(theme, e, width))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Faint.Render("Esc to close"))
	return theme.Dialog.Render(b.String())
}

// renderEntry shows one entry. Risk and treatment lines are left out when
// the entry has none.
func renderEntry(theme themes.Theme, e diseaseinfo.Entry, width int) string {
	var b strings.Builder
	b.WriteString(theme.Badge(string(e.Severity), e.Title))
	if e.RiskLevel != "" {
		b.WriteString("  ")
		b.WriteString(theme.Status(string(e.Severity)).Render("Risk: " + e.RiskLevel))
	}
	b.WriteString("\n")
	b.WriteString(wrap(e.Description, width))
	if e.Risk != "" {
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Malignancy risk") + theme.Normal.Render(e.Risk))
	}
	if e.Treatment != "" {
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Treatment") + theme.Normal.Render(e.Treatment))
	}
	return b.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
