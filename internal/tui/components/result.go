package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/diseaseinfo"
	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// ResultKeyMap defines keybindings for the result screen.
type ResultKeyMap struct {
	Back   key.Binding
	Info   key.Binding
	Logout key.Binding
}

// DefaultResultKeyMap returns the result screen bindings.
func DefaultResultKeyMap() ResultKeyMap {
	return ResultKeyMap{
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("Esc", "back to home"),
		),
		Info: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "condition info"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "log out"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k ResultKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Info, k.Logout}
}

// FullHelp returns keybindings for the expanded help view.
func (k ResultKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Back, k.Info, k.Logout}}
}

// ResultModel shows a prediction handed over by the upload screen.
type ResultModel struct {
	auth     Authenticator
	result   *handoff.Result
	theme    themes.Theme
	keys     ResultKeyMap
	help     help.Model
	bar      progress.Model
	entry    diseaseinfo.Entry
	width    int
	height   int
	known    bool
	showInfo bool
}

// NewResultModel creates the result screen. The router only builds it with a
// valid handoff.
func NewResultModel(auth Authenticator, result *handoff.Result, theme themes.Theme) ResultModel {
	entry, known := diseaseinfo.Lookup(result.Prediction.Label)
	severity := string(diseaseinfo.SeverityFor(result.Prediction.Label))
	color := string(theme.StatusColor(severity))

	return ResultModel{
		auth:   auth,
		result: result,
		theme:  theme,
		keys:   DefaultResultKeyMap(),
		help:   help.New(),
		bar: progress.New(
			progress.WithSolidFill(color),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		entry: entry,
		known: known,
	}
}

// Init returns initial commands.
func (m ResultModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m ResultModel) Update(msg tea.Msg) (ResultModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.showInfo {
		if key.Matches(keyMsg, m.keys.Back, m.keys.Info) {
			m.showInfo = false
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, Navigate(nav.Home, nil)
	case key.Matches(keyMsg, m.keys.Info):
		if m.known {
			m.showInfo = true
		}
		return m, nil
	case key.Matches(keyMsg, m.keys.Logout):
		return m, Logout(m.auth)
	}
	return m, nil
}

// Known reports whether the label matched a reference entry.
func (m ResultModel) Known() bool {
	return m.known
}

// ShowingInfo reports whether the condition dialog is open.
func (m ResultModel) ShowingInfo() bool {
	return m.showInfo
}

// Resize updates the available space.
func (m *ResultModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// Close is a no-op; the handoff is dropped with the model.
func (m ResultModel) Close() {}

// View renders the screen.
func (m ResultModel) View() string {
	if m.showInfo {
		body := renderEntry(m.theme, m.entry, m.dialogWidth()) + "\n\n" + m.theme.Faint.Render("Esc to close")
		return m.theme.Dialog.Render(body)
	}

	p := m.result.Prediction
	severity := string(diseaseinfo.SeverityFor(p.Label))

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Analysis Result"))
	b.WriteString("\n")

	details := []string{
		m.theme.Faint.Render("Predicted condition"),
		m.theme.Badge(severity, diseaseinfo.FormatLabel(p.Label)),
	}
	if p.HasConfidence() {
		details = append(details,
			"",
			m.theme.Faint.Render("Confidence"),
			m.bar.ViewAs(*p.Confidence)+" "+m.theme.Bold.Render(predict.FormatConfidence(*p.Confidence)),
		)
	}
	if m.known {
		details = append(details, "", m.theme.Status(severity).Render("Risk level: "+m.riskLevel()))
	}

	thumb := RenderThumbnail(m.result.Preview.Thumbnail)
	if thumb != "" {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, thumb, "   ", lipgloss.JoinVertical(lipgloss.Left, details...)))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, details...))
	}
	b.WriteString("\n\n")

	if m.known {
		b.WriteString(wrap(m.entry.Description, m.dialogWidth()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.theme.Faint.Render(diseaseinfo.Disclaimer))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return m.theme.RoundedBox.Render(b.String())
}

func (m ResultModel) riskLevel() string {
	if m.entry.RiskLevel == "" {
		return "Unknown"
	}
	return m.entry.RiskLevel
}

func (m ResultModel) dialogWidth() int {
	if m.width <= 0 {
		return 0
	}
	return max(20, m.width-8)
}
