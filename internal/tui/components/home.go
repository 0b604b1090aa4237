package components

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/stager"
	"github.com/Veraticus/skinscope/internal/submission"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// HomeKeyMap defines keybindings for the upload screen.
type HomeKeyMap struct {
	Choose  key.Binding
	Analyze key.Binding
	Clear   key.Binding
	Info    key.Binding
	Logout  key.Binding
}

// DefaultHomeKeyMap returns the upload screen bindings.
func DefaultHomeKeyMap() HomeKeyMap {
	return HomeKeyMap{
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "choose file"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "analyze"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "clear"),
		),
		Info: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "skin conditions"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "log out"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k HomeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Analyze, k.Info, k.Logout}
}

// FullHelp returns keybindings for the expanded help view.
func (k HomeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Choose, k.Analyze, k.Clear},
		{k.Info, k.Logout},
	}
}

// HomeModel is the upload screen: pick an image, preview it, analyze it.
type HomeModel struct {
	auth       Authenticator
	stager     *stager.Stager
	controller *submission.Controller
	theme      themes.Theme
	keys       HomeKeyMap
	help       help.Model
	spinner    spinner.Model
	pickErr    string
	input      textinput.Model
	width      int
	height     int
	showInfo   bool
}

// NewHomeModel creates the upload screen. Each mount gets its own stager and
// controller so nothing staged survives leaving the screen.
func NewHomeModel(auth Authenticator, predictor submission.Predictor, theme themes.Theme, previewWidth int) HomeModel {
	in := textinput.New()
	in.Placeholder = "path/to/lesion.jpg"
	in.CharLimit = 4096
	in.Width = 50
	in.Focus()

	return HomeModel{
		auth:       auth,
		stager:     stager.New(stager.WithPreviewWidth(previewWidth)),
		controller: submission.New(predictor),
		theme:      theme,
		keys:       DefaultHomeKeyMap(),
		help:       help.New(),
		spinner:    newSpinner(theme),
		input:      in,
	}
}

// Init returns initial commands.
func (m HomeModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case DecodedMsg:
		m.stager.Apply(msg.Result)
		return m, nil

	case PredictedMsg:
		result, state := m.controller.Complete(msg.Outcome)
		if result != nil {
			return m, Navigate(nav.Result, result)
		}
		if state.Status == submission.Failed {
			slog.Debug("Showing prediction failure", "reason", state.Reason)
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m HomeModel) handleKey(msg tea.KeyMsg) (HomeModel, tea.Cmd) {
	if m.showInfo {
		if key.Matches(msg, m.keys.Clear, m.keys.Info) {
			m.showInfo = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Info):
		m.showInfo = true
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m, Logout(m.auth)
	case key.Matches(msg, m.keys.Analyze):
		return m.analyze()
	}

	// The form is locked while a request is out.
	if m.controller.State().Status == submission.InFlight {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Clear):
		m.stager.Clear()
		m.controller.Dismiss()
		m.input.SetValue("")
		m.pickErr = ""
		return m, nil
	case key.Matches(msg, m.keys.Choose):
		return m.choose()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// choose stages the file named in the input.
func (m HomeModel) choose() (HomeModel, tea.Cmd) {
	path := strings.Trim(strings.TrimSpace(m.input.Value()), `"'`)
	if path == "" {
		m.pickErr = "Enter the path of an image file"
		return m, nil
	}

	c, err := stager.CandidateFromPath(path)
	if err != nil {
		slog.Debug("Cannot stage file", "path", path, "error", err)
		m.stager.Clear()
		m.pickErr = stager.Message(stager.ErrDecode)
		return m, nil
	}

	m.pickErr = ""
	m.controller.Dismiss()
	decode := m.stager.Select(c)
	if decode == nil {
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return DecodedMsg{Result: decode.Run()}
	})
}

func (m HomeModel) analyze() (HomeModel, tea.Cmd) {
	if !m.CanAnalyze() {
		return m, nil
	}
	req, err := m.controller.Submit(context.Background(), m.stager.Staged())
	if err != nil {
		if !errors.Is(err, submission.ErrInFlight) {
			slog.Warn("Submit rejected", "error", err)
		}
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return PredictedMsg{Outcome: req.Run()}
	})
}

// CanAnalyze reports whether the Analyze action is enabled.
func (m HomeModel) CanAnalyze() bool {
	return m.stager.Ready() && m.controller.State().Status != submission.InFlight
}

// Staged returns the current selection.
func (m HomeModel) Staged() stager.StagedImage {
	return m.stager.Staged()
}

// Submission returns the controller state.
func (m HomeModel) Submission() submission.State {
	return m.controller.State()
}

// ShowingInfo reports whether the reference dialog is open.
func (m HomeModel) ShowingInfo() bool {
	return m.showInfo
}

func (m HomeModel) busy() bool {
	return m.stager.Pending() || m.controller.State().Status == submission.InFlight
}

// Resize updates the available space.
func (m *HomeModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// Close abandons the pending decode and any request in flight.
func (m HomeModel) Close() {
	m.stager.Close()
	m.controller.Close()
}

// View renders the screen.
func (m HomeModel) View() string {
	if m.showInfo {
		return renderReference(m.theme, m.dialogWidth())
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Skin Lesion Analysis"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("Upload a photo of the skin lesion to classify it."))
	b.WriteString("\n")

	b.WriteString(m.theme.Label.Render("Image"))
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	staged := m.stager.Staged()
	state := m.controller.State()
	switch {
	case m.pickErr != "":
		b.WriteString(m.theme.StatusError.Render(m.pickErr))
		b.WriteString("\n\n")
	case staged.Err != nil:
		b.WriteString(m.theme.StatusError.Render(stager.Message(staged.Err)))
		b.WriteString("\n\n")
	case m.stager.Pending():
		b.WriteString(m.spinner.View() + " " + m.theme.StatusPending.Render("Loading preview..."))
		b.WriteString("\n\n")
	case staged.Preview != nil:
		b.WriteString(m.renderPreview(staged))
		b.WriteString("\n\n")
	}

	if state.Status == submission.Failed {
		b.WriteString(m.theme.StatusError.Render(state.Reason))
		b.WriteString("\n\n")
	}

	switch {
	case state.Status == submission.InFlight:
		b.WriteString(m.spinner.View() + " " + m.theme.StatusPending.Render("Analyzing..."))
	case m.CanAnalyze():
		b.WriteString(m.theme.Button.Render("Analyze"))
	default:
		b.WriteString(m.theme.ButtonDisabled.Render("Analyze"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return m.theme.RoundedBox.Render(b.String())
}

func (m HomeModel) renderPreview(staged stager.StagedImage) string {
	p := staged.Preview
	meta := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Bold.Render(staged.Name),
		m.theme.Faint.Render(staged.MIMEType),
		m.theme.Faint.Render(dimensions(p.Width, p.Height)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, RenderThumbnail(p.Thumbnail), "  ", meta)
}

func (m HomeModel) dialogWidth() int {
	if m.width <= 0 {
		return 0
	}
	return max(20, m.width-8)
}
