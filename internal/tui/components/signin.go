package components

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// authTimeout bounds a single identity provider call.
const authTimeout = 30 * time.Second

type formKeys struct {
	Submit key.Binding
	Next   key.Binding
	Prev   key.Binding
	Switch key.Binding
}

func newFormKeys(switchHelp string) formKeys {
	return formKeys{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "next/submit"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab", "previous field"),
		),
		Switch: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("Ctrl+N", switchHelp),
		),
	}
}

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Switch}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.Next, k.Prev, k.Switch}}
}

func newInput(placeholder string, password bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 254
	in.Width = 40
	if password {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
		in.CharLimit = 128
	}
	return in
}

func newSpinner(theme themes.Theme) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return s
}

// SignInModel is the sign-in form.
type SignInModel struct {
	auth       Authenticator
	theme      themes.Theme
	keys       formKeys
	help       help.Model
	spinner    spinner.Model
	err        string
	inputs     []textinput.Model
	fields     formFields
	width      int
	height     int
	submitting bool
}

// NewSignInModel creates the sign-in form.
func NewSignInModel(auth Authenticator, theme themes.Theme) SignInModel {
	m := SignInModel{
		auth:    auth,
		theme:   theme,
		keys:    newFormKeys("sign up"),
		help:    help.New(),
		spinner: newSpinner(theme),
		inputs: []textinput.Model{
			newInput("you@example.com", false),
			newInput("password", true),
		},
		fields: formFields{count: 2},
	}
	m.inputs[0].Focus()
	return m
}

// Init returns initial commands.
func (m SignInModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m SignInModel) Update(msg tea.Msg) (SignInModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Switch):
			return m, Navigate(nav.SignUp, nil)
		case key.Matches(msg, m.keys.Next):
			m.fields.next()
			return m, m.refocus()
		case key.Matches(msg, m.keys.Prev):
			m.fields.prev()
			return m, m.refocus()
		case key.Matches(msg, m.keys.Submit):
			if !m.fields.last() {
				m.fields.next()
				return m, m.refocus()
			}
			return m.submit()
		}

	case SignInDoneMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = identity.Message(msg.Err)
			return m, nil
		}
		return m, Navigate(nav.Home, nil)

	case spinner.TickMsg:
		if m.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.fields.focus], cmd = m.inputs[m.fields.focus].Update(msg)
	return m, cmd
}

func (m *SignInModel) refocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.fields.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m SignInModel) submit() (SignInModel, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[0].Value())
	password := m.inputs[1].Value()
	if email == "" || password == "" {
		m.err = "Please enter your email and password"
		return m, nil
	}

	m.err = ""
	m.submitting = true
	auth := m.auth
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		_, err := auth.SignIn(ctx, email, password)
		return SignInDoneMsg{Err: err}
	})
}

// Submitting reports whether a sign-in is in progress.
func (m SignInModel) Submitting() bool {
	return m.submitting
}

// Err returns the message currently shown, if any.
func (m SignInModel) Err() string {
	return m.err
}

// Resize updates the available space.
func (m *SignInModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// Close releases nothing; the form has no background work to cancel.
func (m SignInModel) Close() {}

// View renders the form.
func (m SignInModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Sign In"))
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(m.theme.StatusError.Render(m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(m.theme.Label.Render("Email Address"))
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n")
	b.WriteString(m.theme.Label.Render("Password"))
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n\n")

	if m.submitting {
		b.WriteString(m.spinner.View() + " " + m.theme.StatusPending.Render("Signing in..."))
	} else {
		b.WriteString(m.theme.Button.Render("Sign In"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.Faint.Render("Don't have an account? ") + m.theme.Link.Render("Sign Up"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return m.theme.RoundedBox.Render(b.String())
}
