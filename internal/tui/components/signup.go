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

	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// DefaultSignUpRedirect is how long the success notice stays up before the
// form moves on to sign-in.
const DefaultSignUpRedirect = 2 * time.Second

const (
	signUpEmail = iota
	signUpPassword
	signUpConfirm
)

// SignUpModel is the account creation form.
type SignUpModel struct {
	auth       Authenticator
	theme      themes.Theme
	keys       formKeys
	help       help.Model
	spinner    spinner.Model
	err        string
	notice     string
	inputs     []textinput.Model
	fields     formFields
	redirect   time.Duration
	width      int
	height     int
	submitting bool
}

// NewSignUpModel creates the sign-up form. A non-positive redirect uses
// DefaultSignUpRedirect.
func NewSignUpModel(auth Authenticator, theme themes.Theme, redirect time.Duration) SignUpModel {
	if redirect <= 0 {
		redirect = DefaultSignUpRedirect
	}
	m := SignUpModel{
		auth:     auth,
		theme:    theme,
		keys:     newFormKeys("sign in"),
		help:     help.New(),
		spinner:  newSpinner(theme),
		redirect: redirect,
		inputs: []textinput.Model{
			newInput("you@example.com", false),
			newInput("at least 6 characters", true),
			newInput("repeat password", true),
		},
		fields: formFields{count: 3},
	}
	m.inputs[signUpEmail].Focus()
	return m
}

// Init returns initial commands.
func (m SignUpModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m SignUpModel) Update(msg tea.Msg) (SignUpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting || m.notice != "" {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Switch):
			return m, Navigate(nav.SignIn, nil)
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

	case SignUpDoneMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = identity.Message(msg.Err)
			return m, nil
		}
		m.notice = "Registration successful! Please sign in."
		return m, tea.Tick(m.redirect, func(time.Time) tea.Msg {
			return SignUpRedirectMsg{}
		})

	case SignUpRedirectMsg:
		return m, Navigate(nav.SignIn, nil)

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

func (m *SignUpModel) refocus() tea.Cmd {
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

func (m SignUpModel) submit() (SignUpModel, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[signUpEmail].Value())
	password := m.inputs[signUpPassword].Value()
	confirm := m.inputs[signUpConfirm].Value()

	switch {
	case email == "" || password == "":
		m.err = "Please enter your email and password"
		return m, nil
	case password != confirm:
		m.err = "Passwords do not match"
		return m, nil
	}

	m.err = ""
	m.submitting = true
	auth := m.auth
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		return SignUpDoneMsg{Err: auth.SignUp(ctx, email, password)}
	})
}

// Submitting reports whether account creation is in progress.
func (m SignUpModel) Submitting() bool {
	return m.submitting
}

// Err returns the error currently shown, if any.
func (m SignUpModel) Err() string {
	return m.err
}

// Notice returns the success notice, if any.
func (m SignUpModel) Notice() string {
	return m.notice
}

// Resize updates the available space.
func (m *SignUpModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// Close is a no-op. A pending redirect tick is dropped by the router once
// this screen is gone.
func (m SignUpModel) Close() {}

// View renders the form.
func (m SignUpModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Create Account"))
	b.WriteString("\n")
	switch {
	case m.notice != "":
		b.WriteString(m.theme.StatusSuccess.Render(m.notice))
		b.WriteString("\n\n")
	case m.err != "":
		b.WriteString(m.theme.StatusError.Render(m.err))
		b.WriteString("\n\n")
	}

	labels := []string{"Email Address", "Password", "Confirm Password"}
	for i, in := range m.inputs {
		b.WriteString(m.theme.Label.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.submitting {
		b.WriteString(m.spinner.View() + " " + m.theme.StatusPending.Render("Creating account..."))
	} else {
		b.WriteString(m.theme.Button.Render("Sign Up"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.Faint.Render("Already have an account? ") + m.theme.Link.Render("Sign In"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return m.theme.RoundedBox.Render(b.String())
}
