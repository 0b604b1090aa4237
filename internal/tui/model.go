// Package tui is the interactive client: a router that gates protected
// screens on the session watcher and mounts one screen at a time.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/session"
	"github.com/Veraticus/skinscope/internal/tui/components"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

// Model holds the router state.
type Model struct {
	theme     themes.Theme
	payload   any
	watcher   *session.Watcher
	updates   <-chan session.State
	stop      func()
	signIn    components.SignInModel
	signUp    components.SignUpModel
	home      components.HomeModel
	result    components.ResultModel
	config    Config
	keymap    KeyMap
	spinner   spinner.Model
	route     nav.Route
	mounted   nav.Route
	seq       uint64
	width     int
	height    int
	splashing bool
	loading   bool
	quitting  bool
}

// New creates the router. The watcher must be activated by the caller.
func New(watcher *session.Watcher, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	updates, stop := watcher.Observe()
	return Model{
		theme:     cfg.Theme,
		watcher:   watcher,
		updates:   updates,
		stop:      stop,
		config:    cfg,
		keymap:    DefaultKeyMap(),
		spinner:   s,
		route:     nav.Resolve(string(cfg.InitialRoute)),
		width:     cfg.Width,
		height:    cfg.Height,
		splashing: true,
	}
}

// Init starts the splash timer and listens for session changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(splash(m.config.Splash), waitForSession(m.updates))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit):
			m.shutdown()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Reload):
			if m.splashing {
				return m, nil
			}
			slog.Debug("Reloading route", "route", m.route)
			m.unmount()
			m.payload = nil
			return m, m.reconcile()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case splashDoneMsg:
		m.splashing = false
		return m, m.reconcile()

	case sessionChangedMsg:
		slog.Debug("Router saw session change", "status", msg.state.Status, "route", m.route)
		return m, tea.Batch(m.reconcile(), waitForSession(m.updates))

	case scopedMsg:
		if msg.seq != m.seq || m.mounted == "" {
			slog.Debug("Dropped message for unmounted screen", "seq", msg.seq, "current", m.seq)
			return m, nil
		}
		if nm, ok := msg.msg.(components.NavigateMsg); ok {
			return m, m.navigate(nm)
		}
		return m.forward(msg.msg)

	case components.NavigateMsg:
		return m, m.navigate(msg)

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.splashing || m.loading || m.mounted == "" {
		return m, nil
	}
	return m.forward(msg)
}

// navigate switches to a new route. The payload is kept only until the next
// screen is mounted.
func (m *Model) navigate(msg components.NavigateMsg) tea.Cmd {
	m.route = nav.Resolve(string(msg.Route))
	m.payload = msg.Payload
	slog.Debug("Navigating", "route", m.route, "payload", msg.Payload != nil)
	if m.splashing {
		return nil
	}
	m.unmount()
	return m.reconcile()
}

// reconcile brings the mounted screen in line with the requested route and
// the current session status.
func (m *Model) reconcile() tea.Cmd {
	if m.splashing || m.quitting {
		return nil
	}

	d := nav.Decide(m.route, m.watcher.State().Status)
	switch d.Action {
	case nav.Loading:
		m.unmount()
		if m.loading {
			return nil
		}
		m.loading = true
		return m.spinner.Tick
	case nav.Redirect:
		slog.Debug("Redirecting", "from", m.route, "to", d.Target)
		m.route = d.Target
		m.payload = nil
		d = nav.Decide(m.route, m.watcher.State().Status)
	}

	m.loading = false
	if m.route == m.mounted {
		return nil
	}
	return m.mount(d.Target)
}

// mount replaces the current screen with a fresh one for r.
func (m *Model) mount(r nav.Route) tea.Cmd {
	m.unmount()
	m.seq++

	var cmd tea.Cmd
	switch r {
	case nav.SignUp:
		m.signUp = components.NewSignUpModel(m.config.Auth, m.theme, m.config.SignUpRedirect)
		m.signUp.Resize(m.width, m.height)
		cmd = m.signUp.Init()
	case nav.Home:
		m.home = components.NewHomeModel(m.config.Auth, m.config.Predictor, m.theme, m.config.PreviewWidth)
		m.home.Resize(m.width, m.height)
		cmd = m.home.Init()
	case nav.Result:
		res, ok := handoff.From(m.payload)
		if !ok {
			slog.Debug("No result to show, returning home")
			m.route = nav.Home
			m.payload = nil
			return m.mount(nav.Home)
		}
		m.result = components.NewResultModel(m.config.Auth, res, m.theme)
		m.result.Resize(m.width, m.height)
		cmd = m.result.Init()
	default:
		r = nav.SignIn
		m.signIn = components.NewSignInModel(m.config.Auth, m.theme)
		m.signIn.Resize(m.width, m.height)
		cmd = m.signIn.Init()
	}

	m.route = r
	m.mounted = r
	m.payload = nil
	return scope(m.seq, cmd)
}

// unmount closes the current screen. Anything it still has in flight is
// dropped when it comes back.
func (m *Model) unmount() {
	switch m.mounted {
	case nav.SignIn:
		m.signIn.Close()
		m.signIn = components.SignInModel{}
	case nav.SignUp:
		m.signUp.Close()
		m.signUp = components.SignUpModel{}
	case nav.Home:
		m.home.Close()
		m.home = components.HomeModel{}
	case nav.Result:
		m.result.Close()
		m.result = components.ResultModel{}
	}
	m.mounted = ""
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mounted {
	case nav.SignIn:
		m.signIn, cmd = m.signIn.Update(msg)
	case nav.SignUp:
		m.signUp, cmd = m.signUp.Update(msg)
	case nav.Home:
		m.home, cmd = m.home.Update(msg)
	case nav.Result:
		m.result, cmd = m.result.Update(msg)
	}
	return m, scope(m.seq, cmd)
}

func (m *Model) resize() {
	switch m.mounted {
	case nav.SignIn:
		m.signIn.Resize(m.width, m.height)
	case nav.SignUp:
		m.signUp.Resize(m.width, m.height)
	case nav.Home:
		m.home.Resize(m.width, m.height)
	case nav.Result:
		m.result.Resize(m.width, m.height)
	}
}

// shutdown unmounts the screen and stops listening for session changes.
func (m *Model) shutdown() {
	m.unmount()
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// Route returns the requested route.
func (m Model) Route() nav.Route {
	return m.route
}

// Mounted returns the route whose screen is showing, or "" when none is.
func (m Model) Mounted() nav.Route {
	return m.mounted
}

// Loading reports whether the guard is waiting for the first session state.
func (m Model) Loading() bool {
	return m.loading
}
