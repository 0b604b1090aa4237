package tui

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/session"
	"github.com/Veraticus/skinscope/internal/stager"
	"github.com/Veraticus/skinscope/internal/tui/components"
	tuitest "github.com/Veraticus/skinscope/internal/tui/testing"
)

const cmdTimeout = 2 * time.Second

// hubAuth signs in and out by publishing to a hub, the way real providers do.
type hubAuth struct {
	hub *identity.Hub
}

func (a *hubAuth) SignUp(context.Context, string, string) error {
	return nil
}

func (a *hubAuth) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	s := &identity.Session{UserID: "u1", Email: email, ExpiresAt: time.Now().Add(time.Hour)}
	a.hub.Publish(s)
	return s, nil
}

func (a *hubAuth) SignOut(context.Context) error {
	a.hub.Publish(nil)
	return nil
}

type harness struct {
	hub     *identity.Hub
	watcher *session.Watcher
	model   Model
}

func newHarness(t *testing.T, route string, opts ...Option) *harness {
	t.Helper()
	hub := identity.NewHub()
	watcher := session.NewWatcher(hub)
	watcher.Activate()
	t.Cleanup(watcher.Deactivate)

	opts = append([]Option{
		WithSplash(0),
		WithAuthenticator(&hubAuth{hub: hub}),
		WithInitialRoute(route),
		WithSignUpRedirect(time.Millisecond),
	}, opts...)

	h := &harness{hub: hub, watcher: watcher, model: New(watcher, opts...)}
	h.update(splashDoneMsg{})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

// ready restores the session the way a provider does after start-up and
// lets the router see it.
func (h *harness) ready(s *identity.Session) tea.Cmd {
	h.hub.SetReady(s)
	return h.update(sessionChangedMsg{state: h.watcher.State()})
}

func (h *harness) publish(s *identity.Session) tea.Cmd {
	h.hub.Publish(s)
	return h.update(sessionChangedMsg{state: h.watcher.State()})
}

func (h *harness) typeText(text string) {
	h.model = tuitest.NewInputSequence().Type(text).Apply(h.model).(Model)
}

// deliver runs cmd and feeds the router the scoped message of type T it produced.
func deliver[T any](t *testing.T, h *harness, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	for _, msg := range tuitest.Collect(cmd, cmdTimeout) {
		s, ok := msg.(scopedMsg)
		if !ok {
			continue
		}
		if _, ok := s.msg.(T); ok {
			return h.update(s)
		}
	}
	var zero T
	t.Fatalf("command produced no %T", zero)
	return nil
}

func signedIn() *identity.Session {
	return &identity.Session{UserID: "u1", Email: "ana@example.com", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestModel_GuardWaitsForFirstSessionState(t *testing.T) {
	h := newHarness(t, "/home")

	assert.True(t, h.model.Loading())
	assert.Empty(t, h.model.Mounted())
	view := tuitest.Plain(h.model.View())
	assert.Contains(t, view, "Checking your session...")
	assert.NotContains(t, view, "Skin Lesion Analysis")
	assert.NotContains(t, view, "Sign In")

	// Keys do nothing while the guard is waiting.
	assert.Nil(t, h.update(tuitest.KeyEnter()))

	h.ready(signedIn())
	assert.False(t, h.model.Loading())
	assert.Equal(t, nav.Home, h.model.Mounted())
	assert.Contains(t, tuitest.Plain(h.model.View()), "Skin Lesion Analysis")
}

func TestModel_SplashComesFirst(t *testing.T) {
	hub := identity.NewHub()
	watcher := session.NewWatcher(hub)
	watcher.Activate()
	t.Cleanup(watcher.Deactivate)
	hub.SetReady(nil)

	m := New(watcher, WithAuthenticator(&hubAuth{hub: hub}), WithSplash(time.Hour))
	t.Cleanup(m.shutdown)
	assert.Contains(t, tuitest.Plain(m.View()), "SkinScope")
	assert.Empty(t, m.Mounted())

	next, _ := m.Update(splashDoneMsg{})
	m = next.(Model)
	assert.NotContains(t, tuitest.Plain(m.View()), "Skin lesion screening")
	assert.Equal(t, nav.SignIn, m.Mounted())
}

func TestModel_Redirects(t *testing.T) {
	tests := []struct {
		session     *identity.Session
		name        string
		route       string
		wantMounted nav.Route
	}{
		{name: "absent on protected route", route: "/home", wantMounted: nav.SignIn},
		{name: "absent on result", route: "/result", wantMounted: nav.SignIn},
		{name: "root goes to sign in", route: "/", session: signedIn(), wantMounted: nav.SignIn},
		{name: "unknown route goes to sign in", route: "/nowhere", wantMounted: nav.SignIn},
		{name: "sign up is public", route: "/signup", wantMounted: nav.SignUp},
		{name: "result without handoff goes home", route: "/result", session: signedIn(), wantMounted: nav.Home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.route)
			h.ready(tt.session)
			assert.Equal(t, tt.wantMounted, h.model.Mounted())
			assert.Equal(t, tt.wantMounted, h.model.Route())
		})
	}
}

func TestModel_PublicRouteRendersWhileDetermining(t *testing.T) {
	h := newHarness(t, "/signin")
	assert.False(t, h.model.Loading())
	assert.Equal(t, nav.SignIn, h.model.Mounted())
}

func TestModel_SessionLossUnmountsProtectedScreen(t *testing.T) {
	h := newHarness(t, "/home")
	h.ready(signedIn())
	require.Equal(t, nav.Home, h.model.Mounted())

	h.publish(nil)
	assert.Equal(t, nav.SignIn, h.model.Mounted())
	assert.NotContains(t, tuitest.Plain(h.model.View()), "Skin Lesion Analysis")
}

func TestModel_SignInFlow(t *testing.T) {
	h := newHarness(t, "/home")
	h.ready(nil)
	require.Equal(t, nav.SignIn, h.model.Mounted())

	h.typeText("ana@example.com")
	h.update(tuitest.KeyTab())
	h.typeText("secret1")
	cmd := h.update(tuitest.KeyEnter())

	// The provider has already published the session when the navigation
	// arrives, so home renders without a detour through the loading screen.
	cmd = deliver[components.SignInDoneMsg](t, h, cmd)
	deliver[components.NavigateMsg](t, h, cmd)
	assert.Equal(t, nav.Home, h.model.Mounted())
	assert.False(t, h.model.Loading())
}

func TestModel_DropsMessagesFromUnmountedScreens(t *testing.T) {
	h := newHarness(t, "/home")
	h.ready(signedIn())
	stale := h.model.seq

	res := handoff.New(stager.Preview{}, predict.Prediction{Label: "melanoma"})
	h.update(components.NavigateMsg{Route: nav.Result, Payload: res})
	require.Equal(t, nav.Result, h.model.Mounted())
	require.NotEqual(t, stale, h.model.seq)

	cmd := h.update(scopedMsg{seq: stale, msg: components.NavigateMsg{Route: nav.SignUp}})
	assert.Nil(t, cmd)
	assert.Equal(t, nav.Result, h.model.Mounted())
}

func TestModel_ReloadDropsHandoff(t *testing.T) {
	h := newHarness(t, "/home")
	h.ready(signedIn())

	res := handoff.New(stager.Preview{}, predict.Prediction{Label: "melanoma"})
	h.update(components.NavigateMsg{Route: nav.Result, Payload: res})
	require.Equal(t, nav.Result, h.model.Mounted())

	h.update(tuitest.KeyCtrl("r"))
	assert.Equal(t, nav.Home, h.model.Mounted())
}

func TestModel_ObservesWatcher(t *testing.T) {
	h := newHarness(t, "/home")
	h.hub.SetReady(signedIn())

	msg, ok := tuitest.Find[sessionChangedMsg](tuitest.Collect(waitForSession(h.model.updates), cmdTimeout))
	require.True(t, ok)
	assert.Equal(t, session.Present, msg.state.Status)
}

func TestModel_QuitStopsObserving(t *testing.T) {
	h := newHarness(t, "/home")
	h.ready(signedIn())

	cmd := h.update(tuitest.KeyCtrl("c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.model.Mounted())
	assert.Empty(t, h.model.View())

	done := make(chan struct{})
	go func() {
		for range h.model.updates {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cmdTimeout):
		t.Fatal("session updates still open after quit")
	}
}

func TestModel_AnalyzeEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = file.Close()
		if header.Header.Get("Content-Type") != "image/png" {
			http.Error(w, "wrong type", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"predicted_class": "melanoma", "confidence": 0.87})
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n"), 0o600))
	pngPath := writePNG(t, dir)

	h := newHarness(t, "/home", WithPredictor(predict.New(srv.URL)), WithPreviewWidth(8))
	h.ready(signedIn())

	h.typeText(pdf)
	assert.Nil(t, h.update(tuitest.KeyEnter()))
	assert.Contains(t, tuitest.Plain(h.model.View()), "Please upload an image file")

	h.update(tuitest.KeyEsc())
	h.typeText(pngPath)
	deliver[components.DecodedMsg](t, h, h.update(tuitest.KeyEnter()))
	assert.NotContains(t, tuitest.Plain(h.model.View()), "Please upload an image file")

	cmd := deliver[components.PredictedMsg](t, h, h.update(tuitest.KeyCtrl("s")))
	deliver[components.NavigateMsg](t, h, cmd)

	require.Equal(t, nav.Result, h.model.Mounted())
	view := tuitest.Plain(h.model.View())
	assert.Contains(t, view, "Melanoma")
	assert.Contains(t, view, "87.00%")

	deliver[components.NavigateMsg](t, h, h.update(tuitest.KeyEsc()))
	assert.Equal(t, nav.Home, h.model.Mounted())
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 150, G: 90, B: 70, A: 255})
		}
	}
	path := filepath.Join(dir, "lesion.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}
