package components

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/predict"
	tuitest "github.com/Veraticus/skinscope/internal/tui/testing"
)

const cmdTimeout = 2 * time.Second

type fakeAuth struct {
	signInErr  error
	signUpErr  error
	signOutErr error
	calls      []string
	mu         sync.Mutex
}

func (f *fakeAuth) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAuth) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAuth) SignUp(_ context.Context, email, _ string) error {
	f.record("signup:" + email)
	return f.signUpErr
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	f.record("signin:" + email)
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &identity.Session{UserID: "u1", Email: email}, nil
}

func (f *fakeAuth) SignOut(_ context.Context) error {
	f.record("signout")
	return f.signOutErr
}

type fakePredictor struct {
	err        error
	prediction predict.Prediction
	uploads    []predict.Upload
	mu         sync.Mutex
}

func (f *fakePredictor) Predict(_ context.Context, up predict.Upload) (predict.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, up)
	return f.prediction, f.err
}

func (f *fakePredictor) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func confidence(v float64) *float64 {
	return &v
}

// writePNG writes a small solid image and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 90, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// await runs cmd and returns the first message of type T it produces.
func await[T any](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := tuitest.Find[T](tuitest.Collect(cmd, cmdTimeout))
	require.True(t, ok, "command did not produce %T", msg)
	return msg
}

func plain(view string) string {
	return tuitest.Plain(view)
}
