package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/submission"
	tuitest "github.com/Veraticus/skinscope/internal/tui/testing"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

func newHome(auth Authenticator, p submission.Predictor) HomeModel {
	return NewHomeModel(auth, p, themes.Default, 8)
}

// pick types path into the file input and presses enter, running the decode
// when one is started.
func pick(t *testing.T, m HomeModel, path string) HomeModel {
	t.Helper()
	m.input.SetValue(path)
	m, cmd := m.Update(tuitest.KeyEnter())
	if cmd == nil {
		return m
	}
	m, _ = m.Update(await[DecodedMsg](t, cmd))
	return m
}

func TestHomeModel_RejectThenAcceptImage(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "report.pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"))
	pngPath := writePNG(t, dir, "lesion.png")

	m := newHome(&fakeAuth{}, &fakePredictor{})

	m = pick(t, m, pdf)
	staged := m.Staged()
	require.Error(t, staged.Err)
	assert.Nil(t, staged.Preview)
	assert.False(t, m.CanAnalyze())
	assert.Contains(t, plain(m.View()), "Please upload an image file")

	m = pick(t, m, pngPath)
	staged = m.Staged()
	require.NoError(t, staged.Err)
	require.NotNil(t, staged.Preview)
	assert.True(t, strings.HasPrefix(staged.Preview.DataURI, "data:image/png;base64,"))
	assert.True(t, m.CanAnalyze())

	view := plain(m.View())
	assert.NotContains(t, view, "Please upload an image file")
	assert.Contains(t, view, "lesion.png")
	assert.Contains(t, view, "8x6 px")
}

func TestHomeModel_UnreadableImage(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.png", []byte("not really a png"))

	m := pick(t, newHome(&fakeAuth{}, &fakePredictor{}), broken)
	assert.Contains(t, plain(m.View()), "Error reading file")
	assert.NotContains(t, plain(m.View()), "Please upload an image file")
	assert.False(t, m.CanAnalyze())
}

func TestHomeModel_MissingFile(t *testing.T) {
	m := pick(t, newHome(&fakeAuth{}, &fakePredictor{}), "/does/not/exist.png")
	assert.Contains(t, plain(m.View()), "Error reading file")
	assert.False(t, m.CanAnalyze())
}

func TestHomeModel_AnalyzeSuccess(t *testing.T) {
	p := &fakePredictor{prediction: predict.Prediction{Label: "melanoma", Confidence: confidence(0.87)}}
	m := pick(t, newHome(&fakeAuth{}, p), writePNG(t, t.TempDir(), "lesion.png"))
	require.True(t, m.CanAnalyze())

	m, cmd := m.Update(tuitest.KeyCtrl("s"))
	require.NotNil(t, cmd)
	assert.Equal(t, submission.InFlight, m.Submission().Status)
	assert.False(t, m.CanAnalyze())
	assert.Contains(t, plain(m.View()), "Analyzing...")

	// A second press while the first request is out does nothing.
	m, again := m.Update(tuitest.KeyCtrl("s"))
	assert.Nil(t, again)

	predicted := await[PredictedMsg](t, cmd)
	assert.Equal(t, 1, p.Uploads())

	m, cmd = m.Update(predicted)
	assert.Equal(t, submission.Succeeded, m.Submission().Status)

	navMsg := await[NavigateMsg](t, cmd)
	assert.Equal(t, nav.Result, navMsg.Route)
	res, ok := handoff.From(navMsg.Payload)
	require.True(t, ok)
	assert.Equal(t, "melanoma", res.Prediction.Label)
	require.NotNil(t, res.Prediction.Confidence)
	assert.Equal(t, 0.87, *res.Prediction.Confidence)
	assert.NotEmpty(t, res.Preview.DataURI)
}

func TestHomeModel_AnalyzeFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "service message",
			err:  &predict.ServiceError{Message: "model unavailable"},
			want: "model unavailable",
		},
		{
			name: "bad status",
			err:  &predict.TransportError{Status: 502, Err: errors.New("bad gateway")},
			want: "Prediction failed",
		},
		{
			name: "unknown error",
			err:  errors.New("boom"),
			want: submission.GenericReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePredictor{err: tt.err}
			m := pick(t, newHome(&fakeAuth{}, p), writePNG(t, t.TempDir(), "lesion.png"))

			m, cmd := m.Update(tuitest.KeyCtrl("s"))
			m, cmd = m.Update(await[PredictedMsg](t, cmd))
			assert.Nil(t, cmd)

			assert.Equal(t, submission.State{Status: submission.Failed, Reason: tt.want}, m.Submission())
			assert.Contains(t, plain(m.View()), tt.want)

			// The image stays staged and the user may try again.
			assert.NotNil(t, m.Staged().Preview)
			assert.True(t, m.CanAnalyze())
		})
	}
}

func TestHomeModel_ClearAndDialog(t *testing.T) {
	m := pick(t, newHome(&fakeAuth{}, &fakePredictor{}), writePNG(t, t.TempDir(), "lesion.png"))
	require.True(t, m.CanAnalyze())

	m, _ = m.Update(tuitest.KeyCtrl("t"))
	require.True(t, m.ShowingInfo())
	view := plain(m.View())
	assert.Contains(t, view, "Skin Condition Reference")
	assert.Contains(t, view, "Basal Cell Carcinoma")
	assert.Contains(t, view, "Vascular Lesion")

	// Esc closes the dialog without touching the selection.
	m, _ = m.Update(tuitest.KeyEsc())
	assert.False(t, m.ShowingInfo())
	assert.True(t, m.CanAnalyze())

	m, _ = m.Update(tuitest.KeyEsc())
	assert.True(t, m.Staged().Empty())
	assert.False(t, m.CanAnalyze())
}

func TestHomeModel_Logout(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "sign out works"},
		{name: "sign out fails", err: errors.New("store locked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{signOutErr: tt.err}
			m := newHome(auth, &fakePredictor{})

			_, cmd := m.Update(tuitest.KeyCtrl("o"))
			assert.Equal(t, nav.SignIn, await[NavigateMsg](t, cmd).Route)
			assert.Equal(t, []string{"signout"}, auth.Calls())
		})
	}
}

func TestHomeModel_CloseAbandonsWork(t *testing.T) {
	p := &fakePredictor{prediction: predict.Prediction{Label: "melanoma"}}
	m := pick(t, newHome(&fakeAuth{}, p), writePNG(t, t.TempDir(), "lesion.png"))

	m, cmd := m.Update(tuitest.KeyCtrl("s"))
	predicted := await[PredictedMsg](t, cmd)

	m.Close()
	assert.True(t, m.Staged().Empty())

	_, cmd = m.Update(predicted)
	assert.Nil(t, cmd)
}
