package components

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/stager"
	tuitest "github.com/Veraticus/skinscope/internal/tui/testing"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

func newResult(label string, conf *float64) ResultModel {
	res := handoff.New(
		stager.Preview{Thumbnail: image.NewRGBA(image.Rect(0, 0, 4, 4)), DataURI: "data:image/png;base64,AA==", Width: 4, Height: 4},
		predict.Prediction{Label: label, Confidence: conf},
	)
	return NewResultModel(&fakeAuth{}, res, themes.Default)
}

func TestResultModel_View(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		confidence *float64
		want       []string
		notWant    []string
		known      bool
	}{
		{
			name:       "known label with confidence",
			label:      "melanoma",
			confidence: confidence(0.87),
			want:       []string{"Melanoma", "87.00%", "Risk level: Critical"},
			known:      true,
		},
		{
			name:    "known label without confidence",
			label:   "basal_cell_carcinoma",
			want:    []string{"Basal Cell Carcinoma", "Risk level: High"},
			notWant: []string{"Confidence", "%"},
			known:   true,
		},
		{
			name:       "unknown label renders bare",
			label:      "mystery_spot",
			confidence: confidence(0.5),
			want:       []string{"Mystery Spot", "50.00%"},
			notWant:    []string{"Risk level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newResult(tt.label, tt.confidence)
			assert.Equal(t, tt.known, m.Known())

			view := plain(m.View())
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}

func TestResultModel_InfoDialog(t *testing.T) {
	m := newResult("melanoma", confidence(0.87))

	m, _ = m.Update(tuitest.KeyCtrl("t"))
	require.True(t, m.ShowingInfo())
	view := plain(m.View())
	assert.Contains(t, view, "Early detection is crucial")
	assert.Contains(t, view, "immunotherapy")

	m, cmd := m.Update(tuitest.KeyEsc())
	assert.Nil(t, cmd)
	assert.False(t, m.ShowingInfo())

	// No dialog for labels outside the reference table.
	unknown := newResult("mystery_spot", nil)
	unknown, _ = unknown.Update(tuitest.KeyCtrl("t"))
	assert.False(t, unknown.ShowingInfo())
}

func TestResultModel_BackAndLogout(t *testing.T) {
	m := newResult("melanoma", nil)

	_, cmd := m.Update(tuitest.KeyEsc())
	assert.Equal(t, nav.Home, await[NavigateMsg](t, cmd).Route)

	_, cmd = m.Update(tuitest.KeyCtrl("o"))
	assert.Equal(t, nav.SignIn, await[NavigateMsg](t, cmd).Route)
}
