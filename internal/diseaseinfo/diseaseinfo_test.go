package diseaseinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{label: "basal_cell_carcinoma", want: "basal cell carcinoma"},
		{label: "Melanoma", want: "melanoma"},
		{label: "VASCULAR_LESION ", want: "vascular lesion"},
		{label: "actinic keratosis", want: "actinic keratosis"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.label))
		})
	}
}

func TestLookup(t *testing.T) {
	entry, ok := Lookup("basal_cell_carcinoma")
	require.True(t, ok)
	assert.Equal(t, "Basal Cell Carcinoma", entry.Title)
	assert.Equal(t, SeverityError, entry.Severity)

	entry, ok = Lookup("melanocytic_nevi")
	require.True(t, ok)
	assert.Equal(t, "Low", entry.RiskLevel)

	entry, ok = Lookup("nevus")
	require.True(t, ok)
	assert.Equal(t, SeveritySuccess, entry.Severity)
	assert.Empty(t, entry.Treatment)

	_, ok = Lookup("seborrheic_keratosis")
	assert.False(t, ok)
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		label string
		want  Severity
	}{
		{label: "melanoma", want: SeverityError},
		{label: "basal_cell_carcinoma", want: SeverityError},
		{label: "actinic_keratosis", want: SeverityWarning},
		{label: "dermatofibroma", want: SeveritySuccess},
		{label: "vascular_lesion", want: SeverityInfo},
		{label: "something_new", want: SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityFor(tt.label))
		})
	}
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "Basal Cell Carcinoma", FormatLabel("basal_cell_carcinoma"))
	assert.Equal(t, "Melanoma", FormatLabel("melanoma"))
	assert.Equal(t, "Pigmented Benign Keratosis", FormatLabel("pigmented_benign_keratosis"))
	assert.Equal(t, "A  B", FormatLabel("a__b"))
	assert.Equal(t, "", FormatLabel(""))
}

func TestEntriesIsACopy(t *testing.T) {
	all := Entries()
	require.Len(t, all, 8)
	all[0].Title = "changed"

	again := Entries()
	assert.Equal(t, "Actinic Keratosis", again[0].Title)
}
