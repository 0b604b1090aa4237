// Package diseaseinfo holds the static reference table for predicted lesion classes.
package diseaseinfo

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Disclaimer accompanies every displayed prediction.
const Disclaimer = "This result is not a diagnosis. Consult a dermatologist."

// Severity tags how alarming a class is.
type Severity string

// Severity values.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Entry describes one lesion class.
type Entry struct {
	Key         string
	Title       string
	Description string
	Severity    Severity
	Risk        string
	RiskLevel   string
	Treatment   string
}

// entries is ordered for display.
var entries = []Entry{
	{
		Key:         "actinic keratosis",
		Title:       "Actinic Keratosis",
		Description: "A pre-cancerous growth that may develop into squamous cell carcinoma if left untreated.",
		Severity:    SeverityWarning,
		Risk:        "15-20%",
		RiskLevel:   "Moderate",
		Treatment:   "Cryotherapy, topical medications, or surgical removal",
	},
	{
		Key:         "basal cell carcinoma",
		Title:       "Basal Cell Carcinoma",
		Description: "The most common type of skin cancer. It rarely spreads to other parts of the body but should be treated promptly.",
		Severity:    SeverityError,
		Risk:        "High",
		RiskLevel:   "High",
		Treatment:   "Surgical removal, radiation therapy, or topical medications",
	},
	{
		Key:         "pigmented benign keratosis",
		Title:       "Pigmented Benign Keratosis",
		Description: "A harmless growth that appears as a waxy, scaly, slightly elevated growth on the skin.",
		Severity:    SeverityInfo,
		Risk:        "0%",
		RiskLevel:   "None",
		Treatment:   "Usually no treatment needed, can be removed for cosmetic reasons",
	},
	{
		Key:         "dermatofibroma",
		Title:       "Dermatofibroma",
		Description: "A common, harmless growth that often appears as a hard, raised bump on the skin.",
		Severity:    SeveritySuccess,
		Risk:        "0%",
		RiskLevel:   "None",
		Treatment:   "No treatment needed, can be removed if bothersome",
	},
	{
		Key:         "melanoma",
		Title:       "Melanoma",
		Description: "A serious form of skin cancer that begins in cells known as melanocytes. Early detection is crucial for successful treatment.",
		Severity:    SeverityError,
		Risk:        "Very High",
		RiskLevel:   "Critical",
		Treatment:   "Surgical removal, immunotherapy, targeted therapy, or chemotherapy",
	},
	{
		Key:         "melanocytic nevi",
		Title:       "Melanocytic Nevi",
		Description: "Common moles that are usually harmless but should be monitored for changes.",
		Severity:    SeverityInfo,
		Risk:        "Low",
		RiskLevel:   "Low",
		Treatment:   "Regular monitoring, removal if suspicious changes occur",
	},
	{
		// The classifier may report moles under either name. This one has no
		// risk or treatment text.
		Key:         "nevus",
		Title:       "Nevus (Mole)",
		Description: "A common, usually harmless growth on the skin that appears as a small, dark spot.",
		Severity:    SeveritySuccess,
	},
	{
		Key:         "vascular lesion",
		Title:       "Vascular Lesion",
		Description: "An abnormality of blood vessels that may appear as a red or purple mark on the skin.",
		Severity:    SeverityInfo,
		Risk:        "Low",
		RiskLevel:   "Low",
		Treatment:   "Laser therapy, surgical removal, or observation",
	},
}

var byKey = func() map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return m
}()

// Normalize turns a predicted class label into a table key:
// lowercase with underscores replaced by spaces.
func Normalize(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(label), "_", " "))
}

// Lookup returns the entry for a predicted label.
func Lookup(label string) (Entry, bool) {
	e, ok := byKey[Normalize(label)]
	return e, ok
}

// SeverityFor returns the label's severity, or info when the label is unknown.
func SeverityFor(label string) Severity {
	if e, ok := Lookup(label); ok {
		return e.Severity
	}
	return SeverityInfo
}

// FormatLabel renders a raw label for display, e.g. basal_cell_carcinoma as
// "Basal Cell Carcinoma".
func FormatLabel(label string) string {
	words := strings.Split(label, "_")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Entries returns every entry in display order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
