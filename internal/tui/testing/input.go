package testing

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyEnter creates an enter key message.
func KeyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// KeyEsc creates an escape key message.
func KeyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

// KeyTab creates a tab key message.
func KeyTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyTab}
}

// KeyShiftTab creates a shift+tab key message.
func KeyShiftTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyShiftTab}
}

// KeyCtrl creates a ctrl key combination message, e.g. KeyCtrl("s") for ctrl+s.
func KeyCtrl(key string) tea.KeyMsg {
	if len(key) != 1 || key[0] < 'a' || key[0] > 'z' {
		panic("KeyCtrl requires a single lowercase letter")
	}
	return tea.KeyMsg{Type: tea.KeyCtrlA + tea.KeyType(key[0]-'a')}
}

// InputSequence represents a sequence of inputs for testing.
type InputSequence struct {
	inputs []tea.Msg
}

// NewInputSequence creates a new input sequence.
func NewInputSequence(inputs ...tea.Msg) *InputSequence {
	return &InputSequence{inputs: inputs}
}

// Type adds a string of characters to the sequence.
func (s *InputSequence) Type(text string) *InputSequence {
	for _, r := range text {
		s.inputs = append(s.inputs, tea.KeyMsg{
			Type:  tea.KeyRunes,
			Runes: []rune{r},
		})
	}
	return s
}

// Apply feeds every input to model in order and returns the final model.
// Commands returned along the way are discarded.
func (s *InputSequence) Apply(model tea.Model) tea.Model {
	for _, input := range s.inputs {
		model, _ = model.Update(input)
	}
	return model
}

// TypeInto types text into a component whose Update returns its own type.
func TypeInto[M interface{ Update(tea.Msg) (M, tea.Cmd) }](m M, text string) M {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}
