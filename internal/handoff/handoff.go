// Package handoff defines the payload carried from a successful submission to
// the result screen. It lives only for one navigation and is never stored.
package handoff

import (
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/stager"
)

// Result is the transition payload for the result screen.
type Result struct {
	Prediction predict.Prediction
	Preview    stager.Preview
}

// New copies the preview so later changes to the stager cannot reach the result.
func New(preview stager.Preview, prediction predict.Prediction) *Result {
	if prediction.Confidence != nil {
		c := *prediction.Confidence
		prediction.Confidence = &c
	}
	return &Result{Preview: preview, Prediction: prediction}
}

// From extracts a usable result from a navigation payload. Anything else,
// including nil, reports false and the result screen must redirect.
func From(payload any) (*Result, bool) {
	r, ok := payload.(*Result)
	if !ok || r == nil || r.Prediction.Label == "" {
		return nil, false
	}
	return r, true
}
