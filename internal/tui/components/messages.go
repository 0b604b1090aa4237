package components

import (
	"github.com/Veraticus/skinscope/internal/nav"
	"github.com/Veraticus/skinscope/internal/stager"
	"github.com/Veraticus/skinscope/internal/submission"
)

// NavigateMsg asks the router to show another route. Payload is handed to the
// next screen for this one transition only.
type NavigateMsg struct {
	Payload any
	Route   nav.Route
}

// DecodedMsg carries a finished background decode.
type DecodedMsg struct {
	Result stager.Result
}

// PredictedMsg carries a finished predict request.
type PredictedMsg struct {
	Outcome submission.Outcome
}

// SignInDoneMsg reports the outcome of a sign-in attempt.
type SignInDoneMsg struct {
	Err error
}

// SignUpDoneMsg reports the outcome of an account creation.
type SignUpDoneMsg struct {
	Err error
}

// SignUpRedirectMsg fires when the sign-up success notice has been shown long enough.
type SignUpRedirectMsg struct{}
