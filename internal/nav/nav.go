// Package nav resolves routes and decides what a guarded route may show.
package nav

import (
	"strings"

	"github.com/Veraticus/skinscope/internal/session"
)

// Route identifies a screen.
type Route string

// Known routes.
const (
	Root   Route = "/"
	SignIn Route = "/signin"
	SignUp Route = "/signup"
	Home   Route = "/home"
	Result Route = "/result"
)

// Resolve maps a requested path onto a known route. The root and any unknown
// path land on sign-in.
func Resolve(path string) Route {
	r := Route(strings.TrimRight(strings.ToLower(strings.TrimSpace(path)), "/"))
	if r == "" {
		return SignIn
	}
	switch r {
	case SignIn, SignUp, Home, Result:
		return r
	default:
		return SignIn
	}
}

// Protected reports whether the route needs a signed-in session.
func Protected(r Route) bool {
	return r == Home || r == Result
}

// Action is what the router does with a route.
type Action int

// Guard actions.
const (
	Render Action = iota
	Loading
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict for a route.
type Decision struct {
	Target Route
	Action Action
}

// Decide gates protected routes on the session status. While the status is
// still being determined only the loading placeholder may be shown, so a
// signed-in user never sees the sign-in screen flash by.
func Decide(r Route, status session.Status) Decision {
	if !Protected(r) {
		return Decision{Action: Render, Target: r}
	}
	switch status {
	case session.Present:
		return Decision{Action: Render, Target: r}
	case session.Absent:
		return Decision{Action: Redirect, Target: SignIn}
	default:
		return Decision{Action: Loading, Target: r}
	}
}
