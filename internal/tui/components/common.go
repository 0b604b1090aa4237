// Package components holds the screens the router mounts.
package components

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/nav"
)

// Authenticator is the identity provider surface the screens use.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context) error
}

// Navigate returns a command that asks the router for route.
func Navigate(route nav.Route, payload any) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Route: route, Payload: payload}
	}
}

// Logout signs out and then goes to sign-in whether or not sign-out worked.
func Logout(auth Authenticator) tea.Cmd {
	return func() tea.Msg {
		if auth != nil {
			if err := auth.SignOut(context.Background()); err != nil {
				common.LogError(err, "Sign out failed", nil)
			}
		}
		return NavigateMsg{Route: nav.SignIn}
	}
}

// RenderThumbnail draws an image with upper half blocks, two pixel rows per line.
func RenderThumbnail(img image.Image) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := hexColor(img.At(x, y))
			bottom := top
			if y+1 < b.Max.Y {
				bottom = hexColor(img.At(x, y+1))
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// formFields focuses one input out of several.
type formFields struct {
	focus int
	count int
}

func (f *formFields) next() {
	f.focus = (f.focus + 1) % f.count
}

func (f *formFields) prev() {
	f.focus = (f.focus + f.count - 1) % f.count
}

func (f formFields) last() bool {
	return f.focus == f.count-1
}

func dimensions(width, height int) string {
	return fmt.Sprintf("%dx%d px", width, height)
}
