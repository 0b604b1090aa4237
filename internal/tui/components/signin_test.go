package components

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/nav"
	tuitest "github.com/Veraticus/skinscope/internal/tui/testing"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

func fillSignIn(m SignInModel, email, password string) SignInModel {
	m = tuitest.TypeInto(m, email)
	m, _ = m.Update(tuitest.KeyTab())
	return tuitest.TypeInto(m, password)
}

func TestSignInModel_Submit(t *testing.T) {
	invalid := &identity.AuthError{Err: identity.ErrInvalidCredentials, Message: "Invalid email or password"}

	tests := []struct {
		name      string
		signInErr error
		email     string
		password  string
		wantErr   string
		wantCall  bool
	}{
		{
			name:     "success navigates home",
			email:    "ana@example.com",
			password: "secret1",
			wantCall: true,
		},
		{
			name:      "provider message is shown",
			signInErr: invalid,
			email:     "ana@example.com",
			password:  "wrong",
			wantErr:   "Invalid email or password",
			wantCall:  true,
		},
		{
			name:      "plain error falls back to its text",
			signInErr: errors.New("network down"),
			email:     "ana@example.com",
			password:  "secret1",
			wantErr:   "network down",
			wantCall:  true,
		},
		{
			name:    "missing password is caught locally",
			email:   "ana@example.com",
			wantErr: "Please enter your email and password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{signInErr: tt.signInErr}
			m := fillSignIn(NewSignInModel(auth, themes.Default), tt.email, tt.password)

			m, cmd := m.Update(tuitest.KeyEnter())
			if !tt.wantCall {
				assert.Nil(t, cmd)
				assert.False(t, m.Submitting())
				assert.Equal(t, tt.wantErr, m.Err())
				assert.Empty(t, auth.Calls())
				return
			}

			require.True(t, m.Submitting())
			assert.Contains(t, plain(m.View()), "Signing in...")

			done := await[SignInDoneMsg](t, cmd)
			assert.Equal(t, []string{"signin:" + tt.email}, auth.Calls())

			m, cmd = m.Update(done)
			assert.False(t, m.Submitting())
			assert.Equal(t, tt.wantErr, m.Err())

			if tt.wantErr != "" {
				assert.Nil(t, cmd)
				assert.Contains(t, plain(m.View()), tt.wantErr)
				return
			}
			navMsg := await[NavigateMsg](t, cmd)
			assert.Equal(t, nav.Home, navMsg.Route)
		})
	}
}

func TestSignInModel_EnterAdvancesFocus(t *testing.T) {
	auth := &fakeAuth{}
	m := NewSignInModel(auth, themes.Default)
	m = tuitest.TypeInto(m, "ana@example.com")

	m, _ = m.Update(tuitest.KeyEnter())
	assert.False(t, m.Submitting())
	assert.Equal(t, 1, m.fields.focus)
	assert.Empty(t, auth.Calls())

	m, _ = m.Update(tuitest.KeyShiftTab())
	assert.Equal(t, 0, m.fields.focus)
}

func TestSignInModel_KeysIgnoredWhileSubmitting(t *testing.T) {
	auth := &fakeAuth{}
	m := fillSignIn(NewSignInModel(auth, themes.Default), "ana@example.com", "secret1")
	m, _ = m.Update(tuitest.KeyEnter())
	require.True(t, m.Submitting())

	_, cmd := m.Update(tuitest.KeyEnter())
	assert.Nil(t, cmd)
}

func TestSignInModel_SwitchToSignUp(t *testing.T) {
	m := NewSignInModel(&fakeAuth{}, themes.Default)
	_, cmd := m.Update(tuitest.KeyCtrl("n"))
	assert.Equal(t, nav.SignUp, await[NavigateMsg](t, cmd).Route)
}

func TestSignInModel_View(t *testing.T) {
	view := plain(NewSignInModel(&fakeAuth{}, themes.Default).View())
	assert.True(t, tuitest.ContainsInOrder(view, "Sign In", "Email Address", "Password", "Sign Up"))
}
