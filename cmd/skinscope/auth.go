package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/skinscope/internal/cli"
	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/identity"
	"github.com/Veraticus/skinscope/internal/session"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your account and session",
		Long: `Create an account, sign in and out, and show who is signed in.

The session is stored in the local database and shared with the
interactive client.`,
	}

	cmd.AddCommand(authSignUpCmd())
	cmd.AddCommand(authSignInCmd())
	cmd.AddCommand(authSignOutCmd())
	cmd.AddCommand(authWhoAmICmd())

	return cmd
}

func authSignUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE:  runAuthSignUp,
	}
	cmd.Flags().String("email", "", "email address (prompted when empty)")
	return cmd
}

func authSignInCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in",
		RunE:  runAuthSignIn,
	}
	cmd.Flags().String("email", "", "email address (prompted when empty)")
	return cmd
}

func authSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out",
		RunE:  runAuthSignOut,
	}
}

func authWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is signed in",
		RunE:  runAuthWhoAmI,
	}
}

// credentials reads an email and password, prompting for what was not given.
func credentials(ctx context.Context, cmd *cobra.Command, p *cli.Prompt) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		var err error
		if email, err = p.Line(ctx, "Email"); err != nil {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
	}
	password, err := p.Password(ctx, "Password")
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return email, password, nil
}

func newPrompt(cmd *cobra.Command) *cli.Prompt {
	in := cmd.InOrStdin()
	if in == nil {
		in = os.Stdin
	}
	return cli.NewPrompt(in, cmd.ErrOrStderr())
}

// authFailure turns a provider error into one main prints as is.
func authFailure(err error) error {
	return common.NewUserError(identity.Message(err), err)
}

func runAuthSignUp(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	p := newPrompt(cmd)
	email, password, err := credentials(ctx, cmd, p)
	if err != nil {
		return err
	}
	confirm, err := p.Password(ctx, "Confirm password")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return common.NewUserError("Passwords do not match", nil)
	}

	if err := a.provider.SignUp(ctx, email, password); err != nil {
		return authFailure(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess("Registration successful! Please sign in."))
	fmt.Fprintln(out, cli.SubtleStyle.Render("  skinscope auth signin --email "+email))
	return nil
}

func runAuthSignIn(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	email, password, err := credentials(ctx, cmd, newPrompt(cmd))
	if err != nil {
		return err
	}

	s, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		return authFailure(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed in as "+s.Email))
	return nil
}

func runAuthSignOut(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	// Let the provider finish restoring so sign-out clears the real session.
	if _, err := a.currentSession(ctx); err != nil {
		return err
	}
	if err := a.provider.SignOut(ctx); err != nil {
		common.LogError(err, "Sign out failed", nil)
		return authFailure(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
	return nil
}

func runAuthWhoAmI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	state, err := a.currentSession(ctx)
	if err != nil {
		return err
	}
	printSession(cmd.OutOrStdout(), a.cfg.Identity.Provider, state)
	return nil
}

func printSession(w io.Writer, provider string, state session.State) {
	if state.Status != session.Present {
		fmt.Fprintln(w, cli.FormatInfo("Not signed in"))
		return
	}
	s := state.Session
	fmt.Fprintln(w, cli.FormatField("Email", cli.BoldStyle.Render(s.Email)))
	fmt.Fprintln(w, cli.FormatField("User ID", s.UserID))
	fmt.Fprintln(w, cli.FormatField("Provider", provider))
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintln(w, cli.FormatField("Expires", s.ExpiresAt.Local().Format(time.RFC1123)))
	}
}

func closeApp(a *app) {
	if err := a.Close(); err != nil {
		slog.Warn("Failed to close application", "error", err)
	}
}
