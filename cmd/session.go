package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/botctl/internal/adapters/render/panel"
	"github.com/bnema/botctl/internal/application"
	"github.com/bnema/botctl/internal/domain"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the signed-in identity",
	}

	cmd.AddCommand(
		newSessionSignInCmd(app),
		newSessionWhoAmICmd(app),
		newSessionSignOutCmd(app),
	)

	return cmd
}

func newSessionSignInCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signin",
		Short: "Sign in and load the bot config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, err := app.start(ctx, panel.NewWriterDisplay(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer rt.stop()

			steps := append(rt.connectSteps(), rt.flushStep())
			if err := runSteps(ctx, cmd.ErrOrStderr(), steps...); err != nil {
				return err
			}

			return writeIdentity(cmd.OutOrStdout(), rt.sessions.Current())
		},
	}
}

func newSessionWhoAmICmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity of the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(_ context.Context, rt *runtime) error {
				return writeIdentity(cmd.OutOrStdout(), rt.sessions.Current())
			})
		},
	}
}

func newSessionSignOutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the cached session so the next run signs in again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions := application.NewSessionManager(application.SessionManagerConfig{
				Credentials:   app.credentials,
				CredentialKey: app.credentialKey(),
				Clock:         app.clock,
				Logger:        app.logger,
			})
			if err := sessions.SignOut(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func writeIdentity(w io.Writer, session domain.Session) error {
	if !session.Authenticated() {
		_, err := fmt.Fprintln(w, "signed out")
		return err
	}

	kind := "user"
	if session.Identity.Anonymous {
		kind = "anonymous"
	}
	_, err := fmt.Fprintf(w, "%s\t%s\n", session.UserID(), kind)
	return err
}
