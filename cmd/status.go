package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/botctl/internal/adapters/render/panel"
	"github.com/bnema/botctl/internal/domain"
	"github.com/spf13/cobra"
)

type statusOutput struct {
	UserID    domain.UserID    `json:"user_id"`
	Anonymous bool             `json:"anonymous"`
	Config    domain.BotConfig `json:"config"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the bot config of the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				return writeStatus(cmd, app, rt, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the config as JSON")

	return cmd
}

// runConnected starts a runtime that prints notices to stderr, signs in,
// runs action and waits for its writes.
func runConnected(cmd *cobra.Command, app *app, action func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()

	rt, err := app.start(ctx, panel.NewWriterDisplay(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer rt.stop()

	if err := runSteps(ctx, cmd.ErrOrStderr(), rt.connectSteps()...); err != nil {
		return err
	}
	if err := action(ctx, rt); err != nil {
		return err
	}
	return runSteps(ctx, cmd.ErrOrStderr(), rt.flushStep())
}

func writeStatus(cmd *cobra.Command, app *app, rt *runtime, asJSON bool) error {
	ctx := cmd.Context()

	cfg, err := rt.engine.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read bot config: %w", err)
	}
	session, err := rt.engine.Session(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	if asJSON {
		out := statusOutput{UserID: session.UserID(), Config: cfg}
		if session.Identity != nil {
			out.Anonymous = session.Identity.Anonymous
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	rendered, err := panel.Render(panel.State{Session: session, Config: cfg}, panel.RenderOptions{
		Now:      app.now(),
		Selected: -1,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
