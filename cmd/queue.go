package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/botctl/internal/domain"
	"github.com/spf13/cobra"
)

func newToggleCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch the bot between online and offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				if err := rt.mutations.ToggleStatus(ctx); err != nil {
					return err
				}

				cfg, err := rt.engine.Snapshot(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), onlineLabel(cfg.Online))
				return nil
			})
		},
	}
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func newQueueCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the track queue",
	}

	cmd.AddCommand(
		newQueueAddCmd(app),
		newQueueAdvanceCmd(app, "next", "Play the next queued track"),
		newQueueAdvanceCmd(app, "skip", "Skip the current track"),
		newQueueStopCmd(app),
		newQueueListCmd(app),
	)

	return cmd
}

func newQueueAddCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Append a track to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				track, err := rt.mutations.EnqueueTrack(ctx, args[0])
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", track.ID, track.Title)
				return nil
			})
		},
	}
}

func newQueueAdvanceCmd(app *app, use string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				advance := rt.mutations.PlayNext
				if use == "skip" {
					advance = rt.mutations.Skip
				}

				current, err := advance(ctx)
				if err != nil {
					return err
				}

				if current == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "queue empty")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "now playing: %s\n", current.Title)
				return nil
			})
		},
	}
}

func newQueueStopCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop playback and clear the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				return rt.mutations.Stop(ctx)
			})
		},
	}
}

func newQueueListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the current track and the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				cfg, err := rt.engine.Snapshot(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if cfg.CurrentTrack != nil {
					_, _ = fmt.Fprintf(out, "*\t%s\t%s\n", cfg.CurrentTrack.ID, cfg.CurrentTrack.SourceURL)
				}
				for i, track := range cfg.Queue {
					_, _ = fmt.Fprintf(out, "%d\t%s\t%s\n", i+1, track.ID, track.SourceURL)
				}
				return nil
			})
		},
	}
}

func newAccountsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage tracked social accounts",
	}

	cmd.AddCommand(
		newAccountsAddCmd(app),
		newAccountsRemoveCmd(app),
		newAccountsListCmd(app),
	)

	return cmd
}

func newAccountsAddCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <platform> <handle-or-url>",
		Short: "Track a social account (youtube, twitch, x, other)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := domain.ParsePlatform(args[0])
			if err != nil {
				return err
			}

			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				account, err := rt.mutations.AddSocialAccount(ctx, platform, args[1])
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", account.ID, account.Platform.Label(), account.HandleOrURL)
				return nil
			})
		},
	}
}

func newAccountsRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Stop tracking a social account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				return rt.mutations.RemoveSocialAccount(ctx, domain.SocialAccountID(args[0]))
			})
		},
	}
}

func newAccountsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked social accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
				cfg, err := rt.engine.Snapshot(ctx)
				if err != nil {
					return err
				}

				for _, account := range cfg.SocialAccounts {
					fetched := "never"
					if account.LastFetched != nil {
						fetched = account.LastFetched.Format("2006-01-02 15:04")
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", account.ID, account.Platform.Label(), account.HandleOrURL, fetched)
				}
				return nil
			})
		},
	}
}

func newUpdatesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Fetch and list social account updates",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "fetch",
			Short: "Fetch one update per tracked account (simulated)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
					events, err := rt.mutations.SimulateFetchUpdates(ctx)
					if err != nil {
						return err
					}

					for _, event := range events {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), event.Text)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List recent updates, newest first",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConnected(cmd, app, func(ctx context.Context, rt *runtime) error {
					cfg, err := rt.engine.Snapshot(ctx)
					if err != nil {
						return err
					}

					for _, update := range cfg.RecentUpdates {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", update.Timestamp.Format("2006-01-02 15:04"), update.Text)
					}
					return nil
				})
			},
		},
	)

	return cmd
}
