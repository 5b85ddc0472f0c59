package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/botctl/internal/adapters/render/panel"
	"github.com/bnema/botctl/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive control panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			display := panel.NewProgramDisplay()
			rt, err := app.start(ctx, display)
			if err != nil {
				return err
			}
			defer rt.stop()

			model := panel.NewInteractive(ctx, rt.mutations, panel.State{Session: rt.sessions.Current()})
			p := tea.NewProgram(model,
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)
			display.Attach(p)

			configs, stopConfigs := rt.engine.Watch()
			defer stopConfigs()
			go func() {
				for cfg := range configs {
					p.Send(panel.ConfigMsg{Config: cfg})
				}
			}()

			sessions, stopSessions := rt.sessions.Changes()
			defer stopSessions()
			go func() {
				for session := range sessions {
					p.Send(panel.SessionMsg{Session: session})
				}
			}()

			go func() {
				if err := rt.connect(ctx); err != nil {
					rt.logger.Warn().Err(err).Msg("connect")
					rt.notifier.Notify(domain.ErrorNotice(err.Error()))
				}
				cfg, err := rt.engine.Snapshot(ctx)
				if err != nil {
					return
				}
				p.Send(panel.ConfigMsg{Config: cfg})
			}()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run control panel: %w", err)
			}

			// writes from the last actions may still be queued
			return rt.flush(context.WithoutCancel(ctx))
		},
	}
}
