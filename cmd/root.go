package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "botctl",
		Short:         "botctl: control panel for a streaming bot",
		Long:          "botctl signs in to the bot's document store, keeps the bot config in sync and lets you toggle the bot, manage its track queue and the social accounts it follows.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(app),
		newToggleCmd(app),
		newQueueCmd(app),
		newAccountsCmd(app),
		newUpdatesCmd(app),
		newSessionCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
