package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "ft",
		Short:         "FastTrack CLI (ft): track fasts, zones and hydration",
		Long:          "ft keeps a fasting session in sync with the FastTrack backend, shows progress through the fasting zones, and nudges you about milestones and hydration.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		app.stderr.set(cmd.ErrOrStderr())
		if verbose {
			app.logLevel.Set(slog.LevelDebug)
		}
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStartCmd(app),
		newEndCmd(app),
		newPauseCmd(app),
		newResumeCmd(app),
		newStatusCmd(app),
		newWatchCmd(app),
		newProtocolsCmd(app),
		newZonesCmd(),
		newWaterCmd(app),
		newAuthCmd(app),
	)

	return rootCmd
}
