package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

func newWaterCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "water",
		Short: "Track water intake",
	}

	cmd.AddCommand(newWaterAddCmd(app), newWaterStatusCmd(app))

	return cmd
}

func newWaterAddCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ml>",
		Short: "Log water intake in millilitres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", domain.ErrInvalidAmount, args[0])
			}

			status, err := app.hydration.LogIntake(cmd.Context(), amount)
			if err != nil {
				return err
			}

			return writeHydration(cmd, status)
		},
	}
}

func newWaterStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's water intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := app.hydration.Today(cmd.Context())
			if err != nil {
				return err
			}

			return writeHydration(cmd, status)
		},
	}
}

func writeHydration(cmd *cobra.Command, status domain.HydrationStatus) error {
	printer := message.NewPrinter(language.English)
	if status.GoalML <= 0 {
		_, err := printer.Fprintf(cmd.OutOrStdout(), "Water today: %d ml\n", status.ConsumedML)
		return err
	}

	_, err := printer.Fprintf(cmd.OutOrStdout(), "Water today: %d / %d ml (%.0f%%)\n",
		status.ConsumedML, status.GoalML, status.Fraction()*100)
	return err
}
