package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/fasttrack-cli/internal/adapters/render/status"
	"github.com/bnema/fasttrack-cli/internal/application"
)

func newStartCmd(app *app) *cobra.Command {
	var protocol string
	var backdate time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.InitializeFromRemote(cmd.Context())

			session, err := app.session.StartFast(cmd.Context(), application.StartFastCommand{
				Protocol:        protocol,
				BackdateMinutes: int(backdate / time.Minute),
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Started %s fast at %s (target %gh, id %s)\n",
				session.Protocol,
				session.StartedAt.Local().Format("15:04"),
				session.TargetHours,
				session.ID,
			)
			return err
		},
	}

	cmd.Flags().StringVarP(&protocol, "protocol", "p", "", "Fasting protocol (see 'ft protocols'); defaults to fast.default_protocol")
	cmd.Flags().DurationVar(&backdate, "backdate", 0, "Start the fast this long ago, e.g. 45m")

	return cmd
}

func newEndCmd(app *app) *cobra.Command {
	var notes string
	var mood string

	cmd := &cobra.Command{
		Use:   "end",
		Short: "End the current fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.InitializeFromRemote(cmd.Context())
			out := cmd.OutOrStdout()

			if !app.session.Snapshot().Status.InProgress() {
				_, err := fmt.Fprintln(out, "No fast in progress.")
				return err
			}

			result := app.session.EndFast(cmd.Context(), application.EndFastCommand{Notes: notes, Mood: mood})
			elapsed := time.Duration(result.ElapsedHours * float64(time.Hour))

			if _, err := fmt.Fprintf(out, "Fast ended after %s\n", statusadapter.FormatDuration(elapsed)); err != nil {
				return err
			}
			if !result.Synced {
				_, err := fmt.Fprintln(out, "Could not reach the server; the fast was ended locally.")
				return err
			}
			if result.Streak > 0 {
				if _, err := fmt.Fprintf(out, "Streak: %d\n", result.Streak); err != nil {
					return err
				}
			}
			if result.FreezeEarned {
				if _, err := fmt.Fprintln(out, "You earned a streak freeze."); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes to store with the fast")
	cmd.Flags().StringVar(&mood, "mood", "", "How the fast felt")

	return cmd
}

func newPauseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.InitializeFromRemote(cmd.Context())

			message := "No running fast to pause."
			if app.session.PauseFast(cmd.Context()) {
				message = fmt.Sprintf("Fast paused at %s elapsed.", statusadapter.FormatDuration(app.session.GetElapsedTime()))
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}
}

func newResumeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.InitializeFromRemote(cmd.Context())

			message := "No paused fast to resume."
			if app.session.ResumeFast(cmd.Context()) {
				message = fmt.Sprintf("Fast resumed at %s elapsed.", statusadapter.FormatDuration(app.session.GetElapsedTime()))
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}
}
