package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/fasttrack-cli/internal/adapters/render/status"
	"github.com/bnema/fasttrack-cli/internal/application"
	"github.com/bnema/fasttrack-cli/internal/logfields"
)

type statusJSON struct {
	application.StatusPayload
	Hydration *hydrationJSON `json:"hydration,omitempty"`
}

type hydrationJSON struct {
	ConsumedML int `json:"consumed_ml"`
	GoalML     int `json:"goal_ml"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reconcile := func(ctx context.Context) { app.session.InitializeFromRemote(ctx) }
			if asJSON {
				reconcile(cmd.Context())
			} else if err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Syncing fast...", reconcile); err != nil {
				return err
			}

			return writeStatusOutput(cmd, app, app.session.Status(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, view application.FastStatusView, asJSON bool) error {
	hydration, err := app.hydration.Today(cmd.Context())
	if err != nil {
		app.logger.Warn("Hydration status unavailable", logfields.Error(err))
	}
	hasHydration := err == nil && hydration.GoalML > 0

	if asJSON {
		payload := statusJSON{StatusPayload: view.Payload()}
		if hasHydration {
			payload.Hydration = &hydrationJSON{ConsumedML: hydration.ConsumedML, GoalML: hydration.GoalML}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	opts := statusadapter.RenderOptions{}
	if hasHydration {
		opts.Hydration = &hydration
	}

	rendered, err := app.statusRenderer(view, opts)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
