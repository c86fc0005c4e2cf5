package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/fasttrack-cli/internal/adapters/render/status"
	"github.com/bnema/fasttrack-cli/internal/config"
	"github.com/bnema/fasttrack-cli/internal/domain"
)

func newProtocolsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocols",
		Short: "List fasting protocols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), statusadapter.RenderProtocols(domain.Protocols(), app.session.Protocol().Name))
			return err
		},
	}

	cmd.AddCommand(newProtocolsUseCmd(app))

	return cmd
}

func newProtocolsUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the protocol used for the next fast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.session.InitializeFromRemote(cmd.Context())

			if err := app.session.SetProtocol(args[0]); err != nil {
				return err
			}

			protocol := app.session.Protocol()
			if err := config.SetDefaultProtocol(app.configPath(), protocol.Name); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Next fast will use %s\n", protocol.Label())
			return err
		},
	}
}

func newZonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Describe the fasting zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), statusadapter.RenderZones(domain.Zones()))
			return err
		},
	}
}
