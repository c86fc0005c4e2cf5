package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var errEmptyToken = errors.New("token is empty")

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API token",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API token in the secret store",
		Long:  "Store the API token in the secret store. Without --token the token is read from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value := strings.TrimSpace(token)
			if value == "" {
				read, err := readFirstLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				value = read
			}
			if value == "" {
				return errEmptyToken
			}

			if err := app.secretStore.Put(cmd.Context(), app.cfg.API.TokenKey, value); err != nil {
				return fmt.Errorf("store api token: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Token stored under %s\n", app.cfg.API.TokenKey)
			return err
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API token (read from stdin when omitted)")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.secretStore.Delete(cmd.Context(), app.cfg.API.TokenKey); err != nil {
				return fmt.Errorf("remove api token: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Token removed")
			return err
		},
	}
}

func readFirstLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read token from stdin: %w", err)
	}
	return "", nil
}
