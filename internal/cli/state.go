package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/cardduel/internal/api/response"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the live table state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.State

			if err := client.Get(cmd.Context(), "/api/v1/state", &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}
