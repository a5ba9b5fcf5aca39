package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/cardduel/internal/api/response"
)

func newMatchesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "matches [id]",
		Short: "List recent matches, or show one match",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd.OutOrStdout(), cfg.Output)

			if len(args) == 1 {
				var result response.Match
				if err := client.Get(cmd.Context(), "/api/v1/matches/"+url.PathEscape(args[0]), &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			var result response.MatchList
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/matches?limit=%d", limit), &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of matches to list (1-100)")

	return cmd
}
