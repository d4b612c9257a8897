package commands

import (
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remaining submission quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := appCtx.TryOn.CheckStatus(cmd.Context())
			if err != nil {
				return userError(err)
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}
