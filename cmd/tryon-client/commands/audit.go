package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/domain/verification"
)

// audit --before <url> --after <url> --garment1 <url> [--garment2 <url>]
// audit --record <id>
func auditCmd() *cobra.Command {
	var (
		payload  tryon.AuditPayload
		recordID string
		bypass   string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a try-on result against its inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := tryon.AuditAuth{Token: verification.Token(token), BypassCode: bypass}
			if auth.Token == "" && auth.BypassCode == "" {
				return fmt.Errorf("either --token or --bypass is required")
			}

			var (
				res *tryon.AuditResult
				err error
			)
			if recordID != "" {
				if err := requirePersistentStore(); err != nil {
					return err
				}
				res, err = appCtx.TryOn.AuditRecord(cmd.Context(), recordID, auth)
			} else {
				res, err = appCtx.TryOn.Audit(cmd.Context(), payload, auth)
			}
			if err != nil {
				return userError(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&payload.ModelBefore, "before", "", "original model image URL or data URI")
	cmd.Flags().StringVar(&payload.ModelAfter, "after", "", "result image URL or data URI")
	cmd.Flags().StringVar(&payload.Garment1, "garment1", "", "primary garment image URL or data URI")
	cmd.Flags().StringVar(&payload.Garment2, "garment2", "", "secondary garment image URL or data URI")
	cmd.Flags().StringVar(&recordID, "record", "", "audit a saved record instead of explicit images")
	cmd.Flags().StringVar(&bypass, "bypass", "", "bypass code sent as test-code")
	cmd.MarkFlagsMutuallyExclusive("record", "before")
	return cmd
}
