package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tryon-client/internal/domain/image"
	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/domain/verification"
)

// submit --body <img> --garment1 <img> [--garment2 <img>]
func submitCmd() *cobra.Command {
	var body, garment1, garment2 string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a try-on request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("verification token required (--token or TRYON_TOKEN)")
			}
			req := tryon.Request{Token: verification.Token(token)}

			var err error
			if req.Base, err = loadAsset(body); err != nil {
				return err
			}
			if req.Primary, err = loadAsset(garment1); err != nil {
				return err
			}
			if garment2 != "" {
				var second image.Asset
				if second, err = loadAsset(garment2); err != nil {
					return err
				}
				req.Secondary = &second
			}

			res, err := appCtx.TryOn.Submit(cmd.Context(), req)
			if err != nil {
				return userError(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "base (model) image: file path or data URI")
	cmd.Flags().StringVar(&garment1, "garment1", "", "primary garment image")
	cmd.Flags().StringVar(&garment2, "garment2", "", "optional secondary garment image")
	_ = cmd.MarkFlagRequired("body")
	_ = cmd.MarkFlagRequired("garment1")
	return cmd
}
