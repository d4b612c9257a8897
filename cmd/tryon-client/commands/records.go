package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	recordstore "tryon-client/internal/domain/tryon/store"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records [id]",
		Short: "List saved results, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(); err != nil {
				return err
			}
			if len(args) == 1 {
				rec, err := appCtx.TryOn.Record(cmd.Context(), args[0])
				if err != nil {
					return userError(err)
				}
				return printJSON(cmd.OutOrStdout(), rec)
			}

			recs, err := appCtx.TryOn.Records(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tAUDITED\tRESULT")
			for _, rec := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", rec.ID, rec.CreatedAt.Format(time.RFC3339), rec.Audit != nil, rec.ResultURL)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(migrateCmd())
	return cmd
}

// requirePersistentStore 每条命令是独立进程，memory 仓库在命令之间不保留记录
func requirePersistentStore() error {
	if appCtx.Config.Store.Driver == recordstore.DriverMemory {
		return fmt.Errorf("records are not kept between commands with the memory store; use --store sqlite or redis")
	}
	return nil
}
