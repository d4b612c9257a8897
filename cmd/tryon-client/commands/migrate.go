package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	platformstorage "tryon-client/internal/platform/storage"
)

// records migrate [--rollback <version>]
func migrateCmd() *cobra.Command {
	var rollback string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Show applied sqlite migrations, or roll one back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db := appCtx.Database()
			if db == nil {
				return fmt.Errorf("migrations only apply to the sqlite store (current: %s)", appCtx.Config.Store.Driver)
			}
			m := platformstorage.Migrations(db)
			if rollback != "" {
				if err := m.RollbackMigration(rollback); err != nil {
					return userError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s; it is re-applied on the next run\n", rollback)
			}

			history, err := m.GetMigrationHistory()
			if err != nil {
				return userError(err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tAPPLIED\tNAME")
			for _, rec := range history {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.Version, rec.AppliedAt.Format(time.RFC3339), rec.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&rollback, "rollback", "", "migration version to roll back, e.g. 001_tryon_records")
	return cmd
}
