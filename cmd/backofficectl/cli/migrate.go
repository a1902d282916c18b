package cli

import (
	"github.com/spf13/cobra"

	"github.com/agrocrm/backoffice/internal/platform/db"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return db.Migrate(cmd.Context(), rt.cfg.PGDSN, rt.logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return db.Rollback(cmd.Context(), rt.cfg.PGDSN, rt.logger)
			},
		},
	)
	return cmd
}
