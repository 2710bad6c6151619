package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"aelin/pkg/config"
	"aelin/pkg/db"
)

func NewMigrateCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Uses DIRECT_URL when set; poolers reject the migration locks.
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			// Check the runtime connection too. DSNs are never printed.
			pool, err := db.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("runtime db open: %w", err)
			}
			pool.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
