package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/property-market/internal/persistence"
)

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if appCtx.Postgres.PoolHandle() == nil {
				return errors.New("migrate needs --dsn or POSTGRES_DSN")
			}
			if dir != "" {
				appCtx.Config.Postgres.MigrationsDir = dir
			}
			files, err := persistence.MigrationFiles(appCtx.Config.Postgres.MigrationsDir)
			if err != nil {
				return err
			}
			if err := appCtx.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration file(s)\n", len(files))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default $POSTGRES_MIGRATIONS_DIR)")
	return cmd
}
