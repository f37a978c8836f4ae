package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eixo/internal/backend"
	"eixo/internal/cli"
	"eixo/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long:  `Apply every pending migration to the database selected by DATA_BACKEND.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupLogger()
			cfg := cli.LoadAndValidateConfig(logger)

			var (
				dialect storage.Dialect
				dsn     string
			)
			switch backend.BackendType(cfg.DataBackend) {
			case backend.SQLiteBackend:
				dialect, dsn = storage.DialectSQLite, cfg.SQLiteDBPath
			case backend.PostgresBackend:
				dialect, dsn = storage.DialectPostgres, cfg.DatabaseURL
			default:
				return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
			}

			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", dialect)
			return nil
		},
	}
}
