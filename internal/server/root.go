package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zhirschtritt/orderly/internal/config"
	"github.com/zhirschtritt/orderly/internal/migrations"
)

var rootCmd = &cobra.Command{
	Use:          "orderly",
	Short:        "User CRUD service",
	Long:         `A user CRUD service using chi for routing, pgx for PostgreSQL and cobra for CLI`,
	SilenceUsage: true,
}

// Execute runs the CLI. Commands stop when ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	migrateCmd.Flags().Bool("up", false, "Run all pending migrations")
	migrateCmd.Flags().Bool("down", false, "Rollback all migrations")
	migrateCmd.Flags().Int("steps", 0, "Run specific number of migrations (positive for up, negative for down)")
	migrateCmd.MarkFlagsMutuallyExclusive("up", "down", "steps")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect database migrations",
	Long:  `Without flags, prints the current migration version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		up, _ := cmd.Flags().GetBool("up")
		down, _ := cmd.Flags().GetBool("down")
		steps, _ := cmd.Flags().GetInt("steps")
		return runMigrate(cmd, up, down, steps)
	},
}

func runMigrate(cmd *cobra.Command, up, down bool, steps int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	migrator, err := migrations.NewMigrator(cfg.DBConnString, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Error("failed to create migrator", "error", err)
		return err
	}
	defer migrator.Close()

	out := cmd.OutOrStdout()
	switch {
	case up:
		if err := migrator.Up(); err != nil {
			logger.Error("failed to run migrations up", "error", err)
			return err
		}
		fmt.Fprintln(out, "Migrations completed successfully")
	case down:
		if err := migrator.Down(); err != nil {
			logger.Error("failed to run migrations down", "error", err)
			return err
		}
		fmt.Fprintln(out, "Migrations rolled back successfully")
	case steps != 0:
		if err := migrator.Steps(steps); err != nil {
			logger.Error("failed to run migrations steps", "error", err, "steps", steps)
			return err
		}
		fmt.Fprintf(out, "Migrations completed successfully (%d steps)\n", steps)
	default:
		version, dirty, err := migrator.Version()
		if err != nil {
			logger.Error("failed to get migration version", "error", err)
			return err
		}
		fmt.Fprintf(out, "Current migration version: %d, dirty: %t\n", version, dirty)
	}

	return nil
}
