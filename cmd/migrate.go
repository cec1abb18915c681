package cmd

import (
	"context"
	"log"

	"github.com/a1media/agency-dashboard/internal/database"
	"github.com/a1media/agency-dashboard/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations (postgres) or sync the schema (sqlite)",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.LoggerWrapper()

	db, err := database.Open(cfg.Database, lg)
	if err != nil {
		log.Fatalf("migrate: failed to open DB: %v\n", err)
	}
	defer db.Close()

	if migrateRollback {
		return database.Rollback(ctx, db, lg)
	}
	return database.Migrate(ctx, db, lg)
}
