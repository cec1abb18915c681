package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a1media/agency-dashboard/db"
	clientDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/client"
	leadDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/lead"
	userDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/user"
	"github.com/pressly/goose/v3"
)

const migrationsTable = "schema_migrations"

// Migrate brings the schema up to date. Postgres runs the embedded goose
// migrations; sqlite is created from the gorm models.
func Migrate(ctx context.Context, database *DB, logger *slog.Logger) error {
	if database.Driver == DriverSQLite {
		if err := database.Gorm.WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("sqlite schema migrated")
		return nil
	}

	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database.SQL.DB, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, database.SQL.DB)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	logger.Info("migrations applied", "version", version)
	return nil
}

// Rollback undoes the latest postgres migration.
func Rollback(ctx context.Context, database *DB, logger *slog.Logger) error {
	if database.Driver == DriverSQLite {
		return fmt.Errorf("rollback is not supported for %s", DriverSQLite)
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, database.SQL.DB, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	logger.Info("rolled back latest migration")
	return nil
}

func prepareGoose() error {
	goose.SetBaseFS(db.Migrations)
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect(DriverPostgres); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// Models lists every gorm row type, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&userDatamodel.RoleModule{},
		&clientDatamodel.Client{},
		&leadDatamodel.Lead{},
		&leadDatamodel.LeadLog{},
	}
}
