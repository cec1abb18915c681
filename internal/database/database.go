// Package database opens the relational store shared by every repository.
// Postgres connections go through sqlx over the pgx stdlib driver and the
// same pool is handed to gorm; sqlite is used for local demos.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a1media/agency-dashboard/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	pgxDriverName    = "pgx"
	sqliteDriverName = "sqlite3"
)

// DB bundles both handles over one connection pool. Gorm serves the lead,
// client and permission repositories; sqlx serves the user directory.
type DB struct {
	Driver string
	SQL    *sqlx.DB
	Gorm   *gorm.DB
}

func Open(cfg internal.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(cfg, logger)
	case DriverPostgres, "":
		return openPostgres(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg internal.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	sqlDB, err := sqlx.Connect(pgxDriverName, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	logger.Info("database connected", "driver", DriverPostgres, "max_open_conns", cfg.MaxOpenConns)
	return &DB{Driver: DriverPostgres, SQL: sqlDB, Gorm: gdb}, nil
}

func openSQLite(cfg internal.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(cfg.Source), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// sqlite serialises writers; one connection also keeps :memory: databases alive
	sqlDB.SetMaxOpenConns(1)

	logger.Info("database connected", "driver", DriverSQLite, "source", cfg.Source)
	return &DB{Driver: DriverSQLite, SQL: sqlx.NewDb(sqlDB, sqliteDriverName), Gorm: gdb}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.SQL.Close()
}
