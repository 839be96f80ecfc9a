// Package store opens the menu repository selected by configuration.
package store

import (
	"context"
	"fmt"
	"log"

	"menutree/internal/config"
	"menutree/internal/db"
	"menutree/internal/migrate"
	menurepo "menutree/internal/repository/menu"
)

// Open connects to the configured backend and returns its repository together
// with a function releasing the connection. SQLite databases are migrated on
// open; Postgres schemas are managed by the migrate command.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (menurepo.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return menurepo.NewPostgres(pool, logger), pool.Close, nil
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		if err := migrate.ApplySQLite(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return menurepo.NewSQLite(sqlDB), func() { sqlDB.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
