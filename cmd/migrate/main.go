package main

import (
	"context"
	"log"
	"os"

	"menutree/internal/config"
	"menutree/internal/db"
	"menutree/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatalf("open sqlite: %v", err)
		}
		defer sqlDB.Close()
		if err := migrate.ApplySQLite(ctx, sqlDB); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	default:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	logger.Printf("migrations applied (%s)", cfg.StoreDriver)
}
