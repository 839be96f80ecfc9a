package main

import (
	"context"
	"log"
	"os"

	"menutree/internal/config"
	"menutree/internal/seed"
	menusvc "menutree/internal/service/menu"
	"menutree/internal/store"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	created, err := seed.Apply(ctx, menusvc.New(repo, menusvc.Options{Logger: logger}), logger)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	if created == 0 {
		logger.Println("menus already present, seed skipped")
		return
	}
	logger.Printf("seed applied: %d menus", created)
}
