package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"menutree/internal/config"
	"menutree/internal/httpserver"
	menusvc "menutree/internal/service/menu"
	"menutree/internal/store"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	orphans, err := menusvc.ParseOrphanPolicy(cfg.OrphanPolicy)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	menuService := menusvc.New(repo, menusvc.Options{
		OrphanPolicy:    orphans,
		SerializeWrites: cfg.SerializeWrites,
		Logger:          logger,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		MenuSvc:     menuService,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (store=%s, orphans=%s, serialize=%t)", cfg.HTTPAddr, cfg.StoreDriver, orphans, cfg.SerializeWrites)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
