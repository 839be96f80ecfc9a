package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"menutree/internal/config"
	"menutree/internal/importer"
	menusvc "menutree/internal/service/menu"
	"menutree/internal/store"
)

var (
	importFile   string
	importFormat string
	importReset  bool
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Import a menu tree from a CSV or YAML file",
	Long: `Import menus into the configured store.

CSV files carry the columns key, name, parent.key and order. YAML files hold a
list of menus with optional nested children. Parents are created before their
children in both formats.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runImport,
}

func init() {
	rootCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to the menu file")
	rootCmd.Flags().StringVar(&importFormat, "format", "", "file format: csv or yaml (default: from the file extension)")
	rootCmd.Flags().BoolVar(&importReset, "reset", false, "delete every existing menu before importing")
	_ = rootCmd.MarkFlagRequired("file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	format, err := resolveFormat()
	if err != nil {
		return err
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC)
	orphans, err := menusvc.ParseOrphanPolicy(cfg.OrphanPolicy)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	svc := menusvc.New(repo, menusvc.Options{OrphanPolicy: orphans, Logger: logger})

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if importReset {
		removed, err := svc.Reset(ctx)
		if err != nil {
			return err
		}
		logger.Printf("removed %d existing menus", removed)
	}

	start := time.Now()
	count, err := importer.New(svc, logger).Run(ctx, f, format)
	if err != nil {
		return fmt.Errorf("import failed after %d menus: %w", count, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d menus from %s in %s\n", count, importFile, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func resolveFormat() (importer.Format, error) {
	if importFormat != "" {
		return importer.ParseFormat(importFormat)
	}
	return importer.DetectFormat(importFile)
}
