package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fssonca/ezy-collect-challenge/internal/config"
	"github.com/fssonca/ezy-collect-challenge/internal/storage"
)

var migrateConfigPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateConfigPath, "config", "", "path to config file (default payments.yaml)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(migrateConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Opening the store applies the schema
	store, err := storage.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer store.Close()

	fmt.Printf("Schema up to date at %s\n", cfg.Storage.DBPath)
	return nil
}
