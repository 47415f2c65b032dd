package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ramonehamilton/PTCG-Inventory/internal/config"
	"github.com/ramonehamilton/PTCG-Inventory/internal/storage"
)

func runMigrateCommand(cfg *config.Config, args []string) {
	if cfg.Storage.Mode != config.StorageLocal {
		log.Fatalf("The migrate command manages the local database only (current mode: %s)", cfg.Storage.Mode)
	}
	if len(args) == 0 {
		fmt.Println("Usage: inventory-server migrate <status|up|down>")
		os.Exit(1)
	}

	mgr, err := storage.NewMigrationManager(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	switch args[0] {
	case "status":
	case "up":
		if err := mgr.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	case "down":
		fmt.Println("Rolling back all migrations, every stored card and set will be dropped.")
		if err := mgr.Down(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
	default:
		fmt.Println("Usage: inventory-server migrate <status|up|down>")
		os.Exit(1)
	}

	status, err := mgr.Status()
	if err != nil {
		log.Fatalf("Failed to read migration status: %v", err)
	}
	fmt.Printf("%s: %s\n", cfg.Storage.Path, status)
}
