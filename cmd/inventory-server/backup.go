package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ramonehamilton/PTCG-Inventory/internal/config"
	"github.com/ramonehamilton/PTCG-Inventory/internal/storage"
)

func printBackupUsage() {
	fmt.Println("Usage: inventory-server [-config path] backup <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create [-name NAME]     Create a backup of the local database")
	fmt.Println("  list                    List existing backups")
	fmt.Println("  restore <path>          Restore the database from a backup (stop the server first)")
	fmt.Println("  verify <path>           Check a plain backup's integrity")
	fmt.Println()
	fmt.Println("Set PTCG_BACKUP_PASSWORD to create or restore encrypted backups.")
}

func runBackupCommand(cfg *config.Config, args []string) {
	if cfg.Storage.Mode != config.StorageLocal {
		log.Fatalf("Backups are only available in local storage mode (current: %s)", cfg.Storage.Mode)
	}
	if len(args) == 0 {
		printBackupUsage()
		os.Exit(1)
	}

	manager := storage.NewBackupManager(cfg.Storage.Path)

	switch args[0] {
	case "create":
		createFlags := flag.NewFlagSet("create", flag.ExitOnError)
		name := createFlags.String("name", "", "Backup name (default: timestamp)")
		if err := createFlags.Parse(args[1:]); err != nil {
			log.Fatalf("Error parsing flags: %v", err)
		}

		if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
			log.Fatalf("Database file does not exist: %s", cfg.Storage.Path)
		}

		bc := backupConfig(cfg)
		bc.BackupName = *name
		path, err := manager.Backup(bc)
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		fmt.Printf("Backup created: %s\n", path)

	case "list", "ls":
		backups, err := manager.ListBackups(cfg.Backup.Dir)
		if err != nil {
			log.Fatalf("Failed to list backups: %v", err)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found.")
			return
		}
		fmt.Printf("%-40s %10s  %-20s %s\n", "NAME", "SIZE", "CREATED", "ENCRYPTED")
		for _, b := range backups {
			fmt.Printf("%-40s %10d  %-20s %t\n", b.Name, b.Size, b.ModTime.Format("2006-01-02 15:04:05"), b.Encrypted)
		}

	case "restore":
		if len(args) < 2 {
			log.Fatal("Usage: backup restore <path>")
		}
		var enc *storage.EncryptionConfig
		if cfg.Backup.Password != "" {
			enc = storage.DefaultEncryptionConfig(cfg.Backup.Password)
		}
		if err := manager.Restore(args[1], enc); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		fmt.Printf("Database restored from %s\n", args[1])

	case "verify":
		if len(args) < 2 {
			log.Fatal("Usage: backup verify <path>")
		}
		if err := manager.VerifyBackup(args[1]); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		fmt.Println("Backup is valid.")

	default:
		printBackupUsage()
		os.Exit(1)
	}
}
