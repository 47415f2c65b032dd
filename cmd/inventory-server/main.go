// Package main runs the inventory REST API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api"
	"github.com/ramonehamilton/PTCG-Inventory/internal/cache"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog/pokemontcg"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog/tcgdex"
	"github.com/ramonehamilton/PTCG-Inventory/internal/config"
	"github.com/ramonehamilton/PTCG-Inventory/internal/events"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
	"github.com/ramonehamilton/PTCG-Inventory/internal/storage"
	"github.com/ramonehamilton/PTCG-Inventory/internal/storage/remote"
	"github.com/ramonehamilton/PTCG-Inventory/internal/updater"
	"github.com/ramonehamilton/PTCG-Inventory/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.ptcg-inventory/config.toml)")
	debugMode  = flag.Bool("d", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "backup":
			runBackupCommand(cfg, args[1:])
			return
		case "migrate":
			runMigrateCommand(cfg, args[1:])
			return
		}
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if *debugMode {
		cfg.App.DebugMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	fmt.Println("PTCG Inventory - REST API Server")
	fmt.Println("================================")
	fmt.Printf("Version: %s\n\n", version.GetVersion())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	setCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	if closer, ok := setCache.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return err
	}
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return err
	}

	english := pokemontcg.NewClient(pokemontcg.Options{
		BaseURL: cfg.Catalog.PokemonTCGBaseURL,
		APIKey:  cfg.Catalog.PokemonTCGAPIKey,
		Timeout: timeout,
	})
	localized := tcgdex.NewClient(tcgdex.Options{
		BaseURL: cfg.Catalog.TCGdexBaseURL,
		Timeout: timeout,
	})
	catalogService := catalog.NewService(english, localized, catalog.ServiceOptions{
		Cache:    setCache,
		CacheTTL: ttl,
	})

	dispatcher := events.NewEventDispatcher()
	if cfg.App.DebugMode {
		dispatcher.Register(events.NewLoggingObserver(true))
	}

	repo := inventory.NewRepository(store, dispatcher)
	collection := inventory.NewService(catalogService, repo)

	deps := api.Dependencies{
		Catalog:    catalogService,
		Collection: collection,
		Dispatcher: dispatcher,
	}
	if cfg.Update.Enabled {
		deps.Checker = updater.NewChecker(updater.Options{
			APIBaseURL: cfg.Update.APIBaseURL,
			Owner:      cfg.Update.Owner,
			Repo:       cfg.Update.Repo,
		})
	}

	if cfg.Storage.Mode == config.StorageLocal {
		if err := startBackupScheduler(ctx, cfg); err != nil {
			return err
		}
	}

	server := api.NewServer(&api.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, deps)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}

	fmt.Printf("API server running at http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	shutdownTimeout, err := cfg.GetShutdownTimeout()
	if err != nil {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	fmt.Println("API server stopped.")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (inventory.Store, error) {
	switch cfg.Storage.Mode {
	case config.StorageLocal:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		log.Printf("[Storage] Using SQLite database %s", cfg.Storage.Path)
		return storage.OpenStore(cfg.Storage.Path)

	case config.StorageRemote:
		rc := remote.DefaultConfig(cfg.Storage.DSN)
		if cfg.Storage.MaxConns > 0 {
			rc.MaxConns = cfg.Storage.MaxConns
		}
		log.Println("[Storage] Using PostgreSQL database")
		return remote.Open(ctx, rc)

	case config.StorageMemory:
		log.Println("[Storage] Using in-memory store, nothing will be persisted")
		return inventory.NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
}

func openCache(cfg *config.Config) (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Type {
	case config.CacheRedis:
		c, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryCache(cfg.Cache.MaxSize)
	}
}

func backupConfig(cfg *config.Config) *storage.BackupConfig {
	bc := storage.DefaultBackupConfig()
	bc.BackupDir = cfg.Backup.Dir
	bc.VerifyBackup = cfg.Backup.Verify
	if cfg.Backup.Password != "" {
		bc.Encryption = storage.DefaultEncryptionConfig(cfg.Backup.Password)
	}
	return bc
}

func startBackupScheduler(ctx context.Context, cfg *config.Config) error {
	interval, err := cfg.GetBackupInterval()
	if err != nil {
		return err
	}
	if interval == 0 {
		return nil
	}

	scheduler := storage.NewBackupScheduler(storage.NewBackupManager(cfg.Storage.Path), &storage.SchedulerConfig{
		Interval:     interval,
		BackupConfig: backupConfig(cfg),
		Keep:         cfg.Backup.Keep,
	})

	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[Backup] Scheduler stopped: %v", err)
		}
	}()

	log.Printf("[Backup] Scheduled every %s, keeping %d", interval, cfg.Backup.Keep)
	return nil
}
