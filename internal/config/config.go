package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// envPrefix prefixes every environment override, e.g. PTCG_STORAGE_MODE.
const envPrefix = "PTCG"

// Storage modes.
const (
	StorageLocal  = "local"
	StorageRemote = "remote"
	StorageMemory = "memory"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the application configuration.
type Config struct {
	App     AppConfig     `toml:"app" envconfig:"APP"`
	Storage StorageConfig `toml:"storage" envconfig:"STORAGE"`
	Catalog CatalogConfig `toml:"catalog" envconfig:"CATALOG"`
	Cache   CacheConfig   `toml:"cache" envconfig:"CACHE"`
	Server  ServerConfig  `toml:"server" envconfig:"SERVER"`
	Update  UpdateConfig  `toml:"update" envconfig:"UPDATE"`
	Backup  BackupConfig  `toml:"backup" envconfig:"BACKUP"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode" split_words:"true"` // Enable debug logging
}

// StorageConfig selects and configures the collection store.
type StorageConfig struct {
	Mode     string `toml:"mode" split_words:"true"`      // local, remote or memory
	Path     string `toml:"path" split_words:"true"`      // SQLite file (local mode)
	DSN      string `toml:"dsn" split_words:"true"`       // PostgreSQL URL (remote mode)
	MaxConns int32  `toml:"max_conns" split_words:"true"` // Remote pool size
}

// CatalogConfig contains catalog provider settings.
type CatalogConfig struct {
	Language          string `toml:"language" split_words:"true"`                         // Default collection language
	PokemonTCGBaseURL string `toml:"pokemontcg_base_url" envconfig:"POKEMONTCG_BASE_URL"` // English catalog
	PokemonTCGAPIKey  string `toml:"pokemontcg_api_key" envconfig:"POKEMONTCG_API_KEY"`
	TCGdexBaseURL     string `toml:"tcgdex_base_url" envconfig:"TCGDEX_BASE_URL"` // Localized catalog
	RequestTimeout    string `toml:"request_timeout" split_words:"true"`          // e.g. "30s"
}

// CacheConfig contains reconciled set list caching settings.
type CacheConfig struct {
	Enabled       bool   `toml:"enabled" split_words:"true"`
	Type          string `toml:"type" split_words:"true"`     // memory or redis
	TTL           string `toml:"ttl" split_words:"true"`      // e.g. "6h"
	MaxSize       int    `toml:"max_size" split_words:"true"` // Memory cache entries
	RedisAddr     string `toml:"redis_addr" split_words:"true"`
	RedisPassword string `toml:"redis_password" split_words:"true"`
	RedisDB       int    `toml:"redis_db" split_words:"true"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `toml:"host" split_words:"true"`
	Port            int    `toml:"port" split_words:"true"`
	ShutdownTimeout string `toml:"shutdown_timeout" split_words:"true"`
}

// UpdateConfig contains release check settings.
type UpdateConfig struct {
	Enabled    bool   `toml:"enabled" split_words:"true"`
	APIBaseURL string `toml:"api_base_url" split_words:"true"`
	Owner      string `toml:"owner" split_words:"true"`
	Repo       string `toml:"repo" split_words:"true"`
}

// BackupConfig contains local database backup settings.
type BackupConfig struct {
	Dir    string `toml:"dir" split_words:"true"` // Empty uses the directory next to the database
	Verify bool   `toml:"verify" split_words:"true"`

	// Interval between scheduled backups in local mode, e.g. "24h".
	// Empty disables scheduling.
	Interval string `toml:"interval" split_words:"true"`
	Keep     int    `toml:"keep" split_words:"true"` // Scheduled backups to retain, 0 keeps all

	// Password enables encrypted backups. It is only read from the
	// environment and never written to the config file.
	Password string `toml:"-" split_words:"true"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			DebugMode: false,
		},
		Storage: StorageConfig{
			Mode:     StorageLocal,
			Path:     "",
			MaxConns: 4,
		},
		Catalog: CatalogConfig{
			Language:          "en",
			PokemonTCGBaseURL: "https://api.pokemontcg.io",
			TCGdexBaseURL:     "https://api.tcgdex.net",
			RequestTimeout:    "30s",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Type:      CacheMemory,
			TTL:       "6h",
			MaxSize:   64,
			RedisAddr: "localhost:6379",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8765,
			ShutdownTimeout: "10s",
		},
		Update: UpdateConfig{
			Enabled:    true,
			APIBaseURL: "https://api.github.com",
			Owner:      "ramonehamilton",
			Repo:       "PTCG-Inventory",
		},
		Backup: BackupConfig{
			Verify: true,
			Keep:   7,
		},
	}
}

// Dir returns the application directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".ptcg-inventory")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return dir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location and applies
// environment overrides.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a TOML file over the defaults, then applies a .env file from
// the working directory (if any) and PTCG_* environment variables.
// A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Silent when there is no .env file.
	_ = godotenv.Load()

	if err := envconfig.Process(envPrefix, config); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if config.Storage.Mode == StorageLocal && config.Storage.Path == "" {
		dir := filepath.Dir(path)
		config.Storage.Path = filepath.Join(dir, "inventory.db")
	}

	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration as TOML.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	switch c.Storage.Mode {
	case StorageLocal:
		if c.Storage.Path == "" {
			return errors.New("storage path is required in local mode")
		}
	case StorageRemote:
		if c.Storage.DSN == "" {
			return errors.New("storage dsn is required in remote mode")
		}
		if c.Storage.MaxConns < 0 {
			return fmt.Errorf("storage max conns cannot be negative: %d", c.Storage.MaxConns)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage mode %q", c.Storage.Mode)
	}

	if strings.TrimSpace(c.Catalog.Language) == "" {
		return errors.New("catalog language is required")
	}
	if _, err := time.ParseDuration(c.Catalog.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Catalog.RequestTimeout, err)
	}

	if c.Cache.Enabled {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
		}
		if c.Cache.MaxSize < 0 {
			return fmt.Errorf("cache max size cannot be negative: %d", c.Cache.MaxSize)
		}
		if c.Cache.Type != CacheMemory && c.Cache.Type != CacheRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown timeout %q: %w", c.Server.ShutdownTimeout, err)
	}

	if c.Backup.Interval != "" {
		d, err := time.ParseDuration(c.Backup.Interval)
		if err != nil {
			return fmt.Errorf("invalid backup interval %q: %w", c.Backup.Interval, err)
		}
		if d < time.Minute {
			return fmt.Errorf("backup interval must be at least 1m: %s", d)
		}
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup keep cannot be negative: %d", c.Backup.Keep)
	}

	return nil
}

// GetBackupInterval returns the scheduled backup interval, or 0 when disabled.
func (c *Config) GetBackupInterval() (time.Duration, error) {
	if c.Backup.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Backup.Interval)
}

// GetRequestTimeout returns the catalog request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Catalog.RequestTimeout)
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetShutdownTimeout returns the server shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
