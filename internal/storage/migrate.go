package storage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager applies the embedded collection schema to a database file.
type MigrationManager struct {
	migrate *migrate.Migrate
	source  source.Driver
}

// MigrationStatus describes the schema state of a database file.
type MigrationStatus struct {
	Current uint
	Latest  uint
	Dirty   bool
}

// Pending reports whether migrations remain to be applied.
func (s MigrationStatus) Pending() bool {
	return s.Current < s.Latest
}

func (s MigrationStatus) String() string {
	state := "up to date"
	switch {
	case s.Dirty:
		state = "dirty, manual repair needed"
	case s.Pending():
		state = "migrations pending"
	}
	return fmt.Sprintf("schema version %d of %d (%s)", s.Current, s.Latest, state)
}

// sqliteURL builds a golang-migrate URL. Windows paths need a leading slash.
func sqliteURL(dbPath string) string {
	p := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && p[0] != '/' {
		p = "/" + p
	}
	return "sqlite://" + p
}

// NewMigrationManager opens the database at dbPath for migration.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}

	src, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, sqliteURL(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return &MigrationManager{migrate: m, source: src}, nil
}

// Up applies all pending migrations. Already current is not an error.
func (mm *MigrationManager) Up() error {
	if err := mm.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back every migration.
func (mm *MigrationManager) Down() error {
	if err := mm.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version returns the applied version, 0 for an empty database.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the applied version with the newest embedded migration.
func (mm *MigrationManager) Status() (MigrationStatus, error) {
	current, dirty, err := mm.Version()
	if err != nil {
		return MigrationStatus{}, err
	}

	latest, err := mm.source.First()
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to read migrations: %w", err)
	}
	for {
		next, err := mm.source.Next(latest)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return MigrationStatus{}, fmt.Errorf("failed to read migrations: %w", err)
		}
		latest = next
	}

	return MigrationStatus{Current: current, Latest: latest, Dirty: dirty}, nil
}

// Close releases the source and database handles.
func (mm *MigrationManager) Close() error {
	srcErr, dbErr := mm.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
