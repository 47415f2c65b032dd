package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// BackupScheduler takes periodic backups and prunes old ones.
type BackupScheduler struct {
	manager *BackupManager
	config  *SchedulerConfig

	mu           sync.RWMutex
	running      bool
	lastBackup   time.Time
	lastPath     string
	lastError    error
	backupCount  int
	failureCount int
}

// SchedulerConfig holds configuration for the backup scheduler.
type SchedulerConfig struct {
	// Interval is how often to run backups, e.g. 24*time.Hour.
	Interval time.Duration

	// BackupConfig is used for each backup. BackupName is ignored so that
	// every run gets a timestamped file.
	BackupConfig *BackupConfig

	// Keep is how many backups to retain. Zero keeps all of them.
	Keep int

	// StartImmediately runs a backup as soon as the scheduler starts.
	StartImmediately bool

	// OnBackupComplete is called after each backup attempt.
	OnBackupComplete func(backupPath string, err error)
}

// DefaultSchedulerConfig returns a scheduler config with daily backups
// keeping the last week.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval:     24 * time.Hour,
		BackupConfig: DefaultBackupConfig(),
		Keep:         7,
	}
}

// NewBackupScheduler creates a new backup scheduler.
func NewBackupScheduler(manager *BackupManager, config *SchedulerConfig) *BackupScheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if config.BackupConfig == nil {
		config.BackupConfig = DefaultBackupConfig()
	}
	return &BackupScheduler{manager: manager, config: config}
}

// Run takes backups every interval until ctx is cancelled.
// Returns an error if the scheduler is already running or the interval is invalid.
func (s *BackupScheduler) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return fmt.Errorf("invalid backup interval %s", s.config.Interval)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.config.StartImmediately {
		_, _ = s.RunOnce()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.RunOnce()
		case <-ctx.Done():
			return nil
		}
	}
}

// RunOnce takes one backup, then prunes backups beyond the retention count.
func (s *BackupScheduler) RunOnce() (string, error) {
	cfg := *s.config.BackupConfig
	cfg.BackupName = ""

	backupPath, err := s.manager.Backup(&cfg)
	if err == nil {
		s.prune(cfg.BackupDir)
	} else {
		log.Printf("[Backup] Scheduled backup failed: %v", err)
	}

	s.mu.Lock()
	s.lastBackup = time.Now()
	s.lastPath = backupPath
	s.lastError = err
	if err != nil {
		s.failureCount++
	} else {
		s.backupCount++
	}
	s.mu.Unlock()

	if s.config.OnBackupComplete != nil {
		s.config.OnBackupComplete(backupPath, err)
	}

	return backupPath, err
}

func (s *BackupScheduler) prune(dir string) {
	if s.config.Keep <= 0 {
		return
	}

	backups, err := s.manager.ListBackups(dir)
	if err != nil {
		log.Printf("[Backup] Failed to list backups for pruning: %v", err)
		return
	}

	for _, b := range backups[min(s.config.Keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			log.Printf("[Backup] Failed to remove old backup %s: %v", b.Name, err)
			continue
		}
		log.Printf("[Backup] Removed old backup %s", b.Name)
	}
}

// IsRunning returns whether the scheduler loop is active.
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Status returns the current scheduler status.
func (s *BackupScheduler) Status() *SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	if s.running && !s.lastBackup.IsZero() {
		next = s.lastBackup.Add(s.config.Interval)
	}

	return &SchedulerStatus{
		Running:      s.running,
		Interval:     s.config.Interval,
		LastBackup:   s.lastBackup,
		LastPath:     s.lastPath,
		NextBackup:   next,
		BackupCount:  s.backupCount,
		FailureCount: s.failureCount,
		LastError:    s.lastError,
	}
}

// SchedulerStatus contains information about the scheduler state.
type SchedulerStatus struct {
	Running      bool
	Interval     time.Duration
	LastBackup   time.Time
	LastPath     string
	NextBackup   time.Time
	BackupCount  int
	FailureCount int
	LastError    error
}

// String returns a human-readable representation of the scheduler status.
func (s *SchedulerStatus) String() string {
	if !s.Running {
		return "Scheduler: Stopped"
	}

	status := "Scheduler: Running\n"
	status += fmt.Sprintf("  Interval: %s\n", s.Interval)
	status += fmt.Sprintf("  Total Backups: %d\n", s.BackupCount)
	status += fmt.Sprintf("  Failures: %d\n", s.FailureCount)

	if !s.LastBackup.IsZero() {
		status += fmt.Sprintf("  Last Backup: %s\n", s.LastBackup.Format(time.RFC3339))
	}
	if !s.NextBackup.IsZero() {
		status += fmt.Sprintf("  Next Backup: %s\n", s.NextBackup.Format(time.RFC3339))
	}
	if s.LastError != nil {
		status += fmt.Sprintf("  Last Error: %v\n", s.LastError)
	}

	return status
}
