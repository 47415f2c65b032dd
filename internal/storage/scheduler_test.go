package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackupScheduler_Defaults(t *testing.T) {
	scheduler := NewBackupScheduler(NewBackupManager("/tmp/x.db"), nil)

	assert.Equal(t, 24*time.Hour, scheduler.config.Interval)
	assert.Equal(t, 7, scheduler.config.Keep)
	assert.NotNil(t, scheduler.config.BackupConfig)

	scheduler = NewBackupScheduler(NewBackupManager("/tmp/x.db"), &SchedulerConfig{Interval: time.Hour})
	assert.NotNil(t, scheduler.config.BackupConfig, "nil backup config is replaced")
}

func TestBackupScheduler_RunOnce_PrunesOldBackups(t *testing.T) {
	store, path := seededStore(t)
	defer func() { _ = store.Close() }()

	backupDir := filepath.Join(t.TempDir(), "backups")
	var completed int
	scheduler := NewBackupScheduler(NewBackupManager(path), &SchedulerConfig{
		Interval:     time.Hour,
		BackupConfig: &BackupConfig{BackupDir: backupDir, BackupName: "ignored", VerifyBackup: true},
		Keep:         2,
		OnBackupComplete: func(string, error) {
			completed++
		},
	})

	var paths []string
	for i := 0; i < 4; i++ {
		p, err := scheduler.RunOnce()
		require.NoError(t, err)
		assert.False(t, strings.Contains(p, "ignored"), "scheduled backups are timestamped")
		paths = append(paths, p)
		time.Sleep(5 * time.Millisecond)
	}

	backups, err := scheduler.manager.ListBackups(backupDir)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, paths[3], backups[0].Path)
	assert.Equal(t, paths[2], backups[1].Path)

	status := scheduler.Status()
	assert.Equal(t, 4, status.BackupCount)
	assert.Equal(t, 0, status.FailureCount)
	assert.Equal(t, paths[3], status.LastPath)
	assert.Equal(t, 4, completed)
}

func TestBackupScheduler_RunOnce_Failure(t *testing.T) {
	scheduler := NewBackupScheduler(NewBackupManager(filepath.Join(t.TempDir(), "missing", "x.db")), &SchedulerConfig{
		Interval:     time.Hour,
		BackupConfig: &BackupConfig{BackupDir: t.TempDir()},
	})

	_, err := scheduler.RunOnce()
	assert.Error(t, err)

	status := scheduler.Status()
	assert.Equal(t, 1, status.FailureCount)
	assert.Error(t, status.LastError)
}

func TestBackupScheduler_Run(t *testing.T) {
	store, path := seededStore(t)
	defer func() { _ = store.Close() }()

	var runs atomic.Int32
	scheduler := NewBackupScheduler(NewBackupManager(path), &SchedulerConfig{
		Interval:         50 * time.Millisecond,
		BackupConfig:     &BackupConfig{BackupDir: t.TempDir()},
		StartImmediately: true,
		OnBackupComplete: func(_ string, err error) {
			if err == nil {
				runs.Add(1)
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, scheduler.IsRunning())
	assert.Error(t, scheduler.Run(ctx), "second Run must be rejected")

	cancel()
	require.NoError(t, <-done)
	assert.False(t, scheduler.IsRunning())
}

func TestBackupScheduler_Run_InvalidInterval(t *testing.T) {
	scheduler := NewBackupScheduler(NewBackupManager("x.db"), &SchedulerConfig{})
	assert.Error(t, scheduler.Run(context.Background()))
}

func TestSchedulerStatus_String(t *testing.T) {
	assert.Equal(t, "Scheduler: Stopped", (&SchedulerStatus{}).String())

	s := &SchedulerStatus{
		Running:     true,
		Interval:    time.Hour,
		BackupCount: 3,
		LastBackup:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		LastError:   errors.New("disk full"),
	}
	out := s.String()
	assert.Contains(t, out, "Interval: 1h0m0s")
	assert.Contains(t, out, "Total Backups: 3")
	assert.Contains(t, out, "Last Backup: 2025-01-02T03:04:05Z")
	assert.Contains(t, out, "Last Error: disk full")
}
