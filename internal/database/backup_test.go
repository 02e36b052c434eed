package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salonbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RecordBooking(ctx, record("apt-1", 1, "2025-03-10", "10:00")))

	dir := filepath.Join(t.TempDir(), "backups")
	logger := zerolog.Nop()
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, Interval: "1h", StoragePath: dir, RetentionDays: 7}, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := svc.PerformBackup(ctx)
		require.NoError(t, err)
		assert.FileExists(t, path)

		copyDB, err := NewDB(path, nil)
		require.NoError(t, err)
		defer copyDB.Close()
		list, err := copyDB.GetChatBookings(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		old := filepath.Join(dir, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
		past := time.Now().AddDate(0, 0, -10)
		require.NoError(t, os.Chtimes(old, past, past))

		foreign := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(foreign, past, past))

		assert.Equal(t, 1, svc.CleanupOldBackups())
		assert.NoFileExists(t, old)
		assert.FileExists(t, foreign)
	})

	t.Run("StartDisabled", func(t *testing.T) {
		disabled := NewBackupService(db, config.BackupConfig{}, &logger)
		disabled.Start(ctx) // returns immediately
	})

	t.Run("StartStopsOnCancel", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			svc.Start(cctx)
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("backup service did not stop")
		}
	})
}
