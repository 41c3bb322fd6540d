package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "hotel.db")
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, db.CreateRoom(context.Background(), &models.Room{Number: "101", Type: "DOUBLE"}))
	require.NoError(t, db.Close())

	s := NewBackupService(dbPath, config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(context.Background())
		require.NoError(t, err)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)

		// the copy is a usable database
		copyDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		require.NoError(t, err)
		var count int64
		require.NoError(t, copyDB.Model(&models.Room{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		sqlDB, _ := copyDB.DB()
		sqlDB.Close()
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "hotelpos_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		foreign := filepath.Join(storagePath, "manual_copy.db")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		assert.Equal(t, 1, s.CleanupOldBackups())

		assert.NoFileExists(t, oldFile)
		assert.FileExists(t, foreign)
		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService("any", config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}

func TestBackupService_MemoryDatabaseSkipped(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(":memory:", config.BackupConfig{Enabled: true}, &logger)
	s.Start(context.Background())
}

func TestBackupScheduleParsing(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, 6*time.Hour, NewBackupService("x.db", config.BackupConfig{Schedule: "6h"}, &logger).interval)
	assert.Equal(t, 24*time.Hour, NewBackupService("x.db", config.BackupConfig{Schedule: "0 3 * * *"}, &logger).interval)
	assert.Equal(t, 24*time.Hour, NewBackupService("x.db", config.BackupConfig{}, nil).interval)
}
