package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/metrics"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const (
	backupPrefix    = "hotelpos_"
	backupSuffix    = ".db"
	backupWorker    = "backup"
	defaultInterval = 24 * time.Hour
)

// BackupService snapshots the SQLite database on a fixed interval and prunes
// snapshots past retention.
type BackupService struct {
	dbPath    string
	dir       string
	retention time.Duration
	interval  time.Duration
	enabled   bool
	logger    zerolog.Logger
}

// NewBackupService reads the interval from cfg.Schedule as a Go duration
// ("24h", "6h30m"); anything else falls back to daily.
func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	s := &BackupService{
		dbPath:    dbPath,
		dir:       cfg.StoragePath,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  defaultInterval,
		enabled:   cfg.Enabled,
		logger:    zerolog.Nop(),
	}
	if logger != nil {
		s.logger = *logger
	}
	if cfg.Schedule != "" {
		d, err := time.ParseDuration(cfg.Schedule)
		if err != nil || d <= 0 {
			s.logger.Warn().Str("schedule", cfg.Schedule).Msg("backup schedule is not a duration, backing up daily")
		} else {
			s.interval = d
		}
	}
	return s
}

// Start takes a snapshot right away and then every interval until ctx ends.
func (s *BackupService) Start(ctx context.Context) {
	if !s.enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}
	if s.dbPath == "" || s.dbPath == ":memory:" {
		s.logger.Warn().Msg("backups need a file-backed SQLite database, skipping")
		return
	}
	s.logger.Info().Dur("interval", s.interval).Str("dir", s.dir).Msg("backup service started")

	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	_, err := s.PerformBackup(ctx)
	metrics.IncWorkerRun(backupWorker, err)
	if err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	s.CleanupOldBackups()
}

// PerformBackup writes a consistent snapshot with VACUUM INTO and returns its
// path. When VACUUM INTO is unavailable the WAL is checkpointed and the file
// copied.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	target := filepath.Join(s.dir, backupPrefix+time.Now().UTC().Format("20060102T150405.000")+backupSuffix)

	src, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return "", fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	escaped := strings.ReplaceAll(target, "'", "''")
	if _, err := src.ExecContext(ctx, "VACUUM INTO '"+escaped+"'"); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, copying the file instead")
		if _, cerr := src.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("wal checkpoint failed")
		}
		if err := copyFile(s.dbPath, target); err != nil {
			return "", fmt.Errorf("copy database: %w", err)
		}
	}

	s.logger.Info().Str("path", target).Msg("backup written")
	return target, nil
}

// copyFile writes through a temp file so a half-written copy never carries a
// backup name.
func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := to + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, to)
}

// CleanupOldBackups removes snapshots older than retention and returns how
// many went. Zero retention keeps everything.
func (s *BackupService) CleanupOldBackups() int {
	if s.retention <= 0 {
		return 0
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup dir")
		return 0
	}

	cutoff := time.Now().Add(-s.retention)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("remove old backup")
			continue
		}
		s.logger.Info().Str("file", name).Msg("old backup removed")
		removed++
	}
	return removed
}
