package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/logging"
	"hotelpos/internal/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB is the gorm-backed implementation of domain.Store.
type DB struct {
	gorm   *gorm.DB
	driver string
	path   string
	logger *zerolog.Logger
	inTx   bool
}

var _ domain.Store = (*DB)(nil)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL")
	case "mysql":
		dialector = gormmysql.Open(MySQLDSN(cfg.MySQL))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	g, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.NewGormLogger(*logger, cfg.LogSQL),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if cfg.Driver == "mysql" {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// single writer; also keeps :memory: databases on one connection
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{gorm: g, driver: cfg.Driver, path: cfg.Path, logger: logger}
	if db.driver == "" {
		db.driver = "sqlite"
	}

	if err := db.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", db.driver).Msg("database initialized")
	return db, nil
}

// NewDB opens a SQLite database at path.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	return Open(config.DatabaseConfig{Driver: "sqlite", Path: path}, logger)
}

// MySQLDSN builds a go-sql-driver DSN from config.
func MySQLDSN(cfg config.MySQLConfig) string {
	mc := mysqldriver.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	// report matched rows so no-op updates are not mistaken for missing rows
	mc.ClientFoundRows = true
	mc.Loc = time.UTC
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

func (db *DB) Migrate(ctx context.Context) error {
	if err := db.gorm.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Path() string {
	if db.driver != "sqlite" {
		return ""
	}
	return db.path
}

func (db *DB) Driver() string { return db.driver }

func (db *DB) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return db.tx(ctx, func(tx *DB) error { return fn(tx) })
}

func (db *DB) tx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}
	return db.gorm.WithContext(ctx).Transaction(func(g *gorm.DB) error {
		cp := *db
		cp.gorm = g
		cp.inTx = true
		return fn(&cp)
	})
}

func (db *DB) conn(ctx context.Context) *gorm.DB {
	return db.gorm.WithContext(ctx)
}

// translate maps driver errors onto domain kinds.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("%s not found", entity)
	}
	if isDuplicate(err) {
		return &domain.Error{Kind: domain.KindConflict, Message: entity + " already exists", Err: err}
	}
	return fmt.Errorf("failed to access %s: %w", entity, err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFoundIfNone(res *gorm.DB, entity string, id int64) error {
	if res.Error != nil {
		return translate(res.Error, entity)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("%s %d not found", entity, id)
	}
	return nil
}
