//go:build !wasm
// +build !wasm

package gorm

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/travito/travito"
)

// Options tune the connection pool and query logging.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Log every SQL statement (development only)
	LogQueries bool
}

// Dialect returns "postgres" or "sqlite" for a DATABASE_URL.
// postgres:// and postgresql:// select PostgreSQL; file:, sqlite: and bare
// paths select SQLite.
func Dialect(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// Open connects to the database named by databaseURL.
func Open(databaseURL string, opts Options) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database URL is empty", travito.ErrConfiguration)
	}

	var dialector gorm.Dialector
	switch Dialect(databaseURL) {
	case "postgres":
		dialector = postgres.Open(databaseURL)
	default:
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite:"))
	}

	logLevel := logger.Warn
	if opts.LogQueries {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", travito.ErrPersistence, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", travito.ErrPersistence, err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}
