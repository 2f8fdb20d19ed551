package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// retryDelays is the wait before each reconnect attempt
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}

// gormConfig returns the shared gorm settings. Duplicate-key failures are
// translated to gorm.ErrDuplicatedKey so get-or-create can re-fetch.
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

func dialector(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
	}
}

// Open makes a single connection attempt and configures the pool
func Open(cfg DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	configureConnectionPool(sqlDB, cfg)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// InitDatabase connects to the configured database, retrying with
// exponential backoff while the server is unreachable.
func InitDatabase(ctx context.Context, cfg DatabaseConfig) (*gorm.DB, error) {
	log.WithFields(logrus.Fields{
		"db_driver": cfg.Driver,
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	var err error
	for attempt := 0; ; attempt++ {
		var db *gorm.DB
		db, err = Open(cfg)
		if err == nil {
			log.WithField("attempt", attempt+1).Info("Database initialized successfully")
			return db, nil
		}
		if attempt >= len(retryDelays) {
			break
		}

		delay := retryDelays[attempt]
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("Database connection attempt failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", len(retryDelays)+1, err)
}

func configureConnectionPool(sqlDB *sql.DB, cfg DatabaseConfig) {
	maxOpen, lifetime := 25, 5*time.Minute
	// every connection to :memory: opens a separate empty database
	if !strings.HasPrefix(strings.ToLower(cfg.Driver), "postgres") && strings.HasPrefix(cfg.Path, ":memory:") {
		maxOpen, lifetime = 1, 0
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(lifetime)

	log.WithFields(logrus.Fields{
		"max_open_conns":    maxOpen,
		"max_idle_conns":    5,
		"conn_max_lifetime": lifetime.String(),
	}).Debug("Connection pool configured")
}
