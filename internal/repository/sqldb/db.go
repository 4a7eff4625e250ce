// Package sqldb is the relational backend of the repositories, built on GORM.
// Postgres is the production target; SQLite serves single-node setups and tests.
package sqldb

import (
	"alcyxob/coaching-platform/internal/repository"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects the driver and connection for Open.
type Options struct {
	Driver   string
	DSN      string // postgres DSN or sqlite path/URI
	LogLevel string // gorm log level: silent|error|warn|info
}

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// Open connects to the database. It does not migrate; call Migrate for that.
func Open(opts Options, logger *zap.Logger) (*Client, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", opts.Driver)
	}

	gormLogger, levelErr := newGormLogger(logger, opts.LogLevel)
	if levelErr != nil {
		logger.Warn("invalid gorm log level, using default", zap.String("value", opts.LogLevel), zap.Error(levelErr))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// SQLite allows a single writer; one connection keeps transactions and
		// shared in-memory databases consistent.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access underlying DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &Client{db: db}, nil
}

// Migrate creates or updates every table and index the repositories use.
func (c *Client) Migrate() error {
	if err := c.db.AutoMigrate(
		&userRow{},
		&planRow{},
		&weekRow{},
		&dayRow{},
		&workoutRow{},
		&defaultsRow{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users returns the user repository backed by this client.
func (c *Client) Users() repository.UserRepository { return &userRepository{db: c.db} }

// Plans returns the plan repository backed by this client.
func (c *Client) Plans() repository.PlanRepository { return &planRepository{db: c.db} }

// Defaults returns the defaults repository backed by this client.
func (c *Client) Defaults() repository.DefaultsRepository { return &defaultsRepository{db: c.db} }

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
