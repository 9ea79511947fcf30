package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

func init() {
	// modernc registers itself as "sqlite" which sqlx does not know about
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DatabaseManager handles all database operations
type DatabaseManager struct {
	cfg           Config
	healthChecker *HealthChecker
	logger        *slog.Logger
}

// NewDatabaseManager connects to the configured database and starts health checking
func NewDatabaseManager(cfg Config, logger *slog.Logger) (*DatabaseManager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "database", "driver", cfg.Driver)

	connect := func() (*sqlx.DB, error) {
		return connectDatabase(cfg)
	}

	db, err := connect()
	if err != nil {
		return nil, err
	}

	dm := &DatabaseManager{
		cfg:           cfg,
		healthChecker: NewHealthChecker(db, cfg.HealthInterval, connect, logger),
		logger:        logger,
	}

	// Start health checking
	dm.healthChecker.Start()

	return dm, nil
}

// GetDB returns the underlying database connection
func (dm *DatabaseManager) GetDB() *sqlx.DB {
	return dm.healthChecker.DB()
}

// Driver returns the name of the database driver in use
func (dm *DatabaseManager) Driver() string {
	return dm.GetDB().DriverName()
}

// Close closes the database connection and stops health checking
func (dm *DatabaseManager) Close() error {
	dm.healthChecker.Stop()
	if db := dm.GetDB(); db != nil {
		return db.Close()
	}
	return nil
}

// IsConnectionHealthy returns the current health status
func (dm *DatabaseManager) IsConnectionHealthy() bool {
	return dm.healthChecker.IsHealthy()
}

// Ping verifies the connection right now
func (dm *DatabaseManager) Ping(ctx context.Context) error {
	return dm.healthChecker.EnsureConnection(ctx)
}

// Init initializes the database with migrations
func (dm *DatabaseManager) Init() error {
	dm.logger.Info("running database migrations")

	runner, err := NewMigrationsRunner(dm.GetDB(), dm.logger)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	if err := runner.Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dm.logger.Info("database initialization completed")
	return nil
}

// selectWithHealthCheck runs a rebound query and scans all rows into dest
func (dm *DatabaseManager) selectWithHealthCheck(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}

	db := dm.GetDB()
	return db.SelectContext(ctx, dest, db.Rebind(query), args...)
}

// getWithHealthCheck runs a rebound query and scans a single row into dest
func (dm *DatabaseManager) getWithHealthCheck(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}

	db := dm.GetDB()
	err := db.GetContext(ctx, dest, db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// execWithHealthCheck executes a rebound statement with connection health verification
func (dm *DatabaseManager) execWithHealthCheck(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	db := dm.GetDB()
	return db.ExecContext(ctx, db.Rebind(query), args...)
}

// inTx runs fn inside a transaction, rolling back on error
func (dm *DatabaseManager) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}

	tx, err := dm.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			dm.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func connectDatabase(cfg Config) (*sqlx.DB, error) {
	dsn, err := cfg.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	if cfg.Driver == DriverSQLite {
		// a single writer; also keeps ":memory:" databases on one connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	return db, nil
}
