package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// HealthChecker monitors and maintains database connection health
type HealthChecker struct {
	db            *sqlx.DB
	connect       func() (*sqlx.DB, error)
	logger        *slog.Logger
	checkInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	ticker        *time.Ticker
	mu            sync.RWMutex
	isHealthy     bool
}

// NewHealthChecker creates a new health checker. connect is used to
// re-establish the connection and may be nil to disable reconnects.
func NewHealthChecker(db *sqlx.DB, checkInterval time.Duration, connect func() (*sqlx.DB, error), logger *slog.Logger) *HealthChecker {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		db:            db,
		connect:       connect,
		logger:        logger,
		checkInterval: checkInterval,
		stopChan:      make(chan struct{}),
		isHealthy:     true,
	}
}

// DB returns the current connection
func (chc *HealthChecker) DB() *sqlx.DB {
	chc.mu.RLock()
	defer chc.mu.RUnlock()
	return chc.db
}

// Start begins monitoring the database connection
func (chc *HealthChecker) Start() {
	chc.ticker = time.NewTicker(chc.checkInterval)

	go func() {
		for {
			select {
			case <-chc.stopChan:
				chc.ticker.Stop()
				return
			case <-chc.ticker.C:
				chc.checkConnection()
			}
		}
	}()
}

// Stop stops monitoring the database connection
func (chc *HealthChecker) Stop() {
	chc.stopOnce.Do(func() {
		close(chc.stopChan)
	})
}

// checkConnection performs a health check on the database connection
func (chc *HealthChecker) checkConnection() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := chc.DB().PingContext(ctx)

	chc.mu.Lock()
	defer chc.mu.Unlock()

	if err != nil {
		chc.logger.Error("database health check failed", "error", err)
		chc.isHealthy = false

		// Attempt to reconnect
		if err := chc.reconnect(); err != nil {
			chc.logger.Error("failed to reconnect to database", "error", err)
		}
		return
	}

	if !chc.isHealthy {
		chc.logger.Info("database connection restored")
	}
	chc.isHealthy = true
}

// reconnect attempts to re-establish the database connection; callers hold mu
func (chc *HealthChecker) reconnect() error {
	if chc.connect == nil {
		return fmt.Errorf("reconnect not configured")
	}

	newDB, err := chc.connect()
	if err != nil {
		return err
	}

	if chc.db != nil {
		chc.db.Close()
	}

	chc.db = newDB
	chc.isHealthy = true
	chc.logger.Info("database connection re-established")
	return nil
}

// IsHealthy returns the current health status of the connection
func (chc *HealthChecker) IsHealthy() bool {
	chc.mu.RLock()
	defer chc.mu.RUnlock()
	return chc.isHealthy
}

// EnsureConnection ensures the connection is healthy before executing a query
func (chc *HealthChecker) EnsureConnection(ctx context.Context) error {
	chc.mu.RLock()
	isHealthy := chc.isHealthy
	db := chc.db
	chc.mu.RUnlock()

	if !isHealthy {
		return fmt.Errorf("database connection is not healthy")
	}

	// Perform a quick ping to verify
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		// a cancelled caller says nothing about the database
		if ctx.Err() != nil {
			return fmt.Errorf("database connection check aborted: %w", ctx.Err())
		}
		chc.mu.Lock()
		chc.isHealthy = false
		chc.mu.Unlock()
		return fmt.Errorf("database connection check failed: %w", err)
	}

	return nil
}
