package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sguter90/airsentinel/pkg/models"
)

func TestNewHealthChecker(t *testing.T) {
	db := &sqlx.DB{}
	interval := 5 * time.Second

	hc := NewHealthChecker(db, interval, nil, nil)

	if hc == nil {
		t.Fatal("Expected HealthChecker instance, got nil")
	}

	if hc.DB() != db {
		t.Error("Expected db to be set correctly")
	}

	if hc.checkInterval != interval {
		t.Errorf("Expected checkInterval=%v, got %v", interval, hc.checkInterval)
	}

	if !hc.isHealthy {
		t.Error("Expected initial health status to be true")
	}

	if hc.stopChan == nil {
		t.Error("Expected stopChan to be initialized")
	}
}

func TestNewHealthCheckerDefaultInterval(t *testing.T) {
	hc := NewHealthChecker(&sqlx.DB{}, 0, nil, nil)

	if hc.checkInterval != 30*time.Second {
		t.Errorf("Expected default interval, got %v", hc.checkInterval)
	}
}

func TestIsHealthy(t *testing.T) {
	hc := NewHealthChecker(&sqlx.DB{}, 5*time.Second, nil, nil)

	if !hc.IsHealthy() {
		t.Error("Expected initial health status to be true")
	}

	hc.mu.Lock()
	hc.isHealthy = false
	hc.mu.Unlock()

	if hc.IsHealthy() {
		t.Error("Expected health status to be false after manual change")
	}
}

func TestStartStop(t *testing.T) {
	dm := setupSQLiteManager(t)
	hc := NewHealthChecker(dm.GetDB(), 20*time.Millisecond, nil, discardLogger())

	hc.Start()

	if hc.ticker == nil {
		t.Error("Expected ticker to be initialized after Start()")
	}

	time.Sleep(50 * time.Millisecond)

	if !hc.IsHealthy() {
		t.Error("Expected connection to stay healthy")
	}

	hc.Stop()
	hc.Stop()
}

func TestEnsureConnection(t *testing.T) {
	dm := setupSQLiteManager(t)
	hc := NewHealthChecker(dm.GetDB(), time.Minute, nil, discardLogger())

	if err := hc.EnsureConnection(context.Background()); err != nil {
		t.Errorf("Expected EnsureConnection to succeed: %v", err)
	}

	hc.mu.Lock()
	hc.isHealthy = false
	hc.mu.Unlock()

	if err := hc.EnsureConnection(context.Background()); err == nil {
		t.Error("Expected EnsureConnection to fail while unhealthy")
	}
}

func TestEnsureConnectionCancelledCallerKeepsHealth(t *testing.T) {
	dm := setupSQLiteManager(t)
	hc := NewHealthChecker(dm.GetDB(), time.Minute, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := hc.EnsureConnection(ctx); err == nil {
		t.Error("Expected EnsureConnection to fail for a cancelled context")
	}
	if !hc.IsHealthy() {
		t.Fatal("Expected a cancelled caller to leave the connection healthy")
	}
	if err := hc.EnsureConnection(context.Background()); err != nil {
		t.Errorf("Expected the next caller to succeed: %v", err)
	}
}

func TestStoreReadingAfterCancelledRequest(t *testing.T) {
	dm := setupSQLiteManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := models.Reading{
		ID:          uuid.New(),
		Timestamp:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Temperature: models.Present(21),
	}
	if err := dm.StoreReading(ctx, &first); err == nil {
		t.Error("Expected StoreReading to fail for a cancelled context")
	}

	second := first
	second.ID = uuid.New()
	if err := dm.StoreReading(context.Background(), &second); err != nil {
		t.Fatalf("Expected StoreReading to succeed after a cancelled request: %v", err)
	}
}

func TestCheckConnectionReconnects(t *testing.T) {
	broken := setupSQLiteManager(t).GetDB()
	broken.Close()

	fresh := setupSQLiteManager(t).GetDB()
	calls := 0
	connect := func() (*sqlx.DB, error) {
		calls++
		return fresh, nil
	}

	hc := NewHealthChecker(broken, time.Minute, connect, discardLogger())
	hc.checkConnection()

	if calls != 1 {
		t.Fatalf("Expected one reconnect attempt, got %d", calls)
	}
	if hc.DB() != fresh {
		t.Error("Expected the fresh connection to be used")
	}
	if !hc.IsHealthy() {
		t.Error("Expected health to be restored after reconnect")
	}
}

func TestCheckConnectionWithoutReconnect(t *testing.T) {
	broken := setupSQLiteManager(t).GetDB()
	broken.Close()

	hc := NewHealthChecker(broken, time.Minute, nil, discardLogger())
	hc.checkConnection()

	if hc.IsHealthy() {
		t.Error("Expected connection to be unhealthy")
	}
}
