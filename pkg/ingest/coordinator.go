// Package ingest flags and persists incoming readings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/airsentinel/pkg/anomaly"
	"github.com/sguter90/airsentinel/pkg/models"
)

// ErrEmptyReading is returned for readings without timestamp
var ErrEmptyReading = errors.New("reading has no timestamp")

// Store is the persistence the coordinator depends on
type Store interface {
	// RecentMetricValues returns up to limit most recent non-missing values of a metric, newest first
	RecentMetricValues(ctx context.Context, metric models.Metric, limit int) ([]float64, error)

	// StoreReading persists a flagged reading
	StoreReading(ctx context.Context, reading *models.Reading) error
}

// Notifier is informed about every persisted reading
type Notifier interface {
	Notify(ctx context.Context, reading models.Reading, flags anomaly.Flags) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, reading models.Reading, flags anomaly.Flags) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, reading models.Reading, flags anomaly.Flags) error {
	return f(ctx, reading, flags)
}

// Coordinator classifies incoming readings against the rolling history and persists them
type Coordinator struct {
	store     Store
	history   *History
	notifiers []Notifier
	logger    *slog.Logger

	mu     sync.Mutex
	warmed bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithHistorySize sets the number of values kept per metric
func WithHistorySize(size int) Option {
	return func(c *Coordinator) {
		c.history = NewHistory(size)
	}
}

// WithNotifier registers a notifier for persisted readings
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifiers = append(c.notifiers, n)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		history: NewHistory(DefaultHistorySize),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "ingest")
	return c
}

// History exposes the rolling history
func (c *Coordinator) History() *History {
	return c.history
}

// Ingest flags the reading, persists it and returns the stored record.
// Classification and persistence are serialized so history and store never
// diverge; notifiers run after the lock is released.
func (c *Coordinator) Ingest(ctx context.Context, reading models.Reading) (models.Reading, error) {
	if reading.Timestamp.IsZero() {
		return models.Reading{}, ErrEmptyReading
	}

	stored, flags, err := c.record(ctx, reading)
	if err != nil {
		return models.Reading{}, err
	}

	if stored.IsAnomaly {
		c.logger.Info("anomalous reading",
			"timestamp", stored.Timestamp.Format(time.RFC3339),
			"metrics", flags.Outliers())
	}

	c.notify(ctx, stored, flags)

	return stored, nil
}

// record classifies and persists the reading under the coordinator lock
func (c *Coordinator) record(ctx context.Context, reading models.Reading) (models.Reading, anomaly.Flags, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.warm(ctx); err != nil {
		return models.Reading{}, anomaly.Flags{}, err
	}

	flags := anomaly.Classify(reading, c.history.Values)

	reading.ID = uuid.New()
	reading.Timestamp = reading.Timestamp.UTC()
	reading.IsAnomaly = flags.Any()

	if err := c.store.StoreReading(ctx, &reading); err != nil {
		return models.Reading{}, anomaly.Flags{}, fmt.Errorf("failed to store reading: %w", err)
	}

	c.history.Record(reading)
	return reading, flags, nil
}

// warm loads the history from the store once
func (c *Coordinator) warm(ctx context.Context) error {
	if c.warmed {
		return nil
	}

	for _, m := range models.Metrics {
		values, err := c.store.RecentMetricValues(ctx, m, c.history.Capacity())
		if err != nil {
			return fmt.Errorf("failed to load %s history: %w", m, err)
		}
		// store returns newest first, history wants oldest first
		reversed := make([]float64, len(values))
		for i, v := range values {
			reversed[len(values)-1-i] = v
		}
		c.history.Load(m, reversed)
	}

	c.warmed = true
	c.logger.Debug("history loaded",
		"temperature", c.history.Len(models.MetricTemperature),
		"humidity", c.history.Len(models.MetricHumidity),
		"air_quality", c.history.Len(models.MetricAirQuality))
	return nil
}

func (c *Coordinator) notify(ctx context.Context, reading models.Reading, flags anomaly.Flags) {
	for _, n := range c.notifiers {
		if err := n.Notify(ctx, reading, flags); err != nil {
			c.logger.Warn("notifier failed", "error", err)
		}
	}
}
