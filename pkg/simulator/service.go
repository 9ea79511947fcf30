package simulator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sguter90/airsentinel/pkg/models"
)

// DefaultErrorBackoff is the pause after a failed send
const DefaultErrorBackoff = 5 * time.Second

// Sender delivers a generated reading and returns the stored record
type Sender interface {
	PostReading(ctx context.Context, in models.ReadingIn) (*models.ReadingOut, error)
}

// Stats counts what the service has sent so far
type Stats struct {
	Sent      int64
	Failed    int64
	Anomalies int64
}

// Service periodically sends generated readings
type Service struct {
	sender       Sender
	generator    *Generator
	interval     time.Duration
	errorBackoff time.Duration
	logger       *slog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool

	sent      atomic.Int64
	failed    atomic.Int64
	anomalies atomic.Int64
}

// NewService creates a new simulator service
func NewService(sender Sender, generator *Generator, interval time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sender:       sender,
		generator:    generator,
		interval:     interval,
		errorBackoff: DefaultErrorBackoff,
		logger:       logger.With("component", "simulator"),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// SetErrorBackoff changes the pause after a failed send
func (s *Service) SetErrorBackoff(d time.Duration) {
	s.errorBackoff = d
}

// Start begins sending in the background
func (s *Service) Start(ctx context.Context) {
	s.started.Store(true)
	go s.Run(ctx)
	s.logger.Info("simulator started", "interval", s.interval)
}

// Stop halts the service and waits for the loop to exit
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
	s.logger.Info("simulator stopped")
}

// Stats returns the counters collected so far
func (s *Service) Stats() Stats {
	return Stats{
		Sent:      s.sent.Load(),
		Failed:    s.failed.Load(),
		Anomalies: s.anomalies.Load(),
	}
}

// Run sends readings until ctx is cancelled or Stop is called
func (s *Service) Run(ctx context.Context) {
	s.started.Store(true)
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-timer.C:
			delay := s.interval
			if err := s.sendOne(ctx); err != nil {
				delay = s.errorBackoff
			}
			timer.Reset(delay)
		}
	}
}

// sendOne generates and posts one reading
func (s *Service) sendOne(ctx context.Context) error {
	in, wide := s.generator.Next()

	out, err := s.sender.PostReading(ctx, in)
	if err != nil {
		s.failed.Add(1)
		if ctx.Err() == nil {
			s.logger.Error("failed to send reading", "error", err)
		}
		return err
	}

	s.sent.Add(1)
	if out.IsAnomaly {
		s.anomalies.Add(1)
	}

	s.logger.Info("sent reading",
		"temperature", in.Temperature,
		"humidity", in.Humidity,
		"air_quality", in.AirQuality,
		"injected", wide,
		"is_anomaly", out.IsAnomaly)
	return nil
}
