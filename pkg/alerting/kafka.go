// Package alerting forwards anomalous readings to Kafka.
package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sguter90/airsentinel/pkg/anomaly"
	"github.com/sguter90/airsentinel/pkg/models"
)

const (
	DefaultTopic        = "airsentinel.anomalies"
	defaultWriteTimeout = 5 * time.Second
)

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Alert is the JSON document published for every anomalous reading
type Alert struct {
	ID       string            `json:"id"`
	Reading  models.ReadingOut `json:"reading"`
	Outliers []models.Metric   `json:"outliers"`
}

// KafkaPublisher publishes anomalous readings to a topic
type KafkaPublisher struct {
	writer       MessageWriter
	topic        string
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewKafkaWriter creates a synchronous writer for the given brokers and topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewKafkaPublisher wraps a writer; topic is used for logging only
func NewKafkaPublisher(writer MessageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		writer:       writer,
		topic:        topic,
		writeTimeout: defaultWriteTimeout,
		logger:       logger.With(slog.String("component", "alerting"), slog.String("topic", topic)),
	}
}

// Notify publishes the reading when it was flagged; normal readings are ignored
func (p *KafkaPublisher) Notify(ctx context.Context, reading models.Reading, flags anomaly.Flags) error {
	if !reading.IsAnomaly {
		return nil
	}

	value, err := json.Marshal(Alert{
		ID:       reading.ID.String(),
		Reading:  reading.Out(),
		Outliers: flags.Outliers(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(reading.ID.String()),
		Value: value,
		Time:  reading.Timestamp,
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	p.logger.Debug("alert published", "id", reading.ID.String())
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
