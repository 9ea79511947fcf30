package main

import (
	"context"
	"log/slog"

	"github.com/sguter90/airsentinel/pkg/alerting"
	"github.com/sguter90/airsentinel/pkg/config"
	"github.com/sguter90/airsentinel/pkg/database"
	"github.com/sguter90/airsentinel/pkg/ingest"
	"github.com/sguter90/airsentinel/pkg/metrics"
	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/sguter90/airsentinel/pkg/mqtt"
	"github.com/sguter90/airsentinel/pkg/parser"
	"github.com/sguter90/airsentinel/pkg/parser/csvformat"
	"github.com/sguter90/airsentinel/pkg/parser/jsonformat"
	"github.com/sguter90/airsentinel/pkg/stream"
)

// RegistryManager wires the ingest pipeline and everything listening to it
type RegistryManager struct {
	ParserRegistry *parser.Registry
	Coordinator    *ingest.Coordinator
	Hub            *stream.Hub
	Metrics        *metrics.Metrics

	// optional, nil unless configured
	Alerts     *alerting.KafkaPublisher
	Subscriber *mqtt.Subscriber
}

// NewParserRegistry returns a registry with every supported payload format
func NewParserRegistry() *parser.Registry {
	registry := parser.NewRegistry()
	registry.Register(jsonformat.New())
	registry.Register(csvformat.New())
	return registry
}

func InitRegistryManager(ctx context.Context, cfg *config.Config, dbManager *database.DatabaseManager, logger *slog.Logger) *RegistryManager {
	parserRegistry := NewParserRegistry()
	m := metrics.New()
	hub := stream.NewHub(ctx, logger)

	opts := []ingest.Option{
		ingest.WithHistorySize(cfg.Ingest.HistorySize),
		ingest.WithLogger(logger),
		ingest.WithNotifier(m),
		ingest.WithNotifier(hub),
	}

	var alerts *alerting.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		logger.Info("registering kafka alerts", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		alerts = alerting.NewKafkaPublisher(
			alerting.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.Kafka.Topic, logger)
		opts = append(opts, ingest.WithNotifier(alerts))
	}

	coordinator := ingest.NewCoordinator(dbManager, opts...)

	var subscriber *mqtt.Subscriber
	if cfg.MQTT.Broker != "" {
		logger.Info("registering mqtt subscriber", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
		jsonParser, _ := parserRegistry.Get("json")
		subscriber = mqtt.NewSubscriber(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			QoS:      byte(cfg.MQTT.QoS),
		}, jsonParser, &countingIngester{coordinator: coordinator, metrics: m, source: "mqtt"}, logger)
	}

	m.RegisterGauge("stream_clients", "Connected websocket clients.", func() float64 {
		return float64(hub.ClientCount())
	})
	m.RegisterGauge("database_healthy", "1 when the database connection is healthy.", func() float64 {
		if dbManager.IsConnectionHealthy() {
			return 1
		}
		return 0
	})

	return &RegistryManager{
		ParserRegistry: parserRegistry,
		Coordinator:    coordinator,
		Hub:            hub,
		Metrics:        m,
		Alerts:         alerts,
		Subscriber:     subscriber,
	}
}

// Close releases the optional publishers
func (rm *RegistryManager) Close() {
	rm.Hub.Stop()
	if rm.Alerts != nil {
		if err := rm.Alerts.Close(); err != nil {
			slog.Warn("failed to close kafka writer", "error", err)
		}
	}
}

// countingIngester records failed ingests per source
type countingIngester struct {
	coordinator *ingest.Coordinator
	metrics     *metrics.Metrics
	source      string
}

func (c *countingIngester) Ingest(ctx context.Context, reading models.Reading) (models.Reading, error) {
	stored, err := c.coordinator.Ingest(ctx, reading)
	if err != nil {
		c.metrics.IngestFailed(c.source)
	}
	return stored, err
}
