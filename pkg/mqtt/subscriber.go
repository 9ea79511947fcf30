// Package mqtt feeds readings published on an MQTT topic into the ingest pipeline.
package mqtt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/sguter90/airsentinel/pkg/parser"
)

const (
	DefaultTopic     = "airsentinel/readings"
	DefaultKeepAlive = 30 * time.Second

	minRetryDelay = time.Second
	maxRetryDelay = 30 * time.Second
)

// Ingester accepts a reading for classification and storage
type Ingester interface {
	Ingest(ctx context.Context, reading models.Reading) (models.Reading, error)
}

// Config describes the broker connection
type Config struct {
	// Broker is the host:port of the MQTT server
	Broker    string
	Topic     string
	ClientID  string
	QoS       byte
	KeepAlive time.Duration
}

// Subscriber consumes reading payloads from a topic
type Subscriber struct {
	cfg      Config
	parser   parser.Parser
	ingester Ingester
	logger   *slog.Logger
	dial     func(ctx context.Context, addr string) (net.Conn, error)
}

// NewSubscriber creates a subscriber; payloads are decoded with p
func NewSubscriber(cfg Config, p parser.Parser, ingester Ingester, logger *slog.Logger) *Subscriber {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "airsentinel-" + uuid.NewString()[:8]
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Subscriber{
		cfg:      cfg,
		parser:   p,
		ingester: ingester,
		logger:   logger.With("component", "mqtt", "broker", cfg.Broker, "topic", cfg.Topic),
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

// Run keeps a subscription alive until ctx is cancelled, reconnecting with backoff
func (s *Subscriber) Run(ctx context.Context) error {
	delay := minRetryDelay

	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}

		s.logger.Warn("mqtt session ended", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

// session connects, subscribes and blocks until the connection drops or ctx ends
func (s *Subscriber) session(ctx context.Context) error {
	conn, err := s.dial(ctx, s.cfg.Broker)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}

	lost := make(chan error, 1)
	signal := func(err error) {
		select {
		case lost <- err:
		default:
		}
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: s.cfg.ClientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				s.handle(ctx, pr.Packet.Payload)
				return true, nil
			},
		},
		OnClientError: func(err error) {
			signal(err)
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			signal(fmt.Errorf("server disconnected (reason %d)", d.ReasonCode))
		},
	})

	connack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   s.cfg.ClientID,
		KeepAlive:  uint16(s.cfg.KeepAlive.Seconds()),
		CleanStart: true,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect: %w", err)
	}
	if connack.ReasonCode != 0 {
		conn.Close()
		return fmt.Errorf("connection refused (reason %d)", connack.ReasonCode)
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic: s.cfg.Topic,
			QoS:   s.cfg.QoS,
		}},
	}); err != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	s.logger.Info("subscribed")

	select {
	case <-ctx.Done():
		if err := client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil {
			s.logger.Debug("disconnect failed", "error", err)
		}
		return ctx.Err()
	case err := <-lost:
		return err
	}
}

// handle decodes a payload and ingests every reading in it
func (s *Subscriber) handle(ctx context.Context, payload []byte) {
	readings, err := s.parser.Parse(bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("dropping invalid payload", "error", err)
		return
	}

	for _, r := range readings {
		stored, err := s.ingester.Ingest(ctx, r)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Error("failed to ingest reading", "error", err)
			}
			continue
		}
		s.logger.Debug("ingested reading", "id", stored.ID.String(), "is_anomaly", stored.IsAnomaly)
	}
}
