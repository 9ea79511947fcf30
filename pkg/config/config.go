// Package config loads runtime settings from defaults, an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sguter90/airsentinel/pkg/database"
	"github.com/spf13/viper"
)

const EnvPrefix = "AIRSENTINEL"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is the allowed ingest requests per second, 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	Path           string        `mapstructure:"path"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

type IngestConfig struct {
	HistorySize int `mapstructure:"history_size"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	QoS      int    `mapstructure:"qos"`
}

type SimulatorConfig struct {
	URL           string        `mapstructure:"url"`
	Interval      time.Duration `mapstructure:"interval"`
	AnomalyChance float64       `mapstructure:"anomaly_chance"`
	Seed          int64         `mapstructure:"seed"`
}

// legacyEnv keeps the plain variable names older deployments use
var legacyEnv = map[string]string{
	"database.host":          "DB_HOST",
	"database.port":          "DB_PORT",
	"database.user":          "DB_USER",
	"database.password":      "DB_PASSWORD",
	"database.name":          "DB_NAME",
	"database.sslmode":       "DB_SSLMODE",
	"database.dsn":           "DATABASE_URL",
	"server.port":            "SERVER_PORT",
	"server.allowed_origins": "SERVER_ALLOWED_ORIGINS",
	"simulator.url":          "API_URL",
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	db := database.DefaultConfig()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("database.driver", db.Driver)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.name", db.Name)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.path", db.Path)
	v.SetDefault("database.health_interval", db.HealthInterval)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.color", true)

	v.SetDefault("ingest.history_size", 30)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "airsentinel.anomalies")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "airsentinel/readings")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("simulator.url", "http://localhost:8000")
	v.SetDefault("simulator.interval", time.Second)
	v.SetDefault("simulator.anomaly_chance", 0.1)
	v.SetDefault("simulator.seed", 0)
}

// Load reads configFile (or airsentinel.yaml from the usual places when empty),
// then applies environment overrides
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("airsentinel")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/airsentinel/")
		v.AddConfigPath("$HOME/.airsentinel")
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList trims entries and expands comma separated items
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}

	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			database.DriverPostgres, database.DriverSQLite, c.Database.Driver)
	}

	if c.Ingest.HistorySize < 10 {
		return fmt.Errorf("ingest.history_size must be at least 10, got %d", c.Ingest.HistorySize)
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}

	if c.Simulator.AnomalyChance < 0 || c.Simulator.AnomalyChance > 1 {
		return fmt.Errorf("simulator.anomaly_chance must be within [0, 1]")
	}

	return nil
}

// DatabaseSettings converts to the storage layer's configuration
func (c *Config) DatabaseSettings() database.Config {
	return database.Config{
		Driver:         c.Database.Driver,
		DSN:            c.Database.DSN,
		Host:           c.Database.Host,
		Port:           c.Database.Port,
		User:           c.Database.User,
		Password:       c.Database.Password,
		Name:           c.Database.Name,
		SSLMode:        c.Database.SSLMode,
		Path:           c.Database.Path,
		HealthInterval: c.Database.HealthInterval,
	}
}
