package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Ingest.HistorySize)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "airsentinel/readings", cfg.MQTT.Topic)
	assert.Equal(t, time.Second, cfg.Simulator.Interval)
	assert.InDelta(t, 0.1, cfg.Simulator.AnomalyChance, 1e-9)
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoadPrefixedEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DB_HOST", "legacy.internal")
	t.Setenv("AIRSENTINEL_DATABASE_HOST", "prefixed.internal")
	t.Setenv("AIRSENTINEL_LOG_LEVEL", "debug")
	t.Setenv("AIRSENTINEL_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AIRSENTINEL_SIMULATOR_INTERVAL", "250ms")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "prefixed.internal", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulator.Interval)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "airsentinel.yaml")
	content := `
server:
  port: 8123
  rate_limit: 5
database:
  driver: sqlite
  path: /var/lib/airsentinel/data.db
mqtt:
  broker: broker.local:1883
  qos: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.InDelta(t, 5.0, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/airsentinel/data.db", cfg.Database.Path)
	assert.Equal(t, "broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, 0, cfg.MQTT.QoS)
}

func TestLoadConfigFileErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0o600))
		_, err := Load(viper.New(), path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8000},
			Database:  DatabaseConfig{Driver: "sqlite"},
			Ingest:    IngestConfig{HistorySize: 30},
			MQTT:      MQTTConfig{QoS: 1},
			Simulator: SimulatorConfig{AnomalyChance: 0.1},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.Server.RateLimit = -1 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "small history", mutate: func(c *Config) { c.Ingest.HistorySize = 5 }, wantErr: true},
		{name: "bad qos", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "bad chance", mutate: func(c *Config) { c.Simulator.AnomalyChance = 1.5 }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseSettings(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{
		Driver: "postgres", Host: "h", Port: 1, User: "u", Password: "p",
		Name: "n", SSLMode: "require", HealthInterval: time.Minute,
	}}

	db := cfg.DatabaseSettings()
	assert.Equal(t, "postgres", db.Driver)
	assert.Equal(t, "h", db.Host)
	assert.Equal(t, 1, db.Port)
	assert.Equal(t, "require", db.SSLMode)
	assert.Equal(t, time.Minute, db.HealthInterval)
}
