package database

import (
	"fmt"
	"net/url"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config describes how to reach the database
type Config struct {
	Driver string

	// DSN overrides all other connection settings when set
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// Path is the sqlite database file, ":memory:" for an in-memory database
	Path string

	HealthInterval time.Duration
}

// DefaultConfig returns settings for a local postgres instance
func DefaultConfig() Config {
	return Config{
		Driver:         DriverPostgres,
		Host:           "localhost",
		Port:           5432,
		User:           "sensor_user",
		Password:       "sensor_pass",
		Name:           "sensor_db",
		SSLMode:        "disable",
		Path:           "airsentinel.db",
		HealthInterval: 30 * time.Second,
	}
}

// DataSourceName builds the driver specific connection string
func (c Config) DataSourceName() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
		), nil
	case DriverSQLite:
		if c.Path == "" {
			return "", fmt.Errorf("sqlite requires a database path")
		}
		if c.Path == ":memory:" {
			return c.Path, nil
		}
		q := url.Values{}
		q.Add("_pragma", "busy_timeout(5000)")
		q.Add("_pragma", "journal_mode(WAL)")
		return "file:" + c.Path + "?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", c.Driver)
	}
}
