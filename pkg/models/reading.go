package models

import (
	"time"

	"github.com/google/uuid"
)

// Metric identifies one of the measured quantities of a reading
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricAirQuality  Metric = "air_quality"
)

// Metrics lists every metric in a fixed order
var Metrics = []Metric{MetricTemperature, MetricHumidity, MetricAirQuality}

// Column returns the storage column backing the metric
func (m Metric) Column() string {
	switch m {
	case MetricTemperature, MetricHumidity, MetricAirQuality:
		return string(m)
	}
	return ""
}

// TimestampLayout is the format used when readings are serialized
const TimestampLayout = "2006-01-02T15:04:05Z"

// Reading represents a single environmental measurement.
// IsAnomaly is derived at ingestion time and never accepted from clients.
type Reading struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Temperature Optional  `json:"temperature" db:"temperature"`
	Humidity    Optional  `json:"humidity" db:"humidity"`
	AirQuality  Optional  `json:"air_quality" db:"air_quality"`
	IsAnomaly   bool      `json:"is_anomaly" db:"is_anomaly"`
}

// Value returns the reading's value for the given metric
func (r Reading) Value(m Metric) Optional {
	switch m {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	case MetricAirQuality:
		return r.AirQuality
	}
	return Absent()
}

// SetValue replaces the reading's value for the given metric
func (r *Reading) SetValue(m Metric, v Optional) {
	switch m {
	case MetricTemperature:
		r.Temperature = v
	case MetricHumidity:
		r.Humidity = v
	case MetricAirQuality:
		r.AirQuality = v
	}
}

// ReadingIn is the ingestion payload. Any is_anomaly sent by a client is dropped.
type ReadingIn struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature Optional  `json:"temperature"`
	Humidity    Optional  `json:"humidity"`
	AirQuality  Optional  `json:"air_quality"`
}

// ToReading converts the payload into a Reading with a UTC timestamp
func (in ReadingIn) ToReading() Reading {
	return Reading{
		Timestamp:   in.Timestamp.UTC(),
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		AirQuality:  in.AirQuality,
	}
}

// ReadingOut is the API representation of a stored reading
type ReadingOut struct {
	Timestamp   string   `json:"timestamp"`
	Temperature Optional `json:"temperature"`
	Humidity    Optional `json:"humidity"`
	AirQuality  Optional `json:"air_quality"`
	IsAnomaly   bool     `json:"is_anomaly"`
}

// Out converts a reading into its API representation
func (r Reading) Out() ReadingOut {
	return ReadingOut{
		Timestamp:   r.Timestamp.UTC().Format(TimestampLayout),
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		AirQuality:  r.AirQuality,
		IsAnomaly:   r.IsAnomaly,
	}
}
