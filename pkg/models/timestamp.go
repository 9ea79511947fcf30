package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// ErrMissingTimestamp is returned when a payload carries no timestamp
var ErrMissingTimestamp = errors.New("timestamp is required")

// fallbackLayouts cover the space separated and date-only forms iso8601 rejects
var fallbackLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts ISO 8601 timestamps and the common space separated
// variants. Values without zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingTimestamp
	}

	if t, err := iso8601.ParseString(s); err == nil {
		return t.UTC(), nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON decodes the payload with a lenient timestamp
func (in *ReadingIn) UnmarshalJSON(data []byte) error {
	var aux struct {
		Timestamp   *string  `json:"timestamp"`
		Temperature Optional `json:"temperature"`
		Humidity    Optional `json:"humidity"`
		AirQuality  Optional `json:"air_quality"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timestamp == nil {
		return ErrMissingTimestamp
	}
	ts, err := ParseTimestamp(*aux.Timestamp)
	if err != nil {
		return err
	}

	*in = ReadingIn{
		Timestamp:   ts,
		Temperature: aux.Temperature,
		Humidity:    aux.Humidity,
		AirQuality:  aux.AirQuality,
	}
	return nil
}
