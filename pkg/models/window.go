package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWindow is returned for unknown aggregation windows
var ErrInvalidWindow = errors.New("invalid time window")

// TimeWindow is a supported aggregation window label
type TimeWindow string

const (
	Window1m  TimeWindow = "1m"
	Window5m  TimeWindow = "5m"
	Window10m TimeWindow = "10m"
	Window15m TimeWindow = "15m"
	Window30m TimeWindow = "30m"
	Window1h  TimeWindow = "1h"
	Window2h  TimeWindow = "2h"
	Window4h  TimeWindow = "4h"
	Window6h  TimeWindow = "6h"
	Window12h TimeWindow = "12h"
	Window24h TimeWindow = "24h"

	DefaultWindow = Window1h
)

// TimeWindows lists the supported windows from shortest to longest
var TimeWindows = []TimeWindow{
	Window1m, Window5m, Window10m, Window15m, Window30m,
	Window1h, Window2h, Window4h, Window6h, Window12h, Window24h,
}

var windowDurations = map[TimeWindow]time.Duration{
	Window1m:  time.Minute,
	Window5m:  5 * time.Minute,
	Window10m: 10 * time.Minute,
	Window15m: 15 * time.Minute,
	Window30m: 30 * time.Minute,
	Window1h:  time.Hour,
	Window2h:  2 * time.Hour,
	Window4h:  4 * time.Hour,
	Window6h:  6 * time.Hour,
	Window12h: 12 * time.Hour,
	Window24h: 24 * time.Hour,
}

// ParseTimeWindow validates a window label. An empty label yields the default window.
func ParseTimeWindow(s string) (TimeWindow, error) {
	if s == "" {
		return DefaultWindow, nil
	}
	w := TimeWindow(s)
	if _, ok := windowDurations[w]; !ok {
		valid := make([]string, len(TimeWindows))
		for i, tw := range TimeWindows {
			valid[i] = string(tw)
		}
		return "", fmt.Errorf("%w: %s (valid: %s)", ErrInvalidWindow, s, strings.Join(valid, ", "))
	}
	return w, nil
}

// Duration returns the span covered by the window
func (w TimeWindow) Duration() time.Duration {
	return windowDurations[w]
}

// Cutoff returns the earliest timestamp included in the window ending at now
func (w TimeWindow) Cutoff(now time.Time) time.Time {
	return now.Add(-w.Duration())
}
