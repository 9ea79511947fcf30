// Package anomaly decides whether a reading is an outlier relative to recent history.
//
// The classifier applies the interquartile range rule to the recent values of a metric
// together with the candidate itself, so an extreme candidate widens its own band a little.
package anomaly

import (
	"github.com/sguter90/airsentinel/pkg/stats"
)

const (
	// MinHistory is the number of historical values required before anything is flagged
	MinHistory = 10

	// IQRMultiplier scales the interquartile range into the tolerance band
	IQRMultiplier = 1.5
)

// IsAnomaly reports whether candidate lies strictly outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR] of recent plus candidate.
// With fewer than MinHistory recent values it always returns false.
// recent is not modified and its order does not matter.
func IsAnomaly(candidate float64, recent []float64) bool {
	if len(recent) < MinHistory {
		return false
	}

	working := make([]float64, 0, len(recent)+1)
	working = append(working, recent...)
	working = append(working, candidate)

	lower, upper := Bounds(working)
	return candidate < lower || candidate > upper
}

// Bounds returns the IQR fences of values
func Bounds(values []float64) (lower, upper float64) {
	sorted := stats.Sorted(values)
	q1 := stats.Percentile(sorted, 25)
	q3 := stats.Percentile(sorted, 75)
	iqr := q3 - q1
	return q1 - IQRMultiplier*iqr, q3 + IQRMultiplier*iqr
}
