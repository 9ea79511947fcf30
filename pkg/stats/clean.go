// Package stats holds the numeric helpers and the windowed aggregator.
// Everything here is pure and safe for concurrent use.
package stats

import (
	"math"

	"github.com/sguter90/airsentinel/pkg/models"
)

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clean normalizes a computed statistic, non-finite values become absent
func Clean(v float64) models.Optional {
	if !IsFinite(v) {
		return models.Absent()
	}
	return models.Present(v)
}

// FiniteValues collects the present, finite values of one metric
func FiniteValues(readings []models.Reading, metric models.Metric) []float64 {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		if v, ok := r.Value(metric).Get(); ok && IsFinite(v) {
			values = append(values, v)
		}
	}
	return values
}
