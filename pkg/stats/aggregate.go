package stats

import (
	"github.com/sguter90/airsentinel/pkg/models"
)

// Aggregate reduces the readings of a window to per-metric summary statistics.
//
// The caller is responsible for restricting readings to the window; window is only
// echoed back. Count is the number of readings given, independent of missing values.
// Each metric is summarized over its present, finite values only; with none left all of
// its statistics are absent. Any statistic that comes out non-finite is reported as
// absent, so the result never carries NaN or infinity.
func Aggregate(readings []models.Reading, window string) models.AggregateResult {
	result := models.AggregateResult{
		Window: window,
		Count:  len(readings),
	}

	for _, metric := range models.Metrics {
		result.SetStats(metric, Summarize(FiniteValues(readings, metric)))
	}

	return result
}

// Summarize computes mean, median, min and max of values.
// Empty input yields all-absent statistics.
func Summarize(values []float64) models.MetricStats {
	if len(values) == 0 {
		return models.MetricStats{}
	}

	sorted := Sorted(values)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return models.MetricStats{
		Mean:   Clean(sum / float64(len(sorted))),
		Median: Clean(Percentile(sorted, 50)),
		Min:    Clean(sorted[0]),
		Max:    Clean(sorted[len(sorted)-1]),
	}
}
