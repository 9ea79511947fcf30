package models

// MetricStats holds the summary statistics of one metric over a window.
// All four fields are absent when the metric had no valid values.
type MetricStats struct {
	Mean   Optional `json:"mean"`
	Median Optional `json:"median"`
	Min    Optional `json:"min"`
	Max    Optional `json:"max"`
}

// IsEmpty reports whether every statistic is absent
func (s MetricStats) IsEmpty() bool {
	return !s.Mean.IsPresent() && !s.Median.IsPresent() && !s.Min.IsPresent() && !s.Max.IsPresent()
}

// AggregateResult is the summary of all readings in a time window
type AggregateResult struct {
	Temperature MetricStats `json:"temperature"`
	Humidity    MetricStats `json:"humidity"`
	AirQuality  MetricStats `json:"air_quality"`
	Window      string      `json:"window"`
	Count       int         `json:"count"`
}

// Stats returns the statistics for the given metric
func (a AggregateResult) Stats(m Metric) MetricStats {
	switch m {
	case MetricTemperature:
		return a.Temperature
	case MetricHumidity:
		return a.Humidity
	case MetricAirQuality:
		return a.AirQuality
	}
	return MetricStats{}
}

// SetStats stores the statistics for the given metric
func (a *AggregateResult) SetStats(m Metric, s MetricStats) {
	switch m {
	case MetricTemperature:
		a.Temperature = s
	case MetricHumidity:
		a.Humidity = s
	case MetricAirQuality:
		a.AirQuality = s
	}
}
