package anomaly

import (
	"github.com/sguter90/airsentinel/pkg/models"
)

// Flag is the outcome of classifying one metric of a reading
type Flag uint8

const (
	// Skipped means the metric was absent and never classified
	Skipped Flag = iota
	Normal
	Outlier
)

func (f Flag) String() string {
	switch f {
	case Normal:
		return "normal"
	case Outlier:
		return "outlier"
	default:
		return "skipped"
	}
}

// Flags holds the per-metric classification of a single reading
type Flags struct {
	Temperature Flag
	Humidity    Flag
	AirQuality  Flag
}

// Get returns the flag of one metric
func (f Flags) Get(m models.Metric) Flag {
	switch m {
	case models.MetricTemperature:
		return f.Temperature
	case models.MetricHumidity:
		return f.Humidity
	case models.MetricAirQuality:
		return f.AirQuality
	}
	return Skipped
}

func (f *Flags) set(m models.Metric, flag Flag) {
	switch m {
	case models.MetricTemperature:
		f.Temperature = flag
	case models.MetricHumidity:
		f.Humidity = flag
	case models.MetricAirQuality:
		f.AirQuality = flag
	}
}

// Any is the logical OR over all classified metrics
func (f Flags) Any() bool {
	return f.Temperature == Outlier || f.Humidity == Outlier || f.AirQuality == Outlier
}

// Outliers lists the metrics flagged as outliers
func (f Flags) Outliers() []models.Metric {
	var out []models.Metric
	for _, m := range models.Metrics {
		if f.Get(m) == Outlier {
			out = append(out, m)
		}
	}
	return out
}

// HistoryFunc returns the recent valid values of a metric
type HistoryFunc func(models.Metric) []float64

// Classify runs IsAnomaly once for every metric present on the reading.
// Absent metrics are skipped and never count as anomalous.
func Classify(r models.Reading, history HistoryFunc) Flags {
	var flags Flags
	for _, m := range models.Metrics {
		v, ok := r.Value(m).Get()
		if !ok {
			continue
		}
		flag := Normal
		if IsAnomaly(v, history(m)) {
			flag = Outlier
		}
		flags.set(m, flag)
	}
	return flags
}
