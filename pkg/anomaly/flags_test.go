package anomaly

import (
	"testing"

	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/stretchr/testify/assert"
)

func historyOf(values map[models.Metric][]float64) HistoryFunc {
	return func(m models.Metric) []float64 { return values[m] }
}

func TestFlags_Any(t *testing.T) {
	testCases := []struct {
		name     string
		flags    Flags
		expected bool
	}{
		{"all skipped", Flags{}, false},
		{"all normal", Flags{Normal, Normal, Normal}, false},
		{"temperature outlier", Flags{Outlier, Normal, Skipped}, true},
		{"humidity outlier", Flags{Skipped, Outlier, Skipped}, true},
		{"air quality outlier", Flags{Normal, Normal, Outlier}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.flags.Any())
		})
	}
}

func TestClassify_SkipsAbsentMetrics(t *testing.T) {
	history := historyOf(map[models.Metric][]float64{
		models.MetricTemperature: baseline,
		models.MetricHumidity:    baseline,
		models.MetricAirQuality:  baseline,
	})

	r := models.Reading{
		Temperature: models.Present(20.5),
		AirQuality:  models.Present(80),
	}

	flags := Classify(r, history)

	assert.Equal(t, Normal, flags.Temperature)
	assert.Equal(t, Skipped, flags.Humidity)
	assert.Equal(t, Outlier, flags.AirQuality)
	assert.True(t, flags.Any())
	assert.Equal(t, []models.Metric{models.MetricAirQuality}, flags.Outliers())
}

func TestClassify_UsesPerMetricHistory(t *testing.T) {
	history := historyOf(map[models.Metric][]float64{
		models.MetricTemperature: baseline,
		models.MetricHumidity:    {60, 61, 59, 60, 62, 61, 60, 59, 61, 60},
	})

	r := models.Reading{
		Temperature: models.Present(20),
		Humidity:    models.Present(60.5),
		AirQuality:  models.Present(1e6),
	}

	flags := Classify(r, history)

	assert.Equal(t, Normal, flags.Temperature)
	assert.Equal(t, Normal, flags.Humidity)
	assert.Equal(t, Normal, flags.AirQuality, "no air quality history yet")
	assert.False(t, flags.Any())
}

func TestFlag_String(t *testing.T) {
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "outlier", Outlier.String())
}
