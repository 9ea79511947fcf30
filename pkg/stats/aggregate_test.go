package stats

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(temp, hum, air models.Optional) models.Reading {
	return models.Reading{
		Timestamp:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Temperature: temp,
		Humidity:    hum,
		AirQuality:  air,
	}
}

func assertFinite(t *testing.T, s models.MetricStats) {
	t.Helper()
	for _, o := range []models.Optional{s.Mean, s.Median, s.Min, s.Max} {
		if v, ok := o.Get(); ok {
			assert.True(t, IsFinite(v), "statistic %v must be finite", v)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(nil, "1h")

	assert.Equal(t, "1h", result.Window)
	assert.Equal(t, 0, result.Count)
	for _, m := range models.Metrics {
		assert.True(t, result.Stats(m).IsEmpty(), "metric %s", m)
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"temperature": {"mean": null, "median": null, "min": null, "max": null},
		"humidity": {"mean": null, "median": null, "min": null, "max": null},
		"air_quality": {"mean": null, "median": null, "min": null, "max": null},
		"window": "1h",
		"count": 0
	}`, string(data))
}

func TestAggregate_ComputesPerMetric(t *testing.T) {
	readings := []models.Reading{
		reading(models.Present(20), models.Present(50), models.Absent()),
		reading(models.Present(22), models.Present(60), models.Absent()),
		reading(models.Present(24), models.Absent(), models.Absent()),
		reading(models.Present(30), models.Present(70), models.Absent()),
	}

	result := Aggregate(readings, "5m")

	assert.Equal(t, 4, result.Count, "count covers all readings, not per-metric values")
	assert.Equal(t, "5m", result.Window)

	temp := result.Temperature
	assert.Equal(t, models.Present(24), temp.Mean)
	assert.Equal(t, models.Present(23), temp.Median)
	assert.Equal(t, models.Present(20), temp.Min)
	assert.Equal(t, models.Present(30), temp.Max)

	hum := result.Humidity
	assert.Equal(t, models.Present(60), hum.Mean)
	assert.Equal(t, models.Present(60), hum.Median)
	assert.Equal(t, models.Present(50), hum.Min)
	assert.Equal(t, models.Present(70), hum.Max)

	assert.True(t, result.AirQuality.IsEmpty(), "metric missing everywhere is fully absent")
}

func TestAggregate_SingleValue(t *testing.T) {
	result := Aggregate([]models.Reading{
		reading(models.Absent(), models.Present(-3.25), models.Absent()),
	}, "1m")

	v := models.Present(-3.25)
	assert.Equal(t, models.MetricStats{Mean: v, Median: v, Min: v, Max: v}, result.Humidity)
}

func TestAggregate_UnsortedInputOrderIrrelevant(t *testing.T) {
	a := []models.Reading{
		reading(models.Present(5), models.Absent(), models.Absent()),
		reading(models.Present(1), models.Absent(), models.Absent()),
		reading(models.Present(3), models.Absent(), models.Absent()),
	}
	b := []models.Reading{a[2], a[0], a[1]}

	assert.Equal(t, Aggregate(a, "1h"), Aggregate(b, "1h"))
	assert.Equal(t, models.Present(3), Aggregate(a, "1h").Temperature.Median)
}

func TestAggregate_DegenerateInputsNeverLeakNonFinite(t *testing.T) {
	huge := math.MaxFloat64
	readings := []models.Reading{
		reading(models.Present(huge), models.Present(-huge), models.Present(huge)),
		reading(models.Present(huge), models.Present(huge), models.Present(-huge)),
		reading(models.Present(huge), models.Present(huge), models.Present(huge)),
	}

	result := Aggregate(readings, "24h")

	for _, m := range models.Metrics {
		stats := result.Stats(m)
		assertFinite(t, stats)
	}

	// sum overflows, so the mean is reported as absent while the extrema survive
	assert.False(t, result.Temperature.Mean.IsPresent())
	assert.Equal(t, models.Present(huge), result.Temperature.Max)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Inf")
	assert.NotContains(t, string(data), "NaN")
}

func TestFiniteValues_SkipsAbsent(t *testing.T) {
	readings := []models.Reading{
		reading(models.Present(1), models.Absent(), models.Absent()),
		reading(models.Absent(), models.Absent(), models.Absent()),
		reading(models.Present(math.NaN()), models.Absent(), models.Absent()),
		reading(models.Present(2), models.Absent(), models.Absent()),
	}

	assert.Equal(t, []float64{1, 2}, FiniteValues(readings, models.MetricTemperature))
	assert.Empty(t, FiniteValues(readings, models.MetricHumidity))
}
