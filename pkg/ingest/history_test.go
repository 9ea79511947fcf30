package ingest

import (
	"testing"

	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/stretchr/testify/assert"
)

func single(m models.Metric, v float64) models.Reading {
	var r models.Reading
	r.SetValue(m, models.Present(v))
	return r
}

func TestHistoryRecordWrapsAround(t *testing.T) {
	h := NewHistory(3)

	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Record(single(models.MetricTemperature, v))
	}

	assert.Equal(t, []float64{3, 4, 5}, h.Values(models.MetricTemperature))
	assert.Equal(t, 3, h.Len(models.MetricTemperature))
	assert.Empty(t, h.Values(models.MetricHumidity))
}

func TestHistoryRecordSkipsAbsent(t *testing.T) {
	h := NewHistory(5)

	h.Record(models.Reading{
		Temperature: models.Present(21),
		Humidity:    models.Absent(),
		AirQuality:  models.Present(90),
	})

	assert.Equal(t, []float64{21}, h.Values(models.MetricTemperature))
	assert.Empty(t, h.Values(models.MetricHumidity))
	assert.Equal(t, []float64{90}, h.Values(models.MetricAirQuality))
}

func TestHistoryLoadKeepsNewest(t *testing.T) {
	h := NewHistory(3)
	h.Record(single(models.MetricHumidity, 99))

	h.Load(models.MetricHumidity, []float64{1, 2, 3, 4})

	assert.Equal(t, []float64{2, 3, 4}, h.Values(models.MetricHumidity))

	h.Record(single(models.MetricHumidity, 5))
	assert.Equal(t, []float64{3, 4, 5}, h.Values(models.MetricHumidity))
}

func TestHistoryValuesIsCopy(t *testing.T) {
	h := NewHistory(3)
	h.Record(single(models.MetricAirQuality, 1))

	values := h.Values(models.MetricAirQuality)
	values[0] = 42

	assert.Equal(t, []float64{1}, h.Values(models.MetricAirQuality))
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistorySize, h.Capacity())
	assert.Zero(t, h.Len(models.MetricTemperature))
}
