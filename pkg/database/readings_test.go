package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

func sample(minute int, temp, hum, aq models.Optional, anomalous bool) models.Reading {
	return models.Reading{
		Timestamp:   baseTime.Add(time.Duration(minute) * time.Minute),
		Temperature: temp,
		Humidity:    hum,
		AirQuality:  aq,
		IsAnomaly:   anomalous,
	}
}

// seedReadings stores ten readings one minute apart; every third one is anomalous
func seedReadings(t *testing.T, dm *DatabaseManager) []models.Reading {
	t.Helper()

	var readings []models.Reading
	for i := 0; i < 10; i++ {
		r := sample(i,
			models.Present(20+float64(i)),
			models.Present(40+float64(i)),
			models.Present(100+float64(i)),
			i%3 == 0)
		require.NoError(t, dm.StoreReading(context.Background(), &r))
		readings = append(readings, r)
	}
	return readings
}

func TestStoreAndGetReading(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		ctx := context.Background()
		in := sample(0, models.Present(21.5), models.Absent(), models.Present(88), true)

		require.NoError(t, dm.StoreReading(ctx, &in))
		assert.NotEqual(t, uuid.Nil, in.ID)

		got, err := dm.GetReading(ctx, in.ID)
		require.NoError(t, err)

		assert.Equal(t, in.ID, got.ID)
		assert.True(t, baseTime.Equal(got.Timestamp))
		assert.Equal(t, models.Present(21.5), got.Temperature)
		assert.False(t, got.Humidity.IsPresent())
		assert.Equal(t, models.Present(88), got.AirQuality)
		assert.True(t, got.IsAnomaly)
	})
}

func TestGetReadingNotFound(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		_, err := dm.GetReading(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRecentMetricValues(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		ctx := context.Background()
		seedReadings(t, dm)

		newest := sample(20, models.Present(99), models.Absent(), models.Absent(), false)
		require.NoError(t, dm.StoreReading(ctx, &newest))

		temps, err := dm.RecentMetricValues(ctx, models.MetricTemperature, 3)
		require.NoError(t, err)
		assert.Equal(t, []float64{99, 29, 28}, temps)

		// missing values are skipped
		hums, err := dm.RecentMetricValues(ctx, models.MetricHumidity, 2)
		require.NoError(t, err)
		assert.Equal(t, []float64{49, 48}, hums)

		_, err = dm.RecentMetricValues(ctx, models.Metric("pressure"), 2)
		assert.Error(t, err)
	})
}

func TestRecentMetricValuesEmpty(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		values, err := dm.RecentMetricValues(context.Background(), models.MetricAirQuality, 30)
		require.NoError(t, err)
		assert.Empty(t, values)
	})
}

func TestGetReadings(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		seedReadings(t, dm)

		testCases := []struct {
			name      string
			params    func(p *models.ReadingQueryParams)
			wantTotal int
			wantTemps []float64
			wantPages int
		}{
			{
				name:      "defaults newest first",
				params:    func(p *models.ReadingQueryParams) {},
				wantTotal: 10,
				wantTemps: []float64{29, 28, 27, 26, 25, 24, 23, 22, 21, 20},
				wantPages: 1,
			},
			{
				name: "second page",
				params: func(p *models.ReadingQueryParams) {
					p.Page = 2
					p.Size = 4
				},
				wantTotal: 10,
				wantTemps: []float64{25, 24, 23, 22},
				wantPages: 3,
			},
			{
				name: "page past the end",
				params: func(p *models.ReadingQueryParams) {
					p.Page = 5
					p.Size = 4
				},
				wantTotal: 10,
				wantTemps: []float64{},
				wantPages: 3,
			},
			{
				name: "anomalies only",
				params: func(p *models.ReadingQueryParams) {
					p.IsAnomaly = ptr(true)
				},
				wantTotal: 4,
				wantTemps: []float64{29, 26, 23, 20},
				wantPages: 1,
			},
			{
				name: "time range inclusive",
				params: func(p *models.ReadingQueryParams) {
					p.StartDate = ptr(baseTime.Add(2 * time.Minute))
					p.EndDate = ptr(baseTime.Add(4 * time.Minute))
				},
				wantTotal: 3,
				wantTemps: []float64{24, 23, 22},
				wantPages: 1,
			},
			{
				name: "metric range",
				params: func(p *models.ReadingQueryParams) {
					p.Ranges[models.MetricTemperature] = models.Range{Min: ptr(22.0), Max: ptr(24.0)}
					p.Ranges[models.MetricAirQuality] = models.Range{Min: ptr(103.0)}
				},
				wantTotal: 2,
				wantTemps: []float64{24, 23},
				wantPages: 1,
			},
			{
				name: "nothing matches",
				params: func(p *models.ReadingQueryParams) {
					p.Ranges[models.MetricHumidity] = models.Range{Min: ptr(1000.0)}
				},
				wantTotal: 0,
				wantTemps: []float64{},
				wantPages: 0,
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				params := models.NewReadingQueryParams()
				tc.params(&params)

				resp, err := dm.GetReadings(context.Background(), params)
				require.NoError(t, err)

				assert.Equal(t, tc.wantTotal, resp.Total)
				assert.Equal(t, tc.wantPages, resp.TotalPages)
				assert.Equal(t, params.Page, resp.Page)
				assert.Equal(t, params.Size, resp.Size)

				temps := []float64{}
				for _, item := range resp.Items {
					v, ok := item.Temperature.Get()
					require.True(t, ok)
					temps = append(temps, v)
				}
				assert.Equal(t, tc.wantTemps, temps)
			})
		}
	})
}

func TestGetReadingsTimestampFormat(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		r := sample(0, models.Present(1), models.Present(2), models.Present(3), false)
		require.NoError(t, dm.StoreReading(context.Background(), &r))

		resp, err := dm.GetReadings(context.Background(), models.NewReadingQueryParams())
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)

		assert.Equal(t, "2024-03-01T12:00:00Z", resp.Items[0].Timestamp)
	})
}

func TestGetReadingsInvalidParams(t *testing.T) {
	dm := setupSQLiteManager(t)

	params := models.NewReadingQueryParams()
	params.Size = 0

	_, err := dm.GetReadings(context.Background(), params)
	assert.Error(t, err)
}

func TestReadingsSince(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		seedReadings(t, dm)

		readings, err := dm.ReadingsSince(context.Background(), baseTime.Add(7*time.Minute))
		require.NoError(t, err)
		require.Len(t, readings, 3)

		assert.True(t, baseTime.Add(7*time.Minute).Equal(readings[0].Timestamp))
		assert.Equal(t, time.UTC, readings[0].Timestamp.Location())

		none, err := dm.ReadingsSince(context.Background(), baseTime.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestReplaceReadings(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, dm *DatabaseManager) {
		ctx := context.Background()
		seedReadings(t, dm)

		replacement := []models.Reading{
			sample(0, models.Present(1), models.Absent(), models.Present(3), false),
			sample(1, models.Absent(), models.Present(5), models.Present(6), false),
		}

		n, err := dm.ReplaceReadings(ctx, replacement)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err := dm.CountReadings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		temps, err := dm.RecentMetricValues(ctx, models.MetricTemperature, 30)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, temps)
	})
}

func TestReplaceReadingsRollsBack(t *testing.T) {
	dm := setupSQLiteManager(t)
	ctx := context.Background()
	seedReadings(t, dm)

	dup := uuid.New()
	replacement := []models.Reading{
		sample(0, models.Present(1), models.Absent(), models.Absent(), false),
		sample(1, models.Present(2), models.Absent(), models.Absent(), false),
	}
	replacement[0].ID = dup
	replacement[1].ID = dup

	_, err := dm.ReplaceReadings(ctx, replacement)
	require.Error(t, err)

	count, err := dm.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
