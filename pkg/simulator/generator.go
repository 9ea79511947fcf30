// Package simulator produces synthetic readings and posts them to the API.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sguter90/airsentinel/pkg/models"
)

const (
	BaseTemperature = 25.0
	BaseHumidity    = 60.0
	BaseAirQuality  = 100.0

	DefaultAnomalyChance = 0.1
)

// spread is the closed interval a delta is drawn from
type spread struct {
	low, high float64
}

func (s spread) draw(rng *rand.Rand) float64 {
	return s.low + rng.Float64()*(s.high-s.low)
}

var (
	normalSpread = map[models.Metric]spread{
		models.MetricTemperature: {-3, 3},
		models.MetricHumidity:    {-10, 10},
		models.MetricAirQuality:  {-30, 30},
	}
	anomalySpread = map[models.Metric]spread{
		models.MetricTemperature: {-10, 10},
		models.MetricHumidity:    {-20, 20},
		models.MetricAirQuality:  {-50, 100},
	}
	bases = map[models.Metric]float64{
		models.MetricTemperature: BaseTemperature,
		models.MetricHumidity:    BaseHumidity,
		models.MetricAirQuality:  BaseAirQuality,
	}
)

// Generator draws random readings around fixed bases, occasionally from a wider spread
type Generator struct {
	mu            sync.Mutex
	rng           *rand.Rand
	anomalyChance float64
	now           func() time.Time
}

// NewGenerator creates a generator; the same seed yields the same sequence
func NewGenerator(seed int64, anomalyChance float64) *Generator {
	return &Generator{
		rng:           rand.New(rand.NewSource(seed)),
		anomalyChance: anomalyChance,
		now:           time.Now,
	}
}

// Next returns a reading stamped with the current UTC time and whether it was drawn from the wide spread
func (g *Generator) Next() (models.ReadingIn, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wide := g.rng.Float64() < g.anomalyChance
	spreads := normalSpread
	if wide {
		spreads = anomalySpread
	}

	in := models.ReadingIn{Timestamp: g.now().UTC()}
	values := make(map[models.Metric]models.Optional, len(models.Metrics))
	for _, m := range models.Metrics {
		values[m] = models.Present(round2(bases[m] + spreads[m].draw(g.rng)))
	}
	in.Temperature = values[models.MetricTemperature]
	in.Humidity = values[models.MetricHumidity]
	in.AirQuality = values[models.MetricAirQuality]

	return in, wide
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
