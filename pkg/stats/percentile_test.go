package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	testCases := []struct {
		name     string
		sorted   []float64
		p        float64
		expected float64
	}{
		{"quartile of four", []float64{1, 2, 3, 4}, 25, 1.75},
		{"median of four", []float64{1, 2, 3, 4}, 50, 2.5},
		{"third quartile of four", []float64{1, 2, 3, 4}, 75, 3.25},
		{"min", []float64{1, 2, 3, 4}, 0, 1},
		{"max", []float64{1, 2, 3, 4}, 100, 4},
		{"exact rank", []float64{10, 20, 30, 40, 50}, 25, 20},
		{"single value", []float64{7}, 90, 7},
		{"median of odd", []float64{3, 5, 9}, 50, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Percentile(tc.sorted, tc.p), 1e-12)
		})
	}
}

func TestPercentile_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestSorted_DoesNotMutateInput(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.InDelta(t, 1.75, Percentile(Sorted(values), 25), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}
