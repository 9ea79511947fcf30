package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	testCases := []struct {
		name    string
		in      float64
		present bool
	}{
		{name: "finite", in: 21.5, present: true},
		{name: "zero", in: 0, present: true},
		{name: "nan", in: math.NaN()},
		{name: "positive infinity", in: math.Inf(1)},
		{name: "negative infinity", in: math.Inf(-1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := Clean(tc.in).Get()
			assert.Equal(t, tc.present, ok)
			if tc.present {
				assert.Equal(t, tc.in, v)
			}
		})
	}
}

func TestSummarizeOverflowingMeanIsAbsent(t *testing.T) {
	stats := Summarize([]float64{math.MaxFloat64, math.MaxFloat64})

	assert.False(t, stats.Mean.IsPresent())
	assert.True(t, stats.Max.IsPresent())
	assert.True(t, stats.Min.IsPresent())
}
