package algo

import (
	"math"
	"testing"

	"github.com/huangsam/rowscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario is the six-sample capture used across the algo tests.
func scenario() schema.SampleSet {
	return schema.SampleSet{
		{Index: 0, Latency: 100},
		{Index: 1, Latency: 100},
		{Index: 2, Latency: 1200},
		{Index: 3, Latency: 100},
		{Index: 4, Latency: 1300},
		{Index: 5, Latency: 100},
	}
}

func TestClassify(t *testing.T) {
	t.Run("scenario", func(t *testing.T) {
		c, err := Classify(scenario(), schema.Thresholds{NoConflict: 300, Conflict: 300})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 3, 5}, c.Below.Indices())
		assert.Equal(t, []uint64{2, 4}, c.Above.Indices())
		assert.Equal(t, 0, c.Unclassified)
	})

	t.Run("ties are excluded", func(t *testing.T) {
		samples := schema.NewSampleSet([]float64{299, 300, 301})
		c, err := Classify(samples, schema.Thresholds{NoConflict: 300, Conflict: 300})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0}, c.Below.Indices())
		assert.Equal(t, []uint64{2}, c.Above.Indices())
		assert.Equal(t, 1, c.Unclassified)
	})

	t.Run("band is unclassified", func(t *testing.T) {
		samples := schema.NewSampleSet([]float64{700, 800, 900, 1000, 1100})
		c, err := Classify(samples, schema.Thresholds{NoConflict: 800, Conflict: 1000})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0}, c.Below.Indices())
		assert.Equal(t, []uint64{4}, c.Above.Indices())
		assert.Equal(t, 3, c.Unclassified)
	})

	t.Run("swapped thresholds", func(t *testing.T) {
		_, err := Classify(scenario(), schema.Thresholds{NoConflict: 1000, Conflict: 800})
		assert.ErrorIs(t, err, schema.ErrInvalidConfiguration)
	})

	t.Run("empty input", func(t *testing.T) {
		c, err := Classify(schema.SampleSet{}, schema.Thresholds{NoConflict: 1, Conflict: 2})
		require.NoError(t, err)
		assert.Empty(t, c.Below)
		assert.Empty(t, c.Above)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		samples := scenario()
		before := append(schema.SampleSet(nil), samples...)
		_, err := Classify(samples, schema.Thresholds{NoConflict: 300, Conflict: 300})
		require.NoError(t, err)
		assert.Equal(t, before, samples)
	})
}

func TestFilterOutliers(t *testing.T) {
	t.Run("scenario", func(t *testing.T) {
		kept, err := FilterOutliers(scenario(), 1000)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 3, 5}, kept.Indices(), "1200 and 1300 are both at or above the bound")
	})

	t.Run("bound between peaks", func(t *testing.T) {
		kept, err := FilterOutliers(scenario(), 1250)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 2, 3, 5}, kept.Indices(), "only index 4 is dropped, others keep their index")
	})

	t.Run("zero bound keeps nothing", func(t *testing.T) {
		kept, err := FilterOutliers(scenario(), 0)
		require.NoError(t, err)
		assert.Empty(t, kept)
	})

	t.Run("bound is exclusive", func(t *testing.T) {
		kept, err := FilterOutliers(schema.NewSampleSet([]float64{999, 1000, 1001}), 1000)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0}, kept.Indices())
	})

	t.Run("invalid bound", func(t *testing.T) {
		for _, bound := range []float64{-5, math.NaN(), math.Inf(1)} {
			_, err := FilterOutliers(scenario(), bound)
			assert.ErrorIs(t, err, schema.ErrInvalidConfiguration, "bound %v", bound)
		}
	})
}

func TestPeakSpacing(t *testing.T) {
	tests := []struct {
		name  string
		above schema.SampleSet
		want  schema.GapStatistic
	}{
		{"none", schema.SampleSet{}, schema.GapStatistic{}},
		{"one", schema.SampleSet{{Index: 7}}, schema.GapStatistic{}},
		{"two", schema.SampleSet{{Index: 2}, {Index: 4}}, schema.GapStatistic{2}},
		{"uneven", schema.SampleSet{{Index: 1}, {Index: 4}, {Index: 10}}, schema.GapStatistic{3, 6}},
		{"unsorted input", schema.SampleSet{{Index: 10}, {Index: 1}, {Index: 4}}, schema.GapStatistic{3, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeakSpacing(tt.above)
			assert.Equal(t, tt.want, got)
			want := max(0, len(tt.above)-1)
			assert.Len(t, got, want)
		})
	}
}
