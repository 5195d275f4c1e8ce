package algo

import (
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/rowscope/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes count, mean, sample standard deviation (n-1), min, max
// and empirical median. A single value has a standard deviation of 0.
func Summarize(values []float64) (schema.Summary, error) {
	if len(values) == 0 {
		return schema.Summary{}, fmt.Errorf("%w: no values to summarize", schema.ErrInsufficientData)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := schema.Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s, nil
}

// RecommendActsPerRef turns a mean conflict spacing into the acts_per_ref
// tuning value for the hammering engine: floor(2 * gapMean).
// Conflicts are assumed to recur at twice the rate of the refresh interval.
func RecommendActsPerRef(gapMean float64) (int64, error) {
	if math.IsNaN(gapMean) || math.IsInf(gapMean, 0) || gapMean < 0 {
		return 0, fmt.Errorf("%w: gap mean %v must be finite and non-negative", schema.ErrInvalidConfiguration, gapMean)
	}
	return int64(math.Floor(2 * gapMean)), nil
}
