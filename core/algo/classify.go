// Package algo holds the pure analysis functions: classification, outlier
// filtering, peak spacing, summary statistics and the acts-per-ref advisor.
package algo

import (
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/rowscope/schema"
)

// Classify partitions samples into the below and above subsets.
// A sample equal to either threshold is left unclassified.
// The thresholds are validated before any sample is inspected.
func Classify(samples schema.SampleSet, thresholds schema.Thresholds) (schema.Classification, error) {
	if err := thresholds.Validate(); err != nil {
		return schema.Classification{}, err
	}

	c := schema.Classification{
		Below: schema.SampleSet{},
		Above: schema.SampleSet{},
	}
	for _, s := range samples {
		switch {
		case s.Latency < thresholds.NoConflict:
			c.Below = append(c.Below, s)
		case s.Latency > thresholds.Conflict:
			c.Above = append(c.Above, s)
		default:
			c.Unclassified++
		}
	}
	return c, nil
}

// FilterOutliers keeps the samples with latency strictly below maxLatency.
// Order and original indices are preserved. A bound of 0 keeps nothing;
// treating 0 as "no filter" is left to Options.
func FilterOutliers(samples schema.SampleSet, maxLatency float64) (schema.SampleSet, error) {
	if math.IsNaN(maxLatency) || math.IsInf(maxLatency, 0) || maxLatency < 0 {
		return nil, fmt.Errorf("%w: max latency %v must be finite and non-negative", schema.ErrInvalidConfiguration, maxLatency)
	}

	kept := make(schema.SampleSet, 0, len(samples))
	for _, s := range samples {
		if s.Latency < maxLatency {
			kept = append(kept, s)
		}
	}
	return kept, nil
}

// PeakSpacing returns the index distance between consecutive conflicts.
// The input is sorted by index on a copy, so callers may pass any order.
func PeakSpacing(above schema.SampleSet) schema.GapStatistic {
	if len(above) < 2 {
		return schema.GapStatistic{}
	}

	indices := above.Indices()
	slices.Sort(indices)

	gaps := make(schema.GapStatistic, 0, len(indices)-1)
	for i := 1; i < len(indices); i++ {
		gaps = append(gaps, indices[i]-indices[i-1])
	}
	return gaps
}
