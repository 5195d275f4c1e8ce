package algo

import (
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/rowscope/schema"
)

// Options configures one run of Analyze.
type Options struct {
	Thresholds schema.Thresholds
	MaxLatency float64 // 0 disables outlier filtering
}

// Validate checks the thresholds and, when filtering is on, the outlier bound.
// The bound must sit above the conflict threshold or no conflict could survive.
func (o Options) Validate() error {
	if err := o.Thresholds.Validate(); err != nil {
		return err
	}
	if o.MaxLatency == 0 {
		return nil
	}
	if math.IsNaN(o.MaxLatency) || math.IsInf(o.MaxLatency, 0) || o.MaxLatency < 0 {
		return fmt.Errorf("%w: max latency %v must be finite and positive", schema.ErrInvalidConfiguration, o.MaxLatency)
	}
	if o.MaxLatency <= o.Thresholds.Conflict {
		return fmt.Errorf("%w: max latency %v must exceed conflict threshold %v", schema.ErrInvalidConfiguration, o.MaxLatency, o.Thresholds.Conflict)
	}
	return nil
}

// Analyze runs filter, classify, summaries, peak spacing and advice over samples.
// An empty sample set is not an error: the result has no summaries and
// TotalSamples == 0.
func Analyze(samples schema.SampleSet, opts Options) (*schema.Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := samples.Validate(); err != nil {
		return nil, err
	}

	result := &schema.Analysis{
		Thresholds:   opts.Thresholds,
		MaxLatency:   opts.MaxLatency,
		TotalSamples: len(samples),
	}
	if len(samples) == 0 {
		return result, nil
	}

	kept := samples
	if opts.MaxLatency > 0 {
		var err error
		if kept, err = FilterOutliers(samples, opts.MaxLatency); err != nil {
			return nil, err
		}
		result.Filtered = len(samples) - len(kept)
	}

	classes, err := Classify(kept, opts.Thresholds)
	if err != nil {
		return nil, err
	}
	result.Unclassified = classes.Unclassified

	if result.Below, err = optionalSummary(classes.Below.Latencies()); err != nil {
		return nil, err
	}
	if result.Above, err = optionalSummary(classes.Above.Latencies()); err != nil {
		return nil, err
	}
	result.ConflictIndices = classes.Above.Indices()

	gaps := PeakSpacing(classes.Above)
	result.GapSequence = gaps
	if result.Gaps, err = optionalSummary(gaps.Values()); err != nil {
		return nil, err
	}
	if result.Gaps != nil {
		acts, err := RecommendActsPerRef(result.Gaps.Mean)
		if err != nil {
			return nil, err
		}
		result.ActsPerRef = &acts
	}

	return result, nil
}

// optionalSummary maps ErrInsufficientData to a nil summary.
func optionalSummary(values []float64) (*schema.Summary, error) {
	s, err := Summarize(values)
	if errors.Is(err, schema.ErrInsufficientData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
