// Package schema holds the data types shared by the analysis core, the
// loaders, the stores and the writers.
package schema

import (
	"fmt"
	"math"
)

// TimingSample is one timed memory access.
type TimingSample struct {
	Index   uint64  `json:"index" yaml:"index"`     // Acquisition order position
	Latency float64 `json:"latency" yaml:"latency"` // Measured access time in cycles
}

// SampleSet is an ordered sequence of samples with strictly increasing indices.
type SampleSet []TimingSample

// NewSampleSet builds a SampleSet from raw latencies, assigning indices by position.
func NewSampleSet(latencies []float64) SampleSet {
	samples := make(SampleSet, len(latencies))
	for i, l := range latencies {
		samples[i] = TimingSample{Index: uint64(i), Latency: l}
	}
	return samples
}

// Validate checks index ordering and latency domain.
func (s SampleSet) Validate() error {
	for i, sample := range s {
		if math.IsNaN(sample.Latency) || math.IsInf(sample.Latency, 0) || sample.Latency < 0 {
			return fmt.Errorf("%w: sample %d has latency %v", ErrInvalidSamples, sample.Index, sample.Latency)
		}
		if i > 0 && sample.Index <= s[i-1].Index {
			return fmt.Errorf("%w: index %d follows %d", ErrInvalidSamples, sample.Index, s[i-1].Index)
		}
	}
	return nil
}

// Indices returns the index of every sample in order.
func (s SampleSet) Indices() []uint64 {
	out := make([]uint64, len(s))
	for i, sample := range s {
		out[i] = sample.Index
	}
	return out
}

// Latencies returns the latency of every sample in order.
func (s SampleSet) Latencies() []float64 {
	out := make([]float64, len(s))
	for i, sample := range s {
		out[i] = sample.Latency
	}
	return out
}

// Thresholds are the latency cut-offs used to separate row buffer hits from conflicts.
type Thresholds struct {
	NoConflict float64 `json:"no_conflict" yaml:"no_conflict"` // Samples strictly below are "no conflict"
	Conflict   float64 `json:"conflict" yaml:"conflict"`       // Samples strictly above are "conflict"
}

// Validate reports ErrInvalidConfiguration for non-finite, negative or swapped bounds.
func (t Thresholds) Validate() error {
	for _, v := range []float64{t.NoConflict, t.Conflict} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: threshold %v must be finite and non-negative", ErrInvalidConfiguration, v)
		}
	}
	if t.Conflict < t.NoConflict {
		return fmt.Errorf("%w: conflict threshold %v is below no-conflict threshold %v", ErrInvalidConfiguration, t.Conflict, t.NoConflict)
	}
	return nil
}

// Classification partitions a SampleSet by Thresholds.
// Samples inside the closed band [NoConflict, Conflict] land in neither subset.
type Classification struct {
	Below        SampleSet `json:"below" yaml:"below"`
	Above        SampleSet `json:"above" yaml:"above"`
	Unclassified int       `json:"unclassified" yaml:"unclassified"`
}

// GapStatistic holds the index distance between consecutive conflicts.
type GapStatistic []uint64

// Values converts the gaps for use with the summary statistics.
func (g GapStatistic) Values() []float64 {
	out := make([]float64, len(g))
	for i, v := range g {
		out[i] = float64(v)
	}
	return out
}

// Summary describes a population of values.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Median float64 `json:"median" yaml:"median"`
}
