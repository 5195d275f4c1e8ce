package schema

import "time"

// Analysis is the full result of running the pipeline over one dataset.
// A nil summary means the statistic was undefined (insufficient data).
type Analysis struct {
	Thresholds      Thresholds `json:"thresholds" yaml:"thresholds"`
	MaxLatency      float64    `json:"max_latency" yaml:"max_latency"` // 0 when no outlier filter was applied
	TotalSamples    int        `json:"total_samples" yaml:"total_samples"`
	Filtered        int        `json:"filtered" yaml:"filtered"`
	Unclassified    int        `json:"unclassified" yaml:"unclassified"`
	Below           *Summary   `json:"below" yaml:"below"`
	Above           *Summary   `json:"above" yaml:"above"`
	Gaps            *Summary   `json:"gaps" yaml:"gaps"`
	ConflictIndices []uint64   `json:"conflict_indices,omitempty" yaml:"conflict_indices,omitempty"`
	GapSequence     []uint64   `json:"gap_sequence,omitempty" yaml:"gap_sequence,omitempty"`
	ActsPerRef      *int64     `json:"acts_per_ref" yaml:"acts_per_ref"`
}

// Empty reports whether the dataset had no samples at all.
func (a *Analysis) Empty() bool {
	return a.TotalSamples == 0
}

// Conflicts returns the number of samples classified above the conflict threshold.
func (a *Analysis) Conflicts() int {
	if a.Above == nil {
		return 0
	}
	return a.Above.Count
}

// FileReport is the outcome for one input dataset.
type FileReport struct {
	Path        string        `json:"path" yaml:"path"`
	DatasetHash string        `json:"dataset_hash,omitempty" yaml:"dataset_hash,omitempty"`
	Analysis    *Analysis     `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Cached      bool          `json:"cached" yaml:"cached"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Status classifies the report for display and gating.
func (r *FileReport) Status() ReportStatus {
	switch {
	case r.Error != "" || r.Analysis == nil:
		return ErrorStatus
	case r.Analysis.Empty():
		return EmptyStatus
	case r.Analysis.Conflicts() == 0:
		return NoConflictStatus
	default:
		return OKStatus
	}
}

// BatchResult collects the reports of one run, in input order.
type BatchResult struct {
	RunUUID  string        `json:"run_uuid" yaml:"run_uuid"`
	Reports  []FileReport  `json:"reports" yaml:"reports"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Failed returns the number of reports that ended in error.
func (b *BatchResult) Failed() int {
	n := 0
	for i := range b.Reports {
		if b.Reports[i].Status() == ErrorStatus {
			n++
		}
	}
	return n
}

// Record flattens the report into its stored history row.
func (r *FileReport) Record(runID int64, analysisTime time.Time) FileReportRecord {
	rec := FileReportRecord{
		AnalysisID:   runID,
		FilePath:     r.Path,
		AnalysisTime: analysisTime,
		DatasetHash:  r.DatasetHash,
		Status:       string(r.Status()),
	}
	if r.Error != "" {
		msg := r.Error
		rec.ErrorMessage = &msg
	}

	a := r.Analysis
	if a == nil {
		return rec
	}
	rec.TotalSamples = int64(a.TotalSamples)
	rec.Filtered = int64(a.Filtered)
	rec.Unclassified = int64(a.Unclassified)
	if a.Below != nil {
		rec.BelowCount = int64(a.Below.Count)
		rec.BelowMean, rec.BelowStdDev = &a.Below.Mean, &a.Below.StdDev
	}
	if a.Above != nil {
		rec.AboveCount = int64(a.Above.Count)
		rec.AboveMean, rec.AboveStdDev = &a.Above.Mean, &a.Above.StdDev
	}
	if a.Gaps != nil {
		rec.GapMean, rec.GapStdDev = &a.Gaps.Mean, &a.Gaps.StdDev
	}
	rec.ActsPerRef = a.ActsPerRef
	return rec
}
