package schema

import "errors"

// Sentinel errors for the analysis pipeline. Callers match them with errors.Is.
var (
	// ErrInvalidConfiguration means thresholds or the outlier bound are unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientData means a statistic is undefined for the given population.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrEmptyInput means there was nothing to analyze.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidSamples means the samples break ordering or domain rules.
	ErrInvalidSamples = errors.New("invalid samples")
)
