package schema

// CheckPolicy holds the gate limits applied by the check command.
// Zero-valued acts bounds are unbounded.
type CheckPolicy struct {
	MinConflicts int   `json:"min_conflicts" yaml:"min_conflicts"`
	MinActs      int64 `json:"min_acts" yaml:"min_acts"`
	MaxActs      int64 `json:"max_acts" yaml:"max_acts"`
}

// CheckViolation records why a dataset failed the gate.
type CheckViolation struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// CheckResult is the outcome of evaluating a batch against a CheckPolicy.
type CheckResult struct {
	Passed     bool             `json:"passed" yaml:"passed"`
	TotalFiles int              `json:"total_files" yaml:"total_files"`
	Policy     CheckPolicy      `json:"policy" yaml:"policy"`
	Violations []CheckViolation `json:"violations" yaml:"violations"`
}
