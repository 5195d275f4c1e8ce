package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/rowscope/schema"
)

// Default values for configuration. DefaultPreset is resolved here in the
// CLI config layer only; core/algo never substitutes thresholds.
const (
	DefaultPrecision = 1
	MaxPrecision     = 3
	DefaultColumn    = "timing"
	DefaultPreset    = ActsPreset
)

// Named threshold presets.
const (
	ActsPreset    = "acts"
	TimingsPreset = "timings"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Preset bundles the thresholds and outlier bound for a capture type.
type Preset struct {
	Thresholds schema.Thresholds
	MaxLatency float64 // 0 disables outlier filtering
}

// Presets lists the built-in capture presets.
//
//   - acts: acts-per-ref captures, one threshold at 1000 cycles and samples
//     at or above 5000 cycles dropped as noise.
//   - timings: conflict-threshold captures, anything under 800 is a hit and
//     anything over 1000 is a conflict.
var Presets = map[string]Preset{
	ActsPreset: {
		Thresholds: schema.Thresholds{NoConflict: 1000, Conflict: 1000},
		MaxLatency: 5000,
	},
	TimingsPreset: {
		Thresholds: schema.Thresholds{NoConflict: 800, Conflict: 1000},
	},
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Files      []string
	Preset     string
	Thresholds schema.Thresholds
	MaxLatency float64
	Column     string

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Detail     bool
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Verbose    bool

	Check schema.CheckPolicy

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// These are set manually from positional args and viper.IsSet, so no tag
	FileArgs         []string
	NoConflictSet    bool
	ConflictSet      bool
	MaxLatencySet    bool
	ExplicitFileList bool

	// --- Fields from rootCmd.PersistentFlags() ---
	Preset              string  `mapstructure:"preset"`
	NoConflictThreshold float64 `mapstructure:"no-conflict-threshold"`
	ConflictThreshold   float64 `mapstructure:"conflict-threshold"`
	MaxLatency          float64 `mapstructure:"max-latency"`
	Column              string  `mapstructure:"column"`
	Workers             int     `mapstructure:"workers"`
	Precision           int     `mapstructure:"precision"`
	Output              string  `mapstructure:"output"`
	OutputFile          string  `mapstructure:"output-file"`
	Detail              bool    `mapstructure:"detail"`
	Width               int     `mapstructure:"width"`
	Color               string  `mapstructure:"color"`
	Verbose             bool    `mapstructure:"verbose"`
	CacheBackend        string  `mapstructure:"cache-backend"`
	CacheDBConnect      string  `mapstructure:"cache-db-connect"`
	HistoryBackend      string  `mapstructure:"history-backend"`
	HistoryDBConnect    string  `mapstructure:"history-db-connect"`

	// --- Files listed in the config file ---
	Files []string `mapstructure:"files"`

	// --- Fields from checkCmd.Flags() ---
	MinConflicts int   `mapstructure:"min-conflicts"`
	MinActs      int64 `mapstructure:"min-acts"`
	MaxActs      int64 `mapstructure:"max-acts"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Files = slices.Clone(c.Files)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processCheckPolicy(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveFiles(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	default:
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	return nil
}

// ParseBackend normalizes a backend name. Empty means disabled.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	if s == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(s))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	backend, err := ParseBackend(input.CacheBackend)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	backend, err = ParseBackend(input.HistoryBackend)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Both stores delete their own SQLite file on clear, so they must not share one
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-threshold fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	// --- 3. Column Validation ---
	cfg.Column = strings.TrimSpace(input.Column)
	if cfg.Column == "" {
		cfg.Column = DefaultColumn
	}

	return nil
}

// processThresholds resolves the preset and applies explicit overrides.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	name := strings.ToLower(strings.TrimSpace(input.Preset))
	if name == "" {
		name = DefaultPreset
	}
	preset, ok := Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset '%s'. must be %s or %s: %w", input.Preset, ActsPreset, TimingsPreset, schema.ErrInvalidConfiguration)
	}
	cfg.Preset = name
	cfg.Thresholds = preset.Thresholds
	cfg.MaxLatency = preset.MaxLatency

	if input.NoConflictSet {
		cfg.Thresholds.NoConflict = input.NoConflictThreshold
	}
	if input.ConflictSet {
		cfg.Thresholds.Conflict = input.ConflictThreshold
	}
	if input.MaxLatencySet {
		cfg.MaxLatency = input.MaxLatency
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}
	if cfg.MaxLatency < 0 {
		return fmt.Errorf("%w: max-latency must not be negative (received %v)", schema.ErrInvalidConfiguration, cfg.MaxLatency)
	}
	if cfg.MaxLatency > 0 && cfg.MaxLatency <= cfg.Thresholds.Conflict {
		return fmt.Errorf("%w: max-latency %v must exceed the conflict threshold %v (use 0 to disable filtering)",
			schema.ErrInvalidConfiguration, cfg.MaxLatency, cfg.Thresholds.Conflict)
	}
	return nil
}

// processCheckPolicy validates the gate limits used by the check command.
func processCheckPolicy(cfg *Config, input *ConfigRawInput) error {
	if input.MinConflicts < 0 {
		return fmt.Errorf("min-conflicts must not be negative (received %d)", input.MinConflicts)
	}
	if input.MinActs < 0 || input.MaxActs < 0 {
		return fmt.Errorf("min-acts and max-acts must not be negative")
	}
	if input.MaxActs > 0 && input.MinActs > input.MaxActs {
		return fmt.Errorf("min-acts %d exceeds max-acts %d", input.MinActs, input.MaxActs)
	}
	cfg.Check = schema.CheckPolicy{
		MinConflicts: input.MinConflicts,
		MinActs:      input.MinActs,
		MaxActs:      input.MaxActs,
	}
	return nil
}

// resolveFiles picks the input datasets: positional args win over the config file list.
func resolveFiles(cfg *Config, input *ConfigRawInput) error {
	files := input.FileArgs
	if len(files) == 0 {
		files = input.Files
	}
	cfg.Files = cfg.Files[:0]
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			cfg.Files = append(cfg.Files, f)
		}
	}
	if len(cfg.Files) == 0 && input.ExplicitFileList {
		return fmt.Errorf("no input datasets given: %w", schema.ErrEmptyInput)
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
