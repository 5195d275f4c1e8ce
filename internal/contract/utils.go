package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/rowscope/schema"
)

// Status label constants.
const (
	OKValue         = "OK"           // Conflicts found and spacing computed
	NoConflictValue = "NO CONFLICTS" // Nothing above the conflict threshold
	EmptyValue      = "EMPTY"        // Dataset had no samples
	ErrorValue      = "ERROR"        // Dataset could not be analyzed
)

// Color variables for console output.
var (
	OKColor         = color.New(color.FgGreen, color.Bold) // OKColor represents a usable capture.
	NoConflictColor = color.New(color.FgYellow)            // NoConflictColor represents caution, not bold.
	EmptyColor      = color.New(color.FgCyan)              // EmptyColor represents informational signal.
	ErrorColor      = color.New(color.FgRed, color.Bold)   // ErrorColor represents standard danger.
)

// GetPlainLabel returns the plain text label for a report status.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(status schema.ReportStatus) string {
	switch status {
	case schema.OKStatus:
		return OKValue
	case schema.NoConflictStatus:
		return NoConflictValue
	case schema.EmptyStatus:
		return EmptyValue
	default:
		return ErrorValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(status schema.ReportStatus) string {
	text := GetPlainLabel(status)

	switch text {
	case OKValue:
		return OKColor.Sprint(text)
	case NoConflictValue:
		return NoConflictColor.Sprint(text)
	case EmptyValue:
		return EmptyColor.Sprint(text)
	default:
		return ErrorColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. Empty means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the result cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rowscope_cache.db"
	}
	return filepath.Join(homeDir, ".rowscope_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rowscope_history.db"
	}
	return filepath.Join(homeDir, ".rowscope_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for "..." and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
