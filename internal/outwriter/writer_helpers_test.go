package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{name: "precision 1", precision: 1, value: 1250.04, expected: "1250.0"},
		{name: "precision 3", precision: 3, value: 70.710678, expected: "70.711"},
		{name: "negative value", precision: 2, value: -42.567, expected: "-42.57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestOptionalFormatters(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	v := 2.26
	n := int64(4)

	assert.Equal(t, "2.3", optionalFloat(&v, fmtFloat, notAvailable))
	assert.Equal(t, notAvailable, optionalFloat(nil, fmtFloat, notAvailable))
	assert.Equal(t, "", optionalFloat(nil, fmtFloat, ""))
	assert.Equal(t, "4", optionalInt(&n, notAvailable))
	assert.Equal(t, notAvailable, optionalInt(nil, notAvailable))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"acts_per_ref": 4, "gaps": nil}))
	assert.Equal(t, "{\n  \"acts_per_ref\": 4,\n  \"gaps\": null\n}\n", buf.String())
}

func TestWriteJSONError(t *testing.T) {
	// Test with a value that can't be marshaled to JSON
	var buf bytes.Buffer
	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteYAML(t *testing.T) {
	type doc struct {
		Path  string   `yaml:"path"`
		Gaps  *float64 `yaml:"gaps"`
		Ticks []int    `yaml:"ticks"`
	}

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, doc{Path: "bank0.csv", Ticks: []int{2}}))
	assert.Equal(t, "path: bank0.csv\ngaps: null\nticks:\n  - 2\n", buf.String())
}

func TestWriteCSVWithHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:     "simple csv",
			header:   []string{"path", "status"},
			rows:     [][]string{{"a.csv", "ok"}, {"b.csv", "error"}},
			expected: "path,status\na.csv,ok\nb.csv,error\n",
		},
		{
			name:     "empty rows",
			header:   []string{"col1", "col2"},
			expected: "col1,col2\n",
		},
		{
			name:     "values with commas",
			header:   []string{"path", "reason"},
			rows:     [][]string{{"a.csv", "bad value, line 3"}},
			expected: "path,reason\na.csv,\"bad value, line 3\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeCSVWithHeader(&buf, tt.header, func(w *csv.Writer) error {
				for _, row := range tt.rows {
					if err := w.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteCSVWithHeaderError(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"col"}, func(w *csv.Writer) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(w io.Writer) error {
			called = true
			return nil
		}, "Test message")
		require.NoError(t, err)
		assert.True(t, called, "Writer function should have been called")
	})

	t.Run("actual file", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "test.txt")
		err := writeWithFile(tmpFile, func(w io.Writer) error {
			_, err := w.Write([]byte("test content"))
			return err
		}, "Test message")
		require.NoError(t, err)

		content, err := os.ReadFile(tmpFile)
		require.NoError(t, err)
		assert.Equal(t, "test content", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "test.txt")
		err := writeWithFile(tmpFile, func(w io.Writer) error {
			return assert.AnError
		}, "Test message")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/file.txt", func(w io.Writer) error {
			return nil
		}, "Test message")
		require.Error(t, err)
	})
}
