package sampleio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rsparquet "github.com/huangsam/rowscope/internal/parquet"
	"github.com/huangsam/rowscope/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario is the six-sample capture used across the analysis tests.
var scenario = schema.SampleSet{
	{Index: 0, Latency: 100}, {Index: 1, Latency: 100}, {Index: 2, Latency: 1200},
	{Index: 3, Latency: 100}, {Index: 4, Latency: 1300}, {Index: 5, Latency: 100},
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		column   string
		expected schema.SampleSet
		wantErr  bool
	}{
		{
			name:     "timing column with positional indices",
			input:    "timing\n100\n1200\n",
			column:   "timing",
			expected: schema.SampleSet{{Index: 0, Latency: 100}, {Index: 1, Latency: 1200}},
		},
		{
			name:     "case-insensitive header with extra columns",
			input:    "bank,Timing\n3, 100.5\n3,99\n",
			column:   "timing",
			expected: schema.SampleSet{{Index: 0, Latency: 100.5}, {Index: 1, Latency: 99}},
		},
		{
			name:     "explicit index column",
			input:    "index,timing\n10,100\n14,2000\n",
			column:   "timing",
			expected: schema.SampleSet{{Index: 10, Latency: 100}, {Index: 14, Latency: 2000}},
		},
		{
			name:     "custom column",
			input:    "cycles\n42\n",
			column:   "cycles",
			expected: schema.SampleSet{{Index: 0, Latency: 42}},
		},
		{
			name:     "byte order mark",
			input:    "\ufefftiming\n7\n",
			column:   "timing",
			expected: schema.SampleSet{{Index: 0, Latency: 7}},
		},
		{
			name:     "header only",
			input:    "timing\n",
			column:   "timing",
			expected: schema.SampleSet{},
		},
		{name: "empty input", input: "", column: "timing", wantErr: true},
		{name: "missing column", input: "latency\n1\n", column: "timing", wantErr: true},
		{name: "non-numeric value", input: "timing\nfast\n", column: "timing", wantErr: true},
		{name: "negative index", input: "index,timing\n-1,5\n", column: "timing", wantErr: true},
		{name: "ragged row", input: "index,timing\n1\n", column: "timing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input), tt.column)
			if tt.wantErr {
				assert.ErrorIs(t, err, schema.ErrInvalidSamples)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				assert.Equal(t, tt.expected[i], got[i])
			}
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scenario))
	assert.True(t, strings.HasPrefix(buf.String(), "index,timing\n"))

	got, err := ReadCSV(&buf, "timing")
	require.NoError(t, err)
	assert.Equal(t, scenario, got)
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "capture.csv", "timing\n100\n100\n1200\n100\n1300\n100\n")

	ds, err := Load(path, "timing")
	require.NoError(t, err)
	assert.Equal(t, CSVFormat, ds.Format)
	assert.Equal(t, path, ds.Path)
	assert.Equal(t, scenario, ds.Samples)
	assert.Equal(t, HashSamples(scenario), ds.Hash)
	assert.Len(t, ds.HashString(), 16)
}

func TestLoadRejectsInvalidSamples(t *testing.T) {
	t.Run("non-increasing index", func(t *testing.T) {
		path := writeFile(t, "capture.csv", "index,timing\n3,100\n3,200\n")
		_, err := Load(path, "timing")
		assert.ErrorIs(t, err, schema.ErrInvalidSamples)
	})

	t.Run("negative latency", func(t *testing.T) {
		path := writeFile(t, "capture.csv", "timing\n-5\n")
		_, err := Load(path, "timing")
		assert.ErrorIs(t, err, schema.ErrInvalidSamples)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), "timing")
		assert.Error(t, err)
	})
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.parquet")
	require.NoError(t, rsparquet.WriteSamplesParquet(scenario, path))

	ds, err := Load(path, "TIMING")
	require.NoError(t, err)
	assert.Equal(t, ParquetFormat, ds.Format)
	assert.Equal(t, scenario, ds.Samples)

	// Same capture in another format shares the hash.
	csvPath := writeFile(t, "capture.csv", "timing\n100\n100\n1200\n100\n1300\n100\n")
	csvDS, err := Load(csvPath, "timing")
	require.NoError(t, err)
	assert.Equal(t, csvDS.Hash, ds.Hash)
}

func TestLoadParquetNumericKinds(t *testing.T) {
	type float32Row struct {
		Timing float32 `parquet:"timing"`
	}
	type int32Row struct {
		Seq    int32 `parquet:"index"`
		Timing int32 `parquet:"timing"`
	}

	dir := t.TempDir()
	floatPath := filepath.Join(dir, "f32.parquet")
	require.NoError(t, parquet.WriteFile(floatPath, []float32Row{{Timing: 1.5}, {Timing: 2.5}}))
	ds, err := Load(floatPath, "timing")
	require.NoError(t, err)
	assert.Equal(t, schema.SampleSet{{Index: 0, Latency: 1.5}, {Index: 1, Latency: 2.5}}, ds.Samples)

	intPath := filepath.Join(dir, "i32.parquet")
	require.NoError(t, parquet.WriteFile(intPath, []int32Row{{Seq: 4, Timing: 900}, {Seq: 9, Timing: 1100}}))
	ds, err = Load(intPath, "timing")
	require.NoError(t, err)
	assert.Equal(t, schema.SampleSet{{Index: 4, Latency: 900}, {Index: 9, Latency: 1100}}, ds.Samples)
}

func TestLoadParquetErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "capture.parquet")
		require.NoError(t, rsparquet.WriteSamplesParquet(scenario, path))
		_, err := Load(path, "cycles")
		assert.ErrorIs(t, err, schema.ErrInvalidSamples)
	})

	t.Run("string column", func(t *testing.T) {
		type row struct {
			Timing string `parquet:"timing"`
		}
		path := filepath.Join(t.TempDir(), "strings.parquet")
		require.NoError(t, parquet.WriteFile(path, []row{{Timing: "fast"}}))
		_, err := Load(path, "timing")
		assert.ErrorIs(t, err, schema.ErrInvalidSamples)
	})

	t.Run("not a parquet file", func(t *testing.T) {
		path := writeFile(t, "bogus.parquet", "timing\n1\n")
		_, err := Load(path, "timing")
		assert.ErrorIs(t, err, schema.ErrInvalidSamples)
	})
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, ParquetFormat, DetectFormat("a/b.PARQUET"))
	assert.Equal(t, ParquetFormat, DetectFormat("a/b.pq"))
	assert.Equal(t, CSVFormat, DetectFormat("a/b.csv"))
	assert.Equal(t, CSVFormat, DetectFormat("capture"))
	assert.Equal(t, CSVFormat, DetectFormat(StdinPath))
}

func TestHashSamples(t *testing.T) {
	assert.Equal(t, HashSamples(scenario), HashSamples(scenario))
	assert.NotEqual(t, HashSamples(scenario), HashSamples(scenario[:5]))

	shifted := schema.SampleSet{{Index: 1, Latency: 100}}
	assert.NotEqual(t, HashSamples(schema.SampleSet{{Index: 0, Latency: 100}}), HashSamples(shifted))
}
