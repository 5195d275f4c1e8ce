// Package sampleio loads timing captures from CSV and Parquet files.
package sampleio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/huangsam/rowscope/schema"
)

// StdinPath reads a CSV capture from standard input.
const StdinPath = "-"

// IndexColumn is the optional column carrying explicit acquisition indices.
const IndexColumn = "index"

// Format identifies the on-disk encoding of a capture.
type Format string

// Supported capture formats.
const (
	CSVFormat     Format = "csv"
	ParquetFormat Format = "parquet"
)

// Dataset is a validated capture together with its content hash.
type Dataset struct {
	Path    string
	Format  Format
	Samples schema.SampleSet
	Hash    uint64 // xxhash of the decoded samples, independent of Format
}

// HashString returns the hash as fixed-width hex.
func (d *Dataset) HashString() string {
	return fmt.Sprintf("%016x", d.Hash)
}

// DetectFormat picks the decoder from the file extension. Anything that is not Parquet is read as CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return ParquetFormat
	default:
		return CSVFormat
	}
}

// Load reads, validates and hashes the capture at path.
// column selects the latency column by name, case-insensitively.
func Load(path, column string) (*Dataset, error) {
	var (
		samples schema.SampleSet
		err     error
	)
	format := DetectFormat(path)

	switch {
	case path == StdinPath:
		samples, err = ReadCSV(os.Stdin, column)
	case format == ParquetFormat:
		samples, err = ReadParquetFile(path, column)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		samples, err = ReadCSV(f, column)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := samples.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Dataset{
		Path:    path,
		Format:  format,
		Samples: samples,
		Hash:    HashSamples(samples),
	}, nil
}

// HashSamples digests the index and latency of every sample.
func HashSamples(samples schema.SampleSet) uint64 {
	d := xxhash.New()
	var buf [16]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint64(buf[:8], s.Index)
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(s.Latency))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// buildSamples zips latencies with optional explicit indices.
func buildSamples(latencies []float64, indices []uint64) (schema.SampleSet, error) {
	if indices == nil {
		return schema.NewSampleSet(latencies), nil
	}
	if len(indices) != len(latencies) {
		return nil, fmt.Errorf("%w: %d indices for %d latencies", schema.ErrInvalidSamples, len(indices), len(latencies))
	}
	samples := make(schema.SampleSet, len(latencies))
	for i := range latencies {
		samples[i] = schema.TimingSample{Index: indices[i], Latency: latencies[i]}
	}
	return samples, nil
}

// ensureColumn reports a missing latency column consistently across formats.
func ensureColumn(found bool, column string, available []string) error {
	if found {
		return nil
	}
	return fmt.Errorf("%w: no %q column (have %s)", schema.ErrInvalidSamples, column, strings.Join(available, ", "))
}
