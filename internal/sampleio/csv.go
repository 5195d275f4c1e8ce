package sampleio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/rowscope/schema"
)

// ReadCSV decodes a headed CSV capture. Rows are indexed by position unless
// an index column is present.
func ReadCSV(r io.Reader, column string) (schema.SampleSet, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", schema.ErrInvalidSamples)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSamples, err)
	}

	names := make([]string, len(header))
	timingCol, indexCol := -1, -1
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		names[i] = name
		switch {
		case strings.EqualFold(name, column):
			timingCol = i
		case strings.EqualFold(name, IndexColumn):
			indexCol = i
		}
	}
	if err := ensureColumn(timingCol >= 0, column, names); err != nil {
		return nil, err
	}

	var latencies []float64
	var indices []uint64
	if indexCol >= 0 {
		indices = []uint64{}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSamples, err)
		}
		line, _ := cr.FieldPos(timingCol)

		latency, err := strconv.ParseFloat(strings.TrimSpace(record[timingCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad %s value %q", schema.ErrInvalidSamples, line, names[timingCol], record[timingCol])
		}
		latencies = append(latencies, latency)

		if indexCol >= 0 {
			idx, err := strconv.ParseUint(strings.TrimSpace(record[indexCol]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad index value %q", schema.ErrInvalidSamples, line, record[indexCol])
			}
			indices = append(indices, idx)
		}
	}

	return buildSamples(latencies, indices)
}

// WriteCSV encodes samples as an index,timing CSV.
func WriteCSV(w io.Writer, samples schema.SampleSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{IndexColumn, "timing"}); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write([]string{
			strconv.FormatUint(s.Index, 10),
			strconv.FormatFloat(s.Latency, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
