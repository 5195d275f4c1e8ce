package sampleio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/rowscope/schema"
	"github.com/parquet-go/parquet-go"
)

// ReadParquetFile decodes a Parquet capture. The latency column may be any
// numeric physical type; the optional index column must be an integer.
func ReadParquetFile(path, column string) (schema.SampleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat parquet file: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSamples, err)
	}

	// Top-level leaf columns in file order; position is the column index.
	var names []string
	timingCol, indexCol := -1, -1
	for i, p := range pf.Schema().Columns() {
		name := strings.Join(p, ".")
		names = append(names, name)
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

	latencies, err := readColumn(pf, timingCol, toFloat)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", names[timingCol], err)
	}

	var indices []uint64
	if indexCol >= 0 {
		if indices, err = readColumn(pf, indexCol, toIndex); err != nil {
			return nil, fmt.Errorf("column %s: %w", names[indexCol], err)
		}
	}

	return buildSamples(latencies, indices)
}

// readColumn walks every page of one leaf column across all row groups.
func readColumn[T any](pf *parquet.File, col int, convert func(parquet.Value) (T, error)) ([]T, error) {
	out := make([]T, 0, pf.NumRows())
	buf := make([]parquet.Value, 1024)

	for _, rg := range pf.RowGroups() {
		pages := rg.ColumnChunks()[col].Pages()
		for {
			page, err := pages.ReadPage()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = pages.Close()
				return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSamples, err)
			}

			values := page.Values()
			for {
				n, err := values.ReadValues(buf)
				for _, v := range buf[:n] {
					x, cerr := convert(v)
					if cerr != nil {
						parquet.Release(page)
						_ = pages.Close()
						return nil, cerr
					}
					out = append(out, x)
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					parquet.Release(page)
					_ = pages.Close()
					return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSamples, err)
				}
			}
			parquet.Release(page)
		}
		if err := pages.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toFloat(v parquet.Value) (float64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%w: null latency", schema.ErrInvalidSamples)
	}
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	default:
		return 0, fmt.Errorf("%w: unsupported latency type %s", schema.ErrInvalidSamples, v.Kind())
	}
}

func toIndex(v parquet.Value) (uint64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%w: null index", schema.ErrInvalidSamples)
	}
	var i int64
	switch v.Kind() {
	case parquet.Int32:
		i = int64(v.Int32())
	case parquet.Int64:
		i = v.Int64()
	default:
		return 0, fmt.Errorf("%w: unsupported index type %s", schema.ErrInvalidSamples, v.Kind())
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: negative index %d", schema.ErrInvalidSamples, i)
	}
	return uint64(i), nil
}
