// Package loader reads tabular files into an in-memory Frame.
package loader

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	rabbits "github.com/jamesainslie/go-rabbits"
)

// Frame is a table of named string columns. Cells keep their text form and
// are parsed on access. A Frame is never modified in place.
type Frame struct {
	columns []string
	index   map[string]int
	cells   [][]string // cells[column][row]
	rows    int
}

// NewFrame builds a Frame from a header and row-major records.
// Every record must have one cell per column.
func NewFrame(columns []string, records [][]string) (*Frame, error) {
	f := &Frame{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
		cells:   make([][]string, len(columns)),
		rows:    len(records),
	}
	for i, name := range columns {
		if _, dup := f.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		f.index[name] = i
		f.cells[i] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d",
				ErrRaggedRecord, r, len(rec), len(columns))
		}
		for c, cell := range rec {
			f.cells[c][r] = cell
		}
	}
	return f, nil
}

// Columns returns the column names in file order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Has reports whether the frame has a column.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) column(name string) ([]string, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return f.cells[i], nil
}

// Strings returns a copy of a column's raw cells.
func (f *Frame) Strings(name string) ([]string, error) {
	col, err := f.column(name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(col), nil
}

// IntColumn parses a column as integers. Cells such as "1.0" are accepted;
// empty, fractional or non-numeric cells are reported as
// *rabbits.InvalidInputError so label validation names the column.
func (f *Frame) IntColumn(name string) ([]int, error) {
	col, err := f.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(col))
	for i, cell := range col {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil || v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, &rabbits.InvalidInputError{Column: name, Row: i, Value: strconv.Quote(cell)}
		}
		out[i] = int(v)
	}
	return out, nil
}

// FloatColumn parses a column as floats. Empty cells and "NaN" become NaN.
func (f *Frame) FloatColumn(name string) ([]float64, error) {
	col, err := f.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, cell := range col {
		v, err := parseFloat(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %q", ErrNotNumeric, name, i, cell)
		}
		out[i] = v
	}
	return out, nil
}

// Floats returns the named columns as a row-major matrix.
func (f *Frame) Floats(names ...string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		col, err := f.FloatColumn(name)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}

	out := make([][]float64, f.rows)
	for i := range out {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = cols[j][i]
		}
		out[i] = row
	}
	return out, nil
}

// Records returns the table row-major, in column order.
func (f *Frame) Records() [][]string {
	out := make([][]string, f.rows)
	for r := range out {
		rec := make([]string, len(f.columns))
		for c := range f.columns {
			rec[c] = f.cells[c][r]
		}
		out[r] = rec
	}
	return out
}

// WithColumn returns a new frame with the column added, or replaced when
// the name already exists.
func (f *Frame) WithColumn(name string, values []string) (*Frame, error) {
	if len(values) != f.rows {
		return nil, fmt.Errorf("%w: column %q has %d values, frame has %d rows",
			ErrLengthMismatch, name, len(values), f.rows)
	}

	out := &Frame{
		columns: slices.Clone(f.columns),
		index:   make(map[string]int, len(f.columns)+1),
		cells:   slices.Clone(f.cells),
		rows:    f.rows,
	}
	for k, v := range f.index {
		out.index[k] = v
	}

	col := slices.Clone(values)
	if i, ok := out.index[name]; ok {
		out.cells[i] = col
		return out, nil
	}
	out.index[name] = len(out.columns)
	out.columns = append(out.columns, name)
	out.cells = append(out.cells, col)
	return out, nil
}

// WithInts adds or replaces an integer column.
func (f *Frame) WithInts(name string, values []int) (*Frame, error) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = strconv.Itoa(v)
	}
	return f.WithColumn(name, cells)
}

// WithFloats adds or replaces a float column.
func (f *Frame) WithFloats(name string, values []float64) (*Frame, error) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return f.WithColumn(name, cells)
}

func parseFloat(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
