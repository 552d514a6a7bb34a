package core

import "fmt"

// Frame is a small in-memory table with ordered columns. It is the tabular
// carrier between the service client (query responses), the join validator
// (column disambiguation) and the warehouse adapters (writeback).
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]any
}

// NewFrame creates an empty frame with the given column order.
func NewFrame(columns ...string) *Frame {
	f := &Frame{
		cols:  append([]string(nil), columns...),
		index: make(map[string]int, len(columns)),
	}
	for i, c := range f.cols {
		f.index[c] = i
	}
	return f
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// ColumnSet returns the column names as a set.
func (f *Frame) ColumnSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.cols))
	for _, c := range f.cols {
		set[c] = struct{}{}
	}
	return set
}

// HasColumn reports whether the frame contains the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return len(f.rows) }

// Row returns row i. The returned slice is not a copy.
func (f *Frame) Row(i int) []any { return f.rows[i] }

// AppendRow adds a row. The value count must match the column count.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) != len(f.cols) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.cols))
	}
	f.rows = append(f.rows, values)
	return nil
}

// Column returns all values of the named column.
func (f *Frame) Column(name string) ([]any, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("no column named %q", name)
	}
	out := make([]any, len(f.rows))
	for r, row := range f.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Rename changes a column's name in place.
func (f *Frame) Rename(old, new string) error {
	i, ok := f.index[old]
	if !ok {
		return fmt.Errorf("no column named %q", old)
	}
	delete(f.index, old)
	f.cols[i] = new
	f.index[new] = i
	return nil
}

// LeftJoin joins other onto f by equality on the named column, keeping every
// row of f. When a key occurs multiple times in other, the first match wins.
// Columns of other (minus the join column) are appended to f's columns;
// unmatched rows get nil values.
func (f *Frame) LeftJoin(other *Frame, on string) (*Frame, error) {
	li, ok := f.index[on]
	if !ok {
		return nil, fmt.Errorf("left frame has no column named %q", on)
	}
	ri, ok := other.index[on]
	if !ok {
		return nil, fmt.Errorf("right frame has no column named %q", on)
	}

	var rightCols []string
	var rightIdx []int
	for i, c := range other.cols {
		if i == ri {
			continue
		}
		rightCols = append(rightCols, c)
		rightIdx = append(rightIdx, i)
	}

	lookup := make(map[any][]any, len(other.rows))
	for _, row := range other.rows {
		key := row[ri]
		if _, seen := lookup[key]; seen {
			continue
		}
		picked := make([]any, len(rightIdx))
		for j, i := range rightIdx {
			picked[j] = row[i]
		}
		lookup[key] = picked
	}

	joined := NewFrame(append(f.Columns(), rightCols...)...)
	for _, row := range f.rows {
		out := append(append([]any(nil), row...), make([]any, len(rightCols))...)
		if match, ok := lookup[row[li]]; ok {
			copy(out[len(f.cols):], match)
		}
		joined.rows = append(joined.rows, out)
	}
	return joined, nil
}
