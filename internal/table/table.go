// Package table holds the in-memory tabular model used by the sweeper and
// the pure transforms that run over it.
//
// A Table is an ordered list of named columns sharing one row count. Every
// transform returns a new Table and leaves its input untouched, so a Table
// parsed once can be fed through several option sets in the same request.
package table

import (
	"fmt"
	"strconv"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// Value is a single cell.
//
// Text keeps the cell as it was read so untouched values survive an export
// byte-for-byte. Number is only meaningful in numeric columns.
type Value struct {
	Text    string
	Number  float64
	Missing bool
}

// String returns the display form of the cell. Missing cells render empty.
func (v Value) String() string {
	if v.Missing {
		return ""
	}
	return v.Text
}

// NumberValue builds a present numeric cell.
func NumberValue(f float64) Value {
	return Value{Text: formatNumber(f), Number: f}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// IsNumeric reports whether every present cell in the column is a number.
func (c Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// Present returns the numbers of the non-missing cells in row order.
func (c Column) Present() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Missing {
			out = append(out, v.Number)
		}
	}
	return out
}

// MissingCount returns the number of missing cells.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Missing {
			n++
		}
	}
	return n
}

func (c Column) clone() Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

// Table is rectangular data: ordered columns with a shared row count.
type Table struct {
	columns []Column
	rows    int
}

// New builds a Table from a header and string records, inferring each
// column's kind. Records shorter than the header are padded with missing
// cells; longer records are an error.
func New(header []string, records [][]string) (*Table, error) {
	names := normalizeHeader(header)
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Values: make([]Value, len(records))}
	}
	for r, rec := range records {
		if len(rec) > len(names) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrInvalidCSV, r+1, len(rec), len(names))
		}
		for c := range cols {
			raw := ""
			if c < len(rec) {
				raw = rec[c]
			}
			cols[c].Values[r] = Value{Text: raw, Missing: isMissing(raw)}
		}
	}
	for i := range cols {
		inferKind(&cols[i])
	}
	return &Table{columns: cols, rows: len(records)}, nil
}

// inferKind marks a column numeric when all of its present cells parse as
// numbers. A column with no present cells is numeric as well.
func inferKind(c *Column) {
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		if _, ok := parseNumber(v.Text); !ok {
			c.Kind = KindText
			return
		}
	}
	c.Kind = KindNumeric
	for i, v := range c.Values {
		if v.Missing {
			continue
		}
		f, _ := parseNumber(v.Text)
		c.Values[i].Number = f
	}
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns a copy of the columns.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.clone()
	}
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.index(name)
	if i < 0 {
		return Column{}, false
	}
	return t.columns[i].clone(), true
}

// NumericColumns returns the numeric columns in table order.
func (t *Table) NumericColumns() []Column {
	var out []Column
	for _, c := range t.columns {
		if c.IsNumeric() {
			out = append(out, c.clone())
		}
	}
	return out
}

// Row returns the display strings of row i.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i].String()
	}
	return row
}

// Head returns up to n leading rows as display strings.
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Records returns the header followed by every row, missing cells empty.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, t.rows+1)
	out = append(out, t.Names())
	for i := 0; i < t.rows; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

func (t *Table) index(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// normalizeHeader fills blank names with "Unnamed: <i>" and suffixes
// repeated names with ".1", ".2", ... in order of appearance.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
