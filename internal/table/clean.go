package table

import (
	"strconv"
	"strings"
)

// CleanOptions selects the cleaning steps to run.
type CleanOptions struct {
	RemoveDuplicates bool
	FillMissing      bool
}

// Clean applies the requested steps. Fill runs before dedupe: rows that only
// become equal once their gaps are filled are then collapsed too, and a
// second Clean with the same options changes nothing.
func Clean(t *Table, opts CleanOptions) *Table {
	out := t
	if opts.FillMissing {
		out = FillMissingNumeric(out)
	}
	if opts.RemoveDuplicates {
		out = DropDuplicates(out)
	}
	if out == t {
		out = t.clone()
	}
	return out
}

// DropDuplicates keeps the first occurrence of each distinct row. Missing
// cells compare equal to each other.
func DropDuplicates(t *Table) *Table {
	seen := make(map[string]struct{}, t.rows)
	keep := make([]int, 0, t.rows)
	var sb strings.Builder
	for r := 0; r < t.rows; r++ {
		sb.Reset()
		for _, c := range t.columns {
			rowKey(&sb, c, c.Values[r])
		}
		k := sb.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}
	return t.selectRows(keep)
}

// rowKey appends a length-prefixed encoding of v so distinct rows never
// collide. Numeric cells compare by value, so "1" and "1.0" are equal.
func rowKey(sb *strings.Builder, c Column, v Value) {
	var s string
	switch {
	case v.Missing:
		sb.WriteString("m;")
		return
	case c.IsNumeric():
		s = formatNumber(v.Number)
	default:
		s = v.Text
	}
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteByte(':')
	sb.WriteString(s)
}

// FillMissingNumeric replaces missing cells of numeric columns with the
// column mean over present cells. Columns with no present cell are left as
// they are; text columns are never touched.
func FillMissingNumeric(t *Table) *Table {
	out := t.clone()
	for i := range out.columns {
		c := &out.columns[i]
		if !c.IsNumeric() || c.MissingCount() == 0 {
			continue
		}
		present := c.Present()
		if len(present) == 0 {
			continue
		}
		fill := NumberValue(mean(present))
		for r, v := range c.Values {
			if v.Missing {
				c.Values[r] = fill
			}
		}
	}
	return out
}

func (t *Table) selectRows(idx []int) *Table {
	out := &Table{columns: make([]Column, len(t.columns)), rows: len(idx)}
	for i, c := range t.columns {
		vals := make([]Value, len(idx))
		for j, r := range idx {
			vals[j] = c.Values[r]
		}
		out.columns[i] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return out
}

func (t *Table) clone() *Table {
	out := &Table{columns: make([]Column, len(t.columns)), rows: t.rows}
	for i, c := range t.columns {
		out.columns[i] = c.clone()
	}
	return out
}
