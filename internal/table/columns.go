package table

import (
	"fmt"
	"strings"
)

// Project keeps the named columns in the given order.
func Project(t *Table, names []string) (*Table, error) {
	out := &Table{columns: make([]Column, 0, len(names)), rows: t.rows}
	picked := make(map[string]bool, len(names))
	for _, name := range names {
		if picked[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		i := t.index(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		picked[name] = true
		out.columns = append(out.columns, t.columns[i].clone())
	}
	return out, nil
}

// Rename applies m, which must hold exactly one entry per column. Identity
// entries are allowed; two columns landing on the same name are not.
func Rename(t *Table, m map[string]string) (*Table, error) {
	for from := range m {
		if t.index(from) < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, from)
		}
	}
	out := t.clone()
	taken := make(map[string]string, len(out.columns))
	for i := range out.columns {
		from := out.columns[i].Name
		to, ok := m[from]
		if !ok {
			return nil, fmt.Errorf("%w: no entry for %q", ErrIncompleteRename, from)
		}
		if prev, clash := taken[to]; clash {
			return nil, fmt.Errorf("%w: %q and %q both become %q", ErrDuplicateTargetName, prev, from, to)
		}
		taken[to] = from
		out.columns[i].Name = to
	}
	return out, nil
}

// RenameMap builds a complete rename map for names. Overrides that are
// absent or blank after trimming keep the column's current name.
func RenameMap(names []string, overrides map[string]string) map[string]string {
	m := make(map[string]string, len(names))
	for _, name := range names {
		to := strings.TrimSpace(overrides[name])
		if to == "" {
			to = name
		}
		m[name] = to
	}
	return m
}
