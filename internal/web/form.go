package web

import (
	"net/url"
	"slices"
	"strings"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/table"
	"github.com/JonMunkholm/sweeper/internal/web/templates"
)

// parseFileOptions reads one file's options from the query string. A file
// whose touched marker is absent gets core.DefaultOptions, which keeps
// every column.
func parseFileOptions(q url.Values, fileID string) (core.FileOptions, error) {
	opts := core.DefaultOptions(fileID)
	field := func(name string) string { return templates.FieldName(fileID, name) }

	if q.Get(field(templates.FieldTouched)) == "" {
		return opts, nil
	}

	opts.RemoveDuplicates = isChecked(q, field(templates.FieldDedupe))
	opts.FillMissing = isChecked(q, field(templates.FieldFill))
	opts.ShowChart = isChecked(q, field(templates.FieldChart))

	cols := slices.Clone(q[field(templates.FieldColumns)])
	if cols == nil {
		cols = []string{}
	}
	opts.Columns = &cols

	prefix := field(templates.FieldRename)
	for key, vals := range q {
		name, ok := strings.CutPrefix(key, prefix)
		if !ok || len(vals) == 0 {
			continue
		}
		if opts.Renames == nil {
			opts.Renames = make(map[string]string)
		}
		opts.Renames[name] = vals[0]
	}

	if raw := q.Get(field(templates.FieldFormat)); raw != "" {
		format, err := table.ParseFormat(raw)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	return opts, nil
}

// encodeFileOptions is the inverse of parseFileOptions. A nil column
// selection is written out as every name in allColumns.
func encodeFileOptions(opts core.FileOptions, allColumns []string) url.Values {
	q := url.Values{}
	field := func(name string) string { return templates.FieldName(opts.FileID, name) }

	q.Set(field(templates.FieldTouched), "1")
	if opts.RemoveDuplicates {
		q.Set(field(templates.FieldDedupe), "on")
	}
	if opts.FillMissing {
		q.Set(field(templates.FieldFill), "on")
	}
	if opts.ShowChart {
		q.Set(field(templates.FieldChart), "on")
	}
	cols := allColumns
	if opts.Columns != nil {
		cols = *opts.Columns
	}
	for _, c := range cols {
		q.Add(field(templates.FieldColumns), c)
	}
	for from, to := range opts.Renames {
		if strings.TrimSpace(to) != "" {
			q.Set(field(templates.FieldRename+from), to)
		}
	}
	if opts.Format != "" && opts.Format != table.FormatCSV {
		q.Set(field(templates.FieldFormat), string(opts.Format))
	}
	return q
}

func isChecked(q url.Values, key string) bool {
	switch strings.ToLower(q.Get(key)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
