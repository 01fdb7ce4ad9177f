package core

import (
	"math"

	"github.com/JonMunkholm/sweeper/internal/table"
)

// Report is the serializable view of one processed file. Statistics that
// are undefined (NaN) or infinite are nil so every encoder can carry them.
type Report struct {
	ID            string             `json:"id" yaml:"id"`
	Name          string             `json:"name" yaml:"name"`
	SizeKB        float64            `json:"size_kb" yaml:"size_kb"`
	SourceRows    int                `json:"source_rows" yaml:"source_rows"`
	SourceColumns []ColumnReport     `json:"source_columns" yaml:"source_columns"`
	Preview       [][]string         `json:"preview" yaml:"preview"`
	Rows          int                `json:"rows" yaml:"rows"`
	Columns       []ColumnReport     `json:"columns" yaml:"columns"`
	Numeric       []NumericReport    `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Text          []TextReport       `json:"text,omitempty" yaml:"text,omitempty"`
	Correlation   *CorrelationReport `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	Warnings      []string           `json:"warnings" yaml:"warnings"`
}

// ColumnReport describes one column.
type ColumnReport struct {
	Name    string     `json:"name" yaml:"name"`
	Kind    table.Kind `json:"kind" yaml:"kind"`
	Missing int        `json:"missing" yaml:"missing"`
}

// NumericReport is one describe() column of a table with numeric columns.
type NumericReport struct {
	Column string   `json:"column" yaml:"column"`
	Count  int      `json:"count" yaml:"count"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Min    *float64 `json:"min" yaml:"min"`
	Q25    *float64 `json:"25%" yaml:"25%"`
	Q50    *float64 `json:"50%" yaml:"50%"`
	Q75    *float64 `json:"75%" yaml:"75%"`
	Max    *float64 `json:"max" yaml:"max"`
}

// TextReport is one describe() column of an all-text table.
type TextReport struct {
	Column string `json:"column" yaml:"column"`
	Count  int    `json:"count" yaml:"count"`
	Unique int    `json:"unique" yaml:"unique"`
	Top    string `json:"top" yaml:"top"`
	Freq   int    `json:"freq" yaml:"freq"`
}

// CorrelationReport is a square matrix over Columns.
type CorrelationReport struct {
	Columns []string     `json:"columns" yaml:"columns"`
	Values  [][]*float64 `json:"values" yaml:"values"`
}

// NewReport builds the report of a finished pipeline run. res must be OK.
func NewReport(res *FileResult) Report {
	out := Report{
		ID:            res.File.ID,
		Name:          res.File.Name,
		SizeKB:        math.Round(res.File.SizeKB()*100) / 100,
		SourceRows:    res.Source.Rows(),
		SourceColumns: columnReports(res.Source),
		Preview:       res.Summary.Preview,
		Rows:          res.Table.Rows(),
		Columns:       columnReports(res.Table),
		Warnings:      res.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}

	for _, st := range res.Summary.Numeric {
		out.Numeric = append(out.Numeric, NumericReport{
			Column: st.Column,
			Count:  st.Count,
			Mean:   finite(st.Mean),
			Std:    finite(st.Std),
			Min:    finite(st.Min),
			Q25:    finite(st.Q25),
			Q50:    finite(st.Q50),
			Q75:    finite(st.Q75),
			Max:    finite(st.Max),
		})
	}

	for _, st := range res.Summary.Text {
		out.Text = append(out.Text, TextReport(st))
	}

	if res.HasCorrelation {
		m := &CorrelationReport{Columns: res.Correlation.Columns}
		for _, row := range res.Correlation.Values {
			cells := make([]*float64, len(row))
			for j, v := range row {
				cells[j] = finite(v)
			}
			m.Values = append(m.Values, cells)
		}
		out.Correlation = m
	}
	return out
}

func columnReports(t *table.Table) []ColumnReport {
	cols := t.Columns()
	out := make([]ColumnReport, len(cols))
	for i, c := range cols {
		out[i] = ColumnReport{Name: c.Name, Kind: c.Kind, Missing: c.MissingCount()}
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
