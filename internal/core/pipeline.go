package core

import (
	"fmt"

	"github.com/JonMunkholm/sweeper/internal/table"
)

// Warnings emitted when a later step has nothing to work with.
const (
	WarnNoNumericColumns  = "No numeric columns found for correlation heatmap."
	WarnNotEnoughForChart = "Not enough numeric columns for visualization."
)

// FileOptions carries every user choice for one file. The zero value of
// everything but FileID means "leave the data alone".
type FileOptions struct {
	FileID           string
	RemoveDuplicates bool
	FillMissing      bool
	// Columns selects and orders the kept columns. Nil keeps all of them;
	// a non-nil empty slice keeps none.
	Columns *[]string
	// Renames maps a kept column to its new name. Missing or blank entries
	// keep the current name.
	Renames   map[string]string
	ShowChart bool
	Format    table.Format
}

// DefaultOptions returns the options of a file nobody has touched yet.
func DefaultOptions(fileID string) FileOptions {
	return FileOptions{FileID: fileID, Format: table.FormatCSV}
}

// Clean returns the cleaning subset of the options.
func (o FileOptions) Clean() table.CleanOptions {
	return table.CleanOptions{RemoveDuplicates: o.RemoveDuplicates, FillMissing: o.FillMissing}
}

// FileResult is the outcome of running the pipeline over one file.
//
// When Err is set only File and Options are meaningful.
type FileResult struct {
	File    UploadedFile
	Options FileOptions

	// Source is the table as parsed. Summary describes it.
	Source  *table.Table
	Summary table.Summary

	// Table is the table after cleaning, projection and renaming.
	Table *table.Table

	Correlation    table.CorrMatrix
	HasCorrelation bool

	Series    []table.Series
	HasSeries bool

	Warnings []string
	Err      error
}

// OK reports whether the pipeline finished.
func (r *FileResult) OK() bool { return r.Err == nil }

// Export serializes the final table in the chosen format.
func (r *FileResult) Export() (table.ExportFile, error) {
	if r.Err != nil {
		return table.ExportFile{}, r.Err
	}
	format := r.Options.Format
	if format == "" {
		format = table.FormatCSV
	}
	data, err := table.Export(r.Table, format)
	if err != nil {
		return table.ExportFile{}, fmt.Errorf("%s: %w", r.File.Name, err)
	}
	return table.ExportFile{
		FileName:    table.OutputName(r.File.Name, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Process runs the pipeline over one file. It never panics on bad input;
// failures are reported through FileResult.Err wrapped with the file name.
func Process(file UploadedFile, opts FileOptions) *FileResult {
	res := &FileResult{File: file, Options: opts}

	src, err := table.Parse(file.Data, file.Extension())
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", file.Name, err)
		return res
	}
	res.Source = src
	res.Summary = table.Summarize(src)

	t := table.Clean(src, opts.Clean())

	if opts.Columns != nil {
		t, err = table.Project(t, *opts.Columns)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", file.Name, err)
			return res
		}
	}

	t, err = table.Rename(t, table.RenameMap(t.Names(), opts.Renames))
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", file.Name, err)
		return res
	}
	res.Table = t

	res.Correlation, res.HasCorrelation = table.Correlate(t)
	if !res.HasCorrelation {
		res.Warnings = append(res.Warnings, WarnNoNumericColumns)
	}

	if opts.ShowChart {
		res.Series, res.HasSeries = table.NumericSeries(t)
		if !res.HasSeries {
			res.Warnings = append(res.Warnings, WarnNotEnoughForChart)
		}
	}
	return res
}

// ProcessBatch runs Process for every file. Options are looked up by file
// ID; files without an entry use DefaultOptions. A failing file never
// affects the others.
func ProcessBatch(files []UploadedFile, optsByID map[string]FileOptions) []*FileResult {
	results := make([]*FileResult, len(files))
	for i, f := range files {
		opts, ok := optsByID[f.ID]
		if !ok {
			opts = DefaultOptions(f.ID)
		}
		results[i] = Process(f, opts)
	}
	return results
}
