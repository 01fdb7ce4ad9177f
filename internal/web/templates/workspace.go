package templates

import (
	"context"
	"io"
	"net/url"
	"slices"

	"github.com/JonMunkholm/sweeper/internal/chart"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/table"
	"github.com/a-h/templ"
)

// Per-file form fields. Each is namespaced by file ID, see FieldName.
const (
	FieldDedupe  = "dedupe"
	FieldFill    = "fill"
	FieldColumns = "cols"
	FieldRename  = "rename."
	FieldChart   = "chart"
	FieldFormat  = "format"
	// FieldTouched marks a file whose options were submitted at least
	// once, so an empty column selection means "none" instead of "all".
	FieldTouched = "touched"
)

// optionsFormID ties inputs spread over the file sections to one form.
const optionsFormID = "options"

// FieldName returns the query key of field for one file.
func FieldName(fileID, field string) string {
	return fileID + "." + field
}

// WorkspaceView is everything the workspace page shows.
type WorkspaceView struct {
	ID       string
	MaxFiles int
	Files    []FileView
}

// FileView is one file section.
type FileView struct {
	Result *core.FileResult
	// Query holds this file's options encoded for chart links.
	Query url.Values
	// Error is set when the pipeline failed for this file.
	Error *core.UserMessage
}

func fileURL(wsID, fileID, suffix string) string {
	return "/w/" + url.PathEscape(wsID) + "/files/" + url.PathEscape(fileID) + suffix
}

// WorkspacePage renders the page for one workspace.
func WorkspacePage(v WorkspaceView) templ.Component {
	return Layout("Data Sweeper", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		wsURL := "/w/" + url.PathEscape(v.ID)

		p.raw(`<section class="card toolbar">`)
		p.rawf(`<form id="%s" method="get" action="%s"></form>`, optionsFormID, attr(wsURL))
		p.rawf(`<button type="submit" form="%s">Apply</button>`, optionsFormID)
		if len(v.Files) < v.MaxFiles {
			p.render(ctx, uploadForm(wsURL+"/files", "Add files"))
		}
		p.raw(`</section>`)

		if len(v.Files) == 0 {
			p.raw(`<p class="hint">This workspace is empty. Add a file to get started.</p>`)
		}
		for _, f := range v.Files {
			p.render(ctx, fileSection(v.ID, f))
		}
		return p.err
	}))
}

func fileSection(wsID string, f FileView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		res := f.Result
		file := res.File

		p.rawf(`<section class="card file" id="file-%s">`, attr(file.ID))
		p.raw(`<header class="file-header"><h2>`)
		p.text(file.Name)
		p.raw(`</h2><span class="meta">`)
		p.text(formatKB(file.SizeKB()))
		p.raw(`</span>`)
		p.rawf(`<form method="post" action="%s"><button type="submit" class="danger">Remove</button></form>`,
			attr(fileURL(wsID, file.ID, "/delete")))
		p.raw(`</header>`)

		if f.Error != nil {
			p.render(ctx, ErrorAlert(f.Error.Message, f.Error.Action, f.Error.Code))
		}
		if res.Source != nil {
			p.render(ctx, previewTable(res.Summary))
			p.render(ctx, statsTable(res.Summary))
			p.render(ctx, optionsFields(res))
		}
		if res.Table != nil {
			p.render(ctx, correlationBlock(res))
			p.render(ctx, chartBlock(wsID, f))
			p.render(ctx, exportBlock(wsID, res))
		}
		p.raw(`</section>`)
		return p.err
	})
}

func previewTable(s table.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<h3>Preview</h3><div class="scroll"><table class="grid"><thead><tr>`)
		for _, name := range s.Columns {
			p.raw(`<th>`)
			p.text(name)
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		for _, row := range s.Preview {
			p.raw(`<tr>`)
			for _, cell := range row {
				p.raw(`<td>`)
				p.text(cell)
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table></div>`)
		return p.err
	})
}

func statsTable(s table.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<h3>Summary</h3><div class="scroll"><table class="grid stats"><thead><tr><th></th>`)
		if len(s.Numeric) > 0 {
			for _, st := range s.Numeric {
				p.raw(`<th>`)
				p.text(st.Column)
				p.raw(`</th>`)
			}
			p.raw(`</tr></thead><tbody>`)
			rows := []struct {
				label string
				get   func(table.NumericStats) float64
			}{
				{"count", func(st table.NumericStats) float64 { return float64(st.Count) }},
				{"mean", func(st table.NumericStats) float64 { return st.Mean }},
				{"std", func(st table.NumericStats) float64 { return st.Std }},
				{"min", func(st table.NumericStats) float64 { return st.Min }},
				{"25%", func(st table.NumericStats) float64 { return st.Q25 }},
				{"50%", func(st table.NumericStats) float64 { return st.Q50 }},
				{"75%", func(st table.NumericStats) float64 { return st.Q75 }},
				{"max", func(st table.NumericStats) float64 { return st.Max }},
			}
			for _, row := range rows {
				p.rawf(`<tr><th>%s</th>`, attr(row.label))
				for _, st := range s.Numeric {
					p.raw(`<td>`)
					p.text(table.FormatStat(row.get(st)))
					p.raw(`</td>`)
				}
				p.raw(`</tr>`)
			}
		} else {
			for _, st := range s.Text {
				p.raw(`<th>`)
				p.text(st.Column)
				p.raw(`</th>`)
			}
			p.raw(`</tr></thead><tbody>`)
			rows := []struct {
				label string
				get   func(table.TextStats) string
			}{
				{"count", func(st table.TextStats) string { return table.FormatStat(float64(st.Count)) }},
				{"unique", func(st table.TextStats) string { return table.FormatStat(float64(st.Unique)) }},
				{"top", func(st table.TextStats) string { return st.Top }},
				{"freq", func(st table.TextStats) string { return table.FormatStat(float64(st.Freq)) }},
			}
			for _, row := range rows {
				p.rawf(`<tr><th>%s</th>`, attr(row.label))
				for _, st := range s.Text {
					p.raw(`<td>`)
					p.text(row.get(st))
					p.raw(`</td>`)
				}
				p.raw(`</tr>`)
			}
		}
		p.raw(`</tbody></table></div>`)
		return p.err
	})
}

func checkbox(name, value, label string, checked bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.rawf(`<label class="check"><input type="checkbox" form="%s" name="%s" value="%s"`,
			optionsFormID, attr(name), attr(value))
		if checked {
			p.raw(` checked`)
		}
		p.raw(`> `)
		p.text(label)
		p.raw(`</label>`)
		return p.err
	})
}

func optionsFields(res *core.FileResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		id := res.File.ID
		opts := res.Options

		p.rawf(`<input type="hidden" form="%s" name="%s" value="1">`, optionsFormID, attr(FieldName(id, FieldTouched)))

		p.raw(`<h3>Clean</h3><div class="options">`)
		p.render(ctx, checkbox(FieldName(id, FieldDedupe), "on", "Remove duplicates", opts.RemoveDuplicates))
		p.render(ctx, checkbox(FieldName(id, FieldFill), "on", "Fill missing values", opts.FillMissing))
		p.raw(`</div>`)

		p.raw(`<h3>Columns</h3><div class="options columns">`)
		for _, name := range res.Summary.Columns {
			keep := opts.Columns == nil || slices.Contains(*opts.Columns, name)
			p.render(ctx, checkbox(FieldName(id, FieldColumns), name, name, keep))
		}
		p.raw(`</div>`)

		p.raw(`<h3>Rename</h3><div class="options renames">`)
		for _, name := range res.Summary.Columns {
			p.raw(`<label class="rename"><span>`)
			p.text(name)
			p.rawf(`</span><input type="text" form="%s" name="%s" value="%s" placeholder="%s"></label>`,
				optionsFormID,
				attr(FieldName(id, FieldRename+name)),
				attr(opts.Renames[name]),
				attr(name))
		}
		p.raw(`</div>`)

		p.raw(`<div class="options">`)
		p.render(ctx, checkbox(FieldName(id, FieldChart), "on", "Show chart", opts.ShowChart))
		p.raw(`</div>`)
		return p.err
	})
}

func correlationBlock(res *core.FileResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<h3>Correlation</h3>`)
		if !res.HasCorrelation {
			p.render(ctx, Warning(core.WarnNoNumericColumns))
			return p.err
		}
		m := res.Correlation
		p.raw(`<div class="scroll"><table class="heatmap"><thead><tr><th></th>`)
		for _, name := range m.Columns {
			p.raw(`<th>`)
			p.text(name)
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		for i, name := range m.Columns {
			p.raw(`<tr><th>`)
			p.text(name)
			p.raw(`</th>`)
			for _, v := range m.Values[i] {
				bg := chart.HeatColor(v)
				p.rawf(`<td style="background:%s;color:%s">`, chart.Hex(bg), chart.TextColor(bg))
				p.text(chart.FormatCorrelation(v))
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table></div>`)
		return p.err
	})
}

func chartBlock(wsID string, f FileView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		res := f.Result
		if !res.Options.ShowChart {
			return nil
		}
		p.raw(`<h3>Chart</h3>`)
		if !res.HasSeries {
			p.render(ctx, Warning(core.WarnNotEnoughForChart))
			return p.err
		}
		src := fileURL(wsID, res.File.ID, "/chart.png")
		if q := f.Query.Encode(); q != "" {
			src += "?" + q
		}
		p.rawf(`<img class="chart" src="%s" alt="Numeric columns by row">`, attr(src))
		return p.err
	})
}

func exportBlock(wsID string, res *core.FileResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		id := res.File.ID
		format := res.Options.Format
		if format == "" {
			format = table.FormatCSV
		}

		p.raw(`<h3>Export</h3><div class="options export">`)
		for _, choice := range []struct {
			f     table.Format
			label string
		}{
			{table.FormatCSV, "CSV"},
			{table.FormatExcel, "Excel"},
		} {
			p.rawf(`<label class="check"><input type="radio" form="%s" name="%s" value="%s"`,
				optionsFormID, attr(FieldName(id, FieldFormat)), attr(string(choice.f)))
			if choice.f == format {
				p.raw(` checked`)
			}
			p.raw(`> `)
			p.text(choice.label)
			p.raw(`</label>`)
		}
		p.rawf(`<button type="submit" form="%s" formaction="%s">Download</button>`,
			optionsFormID, attr(fileURL(wsID, id, "/export")))
		p.raw(`</div>`)
		return p.err
	})
}
