package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/sweeper/internal/chart"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type describeFlags struct {
	corr     bool
	output   string
	chartDir string
}

func newDescribeCmd() *cobra.Command {
	var f describeFlags

	cmd := &cobra.Command{
		Use:   "describe <files...>",
		Short: "Print preview rows, summary statistics and correlations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch f.output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unsupported --output: %s (use text|json|yaml)", f.output)
			}
			if f.chartDir != "" {
				if err := os.MkdirAll(f.chartDir, 0o755); err != nil {
					return fmt.Errorf("create chart dir: %w", err)
				}
			}
			return runDescribe(cmd, expandArgs(args), f)
		},
	}

	cmd.Flags().BoolVar(&f.corr, "corr", false, "include the correlation matrix in text output")
	cmd.Flags().StringVar(&f.output, "output", "text", "output format: text, json or yaml")
	cmd.Flags().StringVar(&f.chartDir, "chart", "", "also write a PNG series chart per file into this directory")
	return cmd
}

func runDescribe(cmd *cobra.Command, paths []string, f describeFlags) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	failed := 0
	var reports []core.Report
	charts := map[string]bool{}

	for _, path := range paths {
		file, err := loadFile(path)
		if err != nil {
			reportFailure(errOut, path, err)
			failed++
			continue
		}
		opts := core.DefaultOptions(file.ID)
		opts.ShowChart = f.chartDir != ""

		res := core.Process(file, opts)
		if !res.OK() {
			reportFailure(errOut, path, res.Err)
			failed++
			continue
		}

		if f.chartDir != "" {
			if err := writeChart(f.chartDir, res, charts); err != nil {
				fmt.Fprintf(errOut, "⚠ %s: %v\n", path, err)
			}
		}

		if f.output == "text" {
			if err := printText(out, res, f.corr); err != nil {
				return err
			}
			continue
		}
		reports = append(reports, core.NewReport(res))
	}

	switch f.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func writeChart(dir string, res *core.FileResult, written map[string]bool) error {
	if !res.HasSeries {
		return fmt.Errorf("chart skipped: %s", core.WarnNotEnoughForChart)
	}
	name := strings.TrimSuffix(res.File.Name, filepath.Ext(res.File.Name)) + ".png"
	fh, err := os.Create(outputPath(dir, name, res.File.ID, true, written))
	if err != nil {
		return err
	}
	defer fh.Close()
	return chart.RenderSeries(fh, res.Series, chart.Options{Title: res.File.Name})
}

// printText writes the human-readable report for one file.
func printText(w io.Writer, res *core.FileResult, withCorr bool) error {
	s := res.Summary
	fmt.Fprintf(w, "== %s (%d rows × %d columns, %.2f KB)\n\n",
		res.File.Name, res.Source.Rows(), res.Source.Width(), res.File.SizeKB())

	fmt.Fprintln(w, "Preview")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(s.Columns, "\t"))
	for _, row := range s.Preview {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSummary")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if len(s.Numeric) > 0 {
		header := []string{""}
		for _, st := range s.Numeric {
			header = append(header, st.Column)
		}
		fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
		for _, row := range []struct {
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
		} {
			cells := []string{row.label}
			for _, st := range s.Numeric {
				cells = append(cells, table.FormatStat(row.get(st)))
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
		}
	} else {
		header := []string{""}
		for _, st := range s.Text {
			header = append(header, st.Column)
		}
		fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
		for _, row := range []struct {
			label string
			get   func(table.TextStats) string
		}{
			{"count", func(st table.TextStats) string { return fmt.Sprint(st.Count) }},
			{"unique", func(st table.TextStats) string { return fmt.Sprint(st.Unique) }},
			{"top", func(st table.TextStats) string { return st.Top }},
			{"freq", func(st table.TextStats) string { return fmt.Sprint(st.Freq) }},
		} {
			cells := []string{row.label}
			for _, st := range s.Text {
				cells = append(cells, row.get(st))
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if withCorr {
		fmt.Fprintln(w, "\nCorrelation")
		if !res.HasCorrelation {
			fmt.Fprintln(w, core.WarnNoNumericColumns)
		} else {
			tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
			m := res.Correlation
			fmt.Fprintln(tw, "\t"+strings.Join(m.Columns, "\t")+"\t")
			for i, name := range m.Columns {
				cells := []string{name}
				for _, v := range m.Values[i] {
					cell := chart.FormatCorrelation(v)
					if cell == "" {
						cell = "NaN"
					}
					cells = append(cells, cell)
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}
	fmt.Fprintln(w)
	return nil
}
