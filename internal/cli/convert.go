package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/table"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	to        string
	dedupe    bool
	fill      bool
	columns   []string
	renames   []string
	outDir    string
	overwrite bool
}

func newConvertCmd() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert <files...>",
		Short: "Clean and convert files to CSV or Excel",
		Example: `  sweep convert sales.xlsx --to csv
  sweep convert 'data/*.csv' --dedupe --fill --columns region,units --rename units=qty --out clean/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := table.ParseFormat(f.to)
			if err != nil {
				return err
			}
			renames, err := parseRenames(f.renames)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(f.outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			opts := core.FileOptions{
				RemoveDuplicates: f.dedupe,
				FillMissing:      f.fill,
				Renames:          renames,
				Format:           format,
			}
			if cmd.Flags().Changed("columns") {
				cols := f.columns
				opts.Columns = &cols
			}

			return runConvert(cmd, expandArgs(args), opts, f)
		},
	}

	cmd.Flags().StringVar(&f.to, "to", "csv", "output format: csv or excel")
	cmd.Flags().BoolVar(&f.dedupe, "dedupe", false, "remove duplicate rows")
	cmd.Flags().BoolVar(&f.fill, "fill", false, "fill missing numeric values with the column mean")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "columns to keep, in order (default all)")
	cmd.Flags().StringArrayVar(&f.renames, "rename", nil, "rename a kept column, old=new (repeatable)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "replace existing output files")
	return cmd
}

// runConvert processes every path with the same options. A failing file is
// reported and skipped; the command fails at the end if any file did.
func runConvert(cmd *cobra.Command, paths []string, opts core.FileOptions, f convertFlags) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	failed := 0

	var files []core.UploadedFile
	optsByID := make(map[string]core.FileOptions, len(paths))
	for _, path := range paths {
		file, err := loadFile(path)
		if err != nil {
			reportFailure(errOut, path, err)
			failed++
			continue
		}
		o := opts
		o.FileID = file.ID
		optsByID[file.ID] = o
		files = append(files, file)
	}

	written := map[string]bool{}
	for _, res := range core.ProcessBatch(files, optsByID) {
		if err := writeExport(cmd, res, f, written); err != nil {
			slog.Debug("convert failed", "file", res.File.ID, "error", err)
			reportFailure(errOut, res.File.ID, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	fmt.Fprintf(out, "Converted %d file(s)\n", len(paths))
	return nil
}

func writeExport(cmd *cobra.Command, res *core.FileResult, f convertFlags, written map[string]bool) error {
	if !res.OK() {
		return res.Err
	}
	export, err := res.Export()
	if err != nil {
		return err
	}
	target := outputPath(f.outDir, export.FileName, res.File.ID, f.overwrite, written)
	if err := os.WriteFile(target, export.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s → %s (%d rows, %d columns)\n",
		res.File.ID, target, res.Table.Rows(), res.Table.Width())
	return nil
}

func reportFailure(w io.Writer, path string, err error) {
	fmt.Fprintf(w, "✗ %s: %v\n", path, err)
	if core.IsUserFacing(err) {
		fmt.Fprintf(w, "  %s\n", core.FormatUserError(err))
	}
}
