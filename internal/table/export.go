package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an export target.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// ExportFile is a serialized table ready for download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SheetName is the single sheet written by Excel exports.
const SheetName = "Sheet1"

// ParseFormat accepts "csv", "excel" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return ".xlsx"
	}
	return ".csv"
}

// ContentType returns the MIME type of an export in format f.
func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// OutputName swaps the extension of name for the one of f.
func OutputName(name string, f Format) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + f.Extension()
}

// Export serializes t in format f.
func Export(t *Table, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return WriteCSV(t)
	case FormatExcel:
		return WriteXLSX(t)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// WriteCSV writes a header row and one line per row, "\n" terminated,
// without an index column. Missing cells are empty.
func WriteCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.Records()); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes t to a single-sheet workbook with a bold header. Numeric
// cells are stored as numbers and missing cells are left blank. Infinite
// values have no spreadsheet form and keep their text.
func WriteXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(t.columns))
	for i, c := range t.columns {
		header[i] = excelize.Cell{StyleID: bold, Value: c.Name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for r := 0; r < t.rows; r++ {
		row := make([]interface{}, len(t.columns))
		for i, c := range t.columns {
			v := c.Values[r]
			switch {
			case v.Missing:
				row[i] = nil
			case c.IsNumeric() && !math.IsInf(v.Number, 0):
				row[i] = v.Number
			default:
				row[i] = v.Text
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
