package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Supported reports whether ext names a format Parse understands.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case "csv", "xlsx":
		return true
	}
	return false
}

// Parse reads data according to ext ("csv" or "xlsx", any case).
func Parse(data []byte, ext string) (*Table, error) {
	switch strings.ToLower(ext) {
	case "csv":
		return ParseCSV(bytes.NewReader(data))
	case "xlsx":
		return ParseXLSX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// candidateDelimiters are tried in order; earlier entries win ties.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffLines is how many non-blank lines the delimiter sniffer looks at.
const sniffLines = 10

// ParseCSV reads delimited text. A UTF-8 byte order mark is dropped and
// invalid UTF-8 is replaced with U+FFFD before the delimiter is sniffed.
func ParseCSV(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	header = append([]string(nil), header...)

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrInvalidCSV, line, len(rec), len(header))
		}
		records = append(records, rec)
	}
	return New(header, records)
}

// sniffDelimiter picks the candidate that splits the leading lines into the
// same number of fields, preferring the widest split. Comma is the fallback.
func sniffDelimiter(data []byte) rune {
	sample := leadingLines(data, sniffLines)
	if len(sample) == 0 {
		return ','
	}
	best, bestWidth := ',', 1
	for _, d := range candidateDelimiters {
		cr := csv.NewReader(bytes.NewReader(sample))
		cr.Comma = d
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		recs, err := cr.ReadAll()
		if err != nil || len(recs) == 0 {
			continue
		}
		width := len(recs[0])
		consistent := true
		for _, rec := range recs[1:] {
			if len(rec) != width {
				consistent = false
				break
			}
		}
		if consistent && width > bestWidth {
			best, bestWidth = d, width
		}
	}
	return best
}

func leadingLines(data []byte, n int) []byte {
	var out []byte
	for len(data) > 0 && n > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i+1], data[i+1:]
		} else {
			data = nil
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out = append(out, line...)
		n--
	}
	return out
}

// ParseXLSX reads the first sheet of a workbook. Cells are read raw so
// numbers keep their stored precision; fully blank rows are skipped.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	var kept [][]string
	width := 0
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		kept = append(kept, row)
		if len(row) > width {
			width = len(row)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyFile
	}

	// Cells past the header get "Unnamed: <i>" columns.
	header := make([]string, width)
	copy(header, kept[0])
	return New(header, kept[1:])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
