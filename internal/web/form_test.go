package web

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/table"
)

func TestParseFileOptions(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  core.FileOptions
	}{
		{
			name:  "untouched file keeps defaults",
			query: "f1.dedupe=on&f1.cols=a",
			want:  core.DefaultOptions("f1"),
		},
		{
			name:  "touched with nothing selected",
			query: "f1.touched=1",
			want:  core.FileOptions{FileID: "f1", Columns: &[]string{}, Format: table.FormatCSV},
		},
		{
			name:  "everything set",
			query: "f1.touched=1&f1.dedupe=on&f1.fill=on&f1.chart=on&f1.cols=b&f1.cols=a&f1.rename.a=alpha&f1.format=excel",
			want: core.FileOptions{
				FileID:           "f1",
				RemoveDuplicates: true,
				FillMissing:      true,
				ShowChart:        true,
				Columns:          &[]string{"b", "a"},
				Renames:          map[string]string{"a": "alpha"},
				Format:           table.FormatExcel,
			},
		},
		{
			name:  "other files ignored",
			query: "f1.touched=1&f2.dedupe=on&f2.cols=a",
			want:  core.FileOptions{FileID: "f1", Columns: &[]string{}, Format: table.FormatCSV},
		},
		{
			name:  "column names with dots",
			query: "f1.touched=1&f1.cols=a.b&f1.rename.a.b=ab",
			want: core.FileOptions{
				FileID:  "f1",
				Columns: &[]string{"a.b"},
				Renames: map[string]string{"a.b": "ab"},
				Format:  table.FormatCSV,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got, err := parseFileOptions(q, "f1")
			if err != nil {
				t.Fatalf("parseFileOptions() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFileOptions_BadFormat(t *testing.T) {
	q := url.Values{"f1.touched": {"1"}, "f1.format": {"pdf"}}
	if _, err := parseFileOptions(q, "f1"); !errors.Is(err, table.ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestEncodeFileOptions(t *testing.T) {
	opts := core.FileOptions{
		FileID:           "f1",
		RemoveDuplicates: true,
		ShowChart:        true,
		Columns:          &[]string{"b"},
		Renames:          map[string]string{"b": "beta", "c": "  "},
		Format:           table.FormatExcel,
	}
	got, err := parseFileOptions(encodeFileOptions(opts, []string{"a", "b"}), "f1")
	if err != nil {
		t.Fatal(err)
	}
	opts.Renames = map[string]string{"b": "beta"}
	if !reflect.DeepEqual(got, opts) {
		t.Errorf("round trip = %+v, want %+v", got, opts)
	}

	all, err := parseFileOptions(encodeFileOptions(core.DefaultOptions("f1"), []string{"a", "b"}), "f1")
	if err != nil {
		t.Fatal(err)
	}
	if all.Columns == nil || !reflect.DeepEqual(*all.Columns, []string{"a", "b"}) {
		t.Errorf("default selection encoded as %v, want every column", all.Columns)
	}
}
