package table

import (
	"reflect"
	"testing"
)

func TestDropDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "keeps first occurrence in order",
			input: "a,b\n1,x\n2,y\n1,x\n3,z\n2,y\n",
			want:  [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}},
		},
		{
			name:  "missing equals missing",
			input: "a,b\n1,\n1,NA\n2,\n",
			want:  [][]string{{"1", ""}, {"2", ""}},
		},
		{
			name:  "numeric compares by value",
			input: "a,b\n1,x\n1.0,x\n",
			want:  [][]string{{"1", "x"}},
		},
		{
			name:  "no duplicates",
			input: "a\n1\n2\n",
			want:  [][]string{{"1"}, {"2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DropDuplicates(mustParseCSV(t, tt.input))
			if got := out.Head(out.Rows()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rows = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDropDuplicates_FieldBoundaries(t *testing.T) {
	// "ab","c" and "a","bc" must stay distinct.
	out := DropDuplicates(mustParseCSV(t, "x,y\nab,c\na,bc\n"))
	if out.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", out.Rows())
	}
}

func TestFillMissingNumeric(t *testing.T) {
	in := mustParseCSV(t, "a,b,c,d\n1,x,,\n,y,,4\n3,,,\n")
	out := FillMissingNumeric(in)

	a, _ := out.Column("a")
	if got := a.Present(); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Errorf("a = %v, want [1 2 3]", got)
	}
	if got := out.Row(1)[0]; got != "2" {
		t.Errorf("filled text = %q, want %q", got, "2")
	}

	b, _ := out.Column("b")
	if got := b.MissingCount(); got != 1 {
		t.Errorf("text column b was filled: missing = %d, want 1", got)
	}

	c, _ := out.Column("c")
	if got := c.MissingCount(); got != 3 {
		t.Errorf("all-missing column c was filled: missing = %d, want 3", got)
	}

	d, _ := out.Column("d")
	if got := d.Present(); !reflect.DeepEqual(got, []float64{4, 4, 4}) {
		t.Errorf("d = %v, want [4 4 4]", got)
	}

	orig, _ := in.Column("a")
	if orig.MissingCount() != 1 {
		t.Errorf("input table was mutated")
	}
}

func TestFillMissingNumeric_KeepsOriginalText(t *testing.T) {
	out := FillMissingNumeric(mustParseCSV(t, "a\n1.50\n\n2.50\n"))
	if got := out.Row(0)[0]; got != "1.50" {
		t.Errorf("untouched cell = %q, want %q", got, "1.50")
	}
	if got := out.Row(1)[0]; got != "2" {
		t.Errorf("filled cell = %q, want %q", got, "2")
	}
}

func TestClean_Idempotent(t *testing.T) {
	input := "a,b\n1,x\n,x\n3,x\n1,x\n2,x\n"
	opts := []CleanOptions{
		{},
		{RemoveDuplicates: true},
		{FillMissing: true},
		{RemoveDuplicates: true, FillMissing: true},
	}

	for _, o := range opts {
		once := Clean(mustParseCSV(t, input), o)
		twice := Clean(once, o)
		if !reflect.DeepEqual(once.Records(), twice.Records()) {
			t.Errorf("Clean(%+v) not idempotent:\nonce  %q\ntwice %q", o, once.Records(), twice.Records())
		}
	}
}

func TestClean_FillBeforeDedupe(t *testing.T) {
	// The blank is filled with mean(1,3,2)=2 which makes row 2 equal row 4.
	out := Clean(mustParseCSV(t, "a,b\n1,x\n,x\n3,x\n2,x\n"), CleanOptions{RemoveDuplicates: true, FillMissing: true})
	want := [][]string{{"1", "x"}, {"2", "x"}, {"3", "x"}}
	if got := out.Head(out.Rows()); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func TestClean_NoOptionsReturnsCopy(t *testing.T) {
	in := mustParseCSV(t, "a\n1\n1\n")
	out := Clean(in, CleanOptions{})
	if out == in {
		t.Fatal("Clean returned its input")
	}
	if out.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", out.Rows())
	}
}
