package table

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// PreviewRows is the number of leading rows shown in a summary.
const PreviewRows = 5

// NumericStats describes one numeric column. Undefined values are NaN.
type NumericStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// TextStats describes one text column.
type TextStats struct {
	Column string
	Count  int
	Unique int
	Top    string
	Freq   int
}

// Summary is a preview of the leading rows plus descriptive statistics.
// Numeric is set when the table has numeric columns; otherwise Text
// describes the text columns.
type Summary struct {
	Columns []string
	Preview [][]string
	Numeric []NumericStats
	Text    []TextStats
}

// Summarize builds the preview and statistics for t.
func Summarize(t *Table) Summary {
	s := Summary{Columns: t.Names(), Preview: t.Head(PreviewRows)}
	numeric := t.NumericColumns()
	if len(numeric) > 0 {
		for _, c := range numeric {
			s.Numeric = append(s.Numeric, describeNumeric(c))
		}
		return s
	}
	for _, c := range t.columns {
		s.Text = append(s.Text, describeText(c))
	}
	return s
}

func describeNumeric(c Column) NumericStats {
	vals := c.Present()
	st := NumericStats{Column: c.Name, Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		st.Mean, st.Std, st.Min, st.Q25, st.Q50, st.Q75, st.Max = nan, nan, nan, nan, nan, nan, nan
		return st
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	st.Mean = mean(vals)
	st.Std = sampleStd(vals, st.Mean)
	st.Min = sorted[0]
	st.Q25 = quantile(sorted, 0.25)
	st.Q50 = quantile(sorted, 0.5)
	st.Q75 = quantile(sorted, 0.75)
	st.Max = sorted[len(sorted)-1]
	return st
}

// describeText counts distinct present values; the most frequent value
// that appears first wins a tie.
func describeText(c Column) TextStats {
	st := TextStats{Column: c.Name}
	counts := make(map[string]int)
	var order []string
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		st.Count++
		if counts[v.Text] == 0 {
			order = append(order, v.Text)
		}
		counts[v.Text]++
	}
	st.Unique = len(order)
	for _, k := range order {
		if counts[k] > st.Freq {
			st.Top, st.Freq = k, counts[k]
		}
	}
	return st
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// CorrMatrix is a square Pearson correlation matrix over numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// Correlate returns the pairwise-complete Pearson matrix of the numeric
// columns. ok is false when there is nothing to correlate: no numeric
// columns or no rows. Cells with fewer than two shared observations or a
// constant side are NaN.
func Correlate(t *Table) (m CorrMatrix, ok bool) {
	cols := t.NumericColumns()
	if len(cols) == 0 || t.rows == 0 {
		return CorrMatrix{}, false
	}
	m.Columns = make([]string, len(cols))
	m.Values = make([][]float64, len(cols))
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(cols[i].Values, cols[j].Values)
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, true
}

func pearson(a, b []Value) float64 {
	var xs, ys []float64
	for i := range a {
		if a[i].Missing || b[i].Missing {
			continue
		}
		xs = append(xs, a[i].Number)
		ys = append(ys, b[i].Number)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}

// Series is one numeric column laid out for charting. Missing cells are NaN.
type Series struct {
	Name   string
	Values []float64
}

// NumericSeries returns every numeric column as a series. ok is false when
// fewer than two numeric columns exist.
func NumericSeries(t *Table) (series []Series, ok bool) {
	cols := t.NumericColumns()
	if len(cols) < 2 {
		return nil, false
	}
	series = make([]Series, len(cols))
	for i, c := range cols {
		vals := make([]float64, len(c.Values))
		for r, v := range c.Values {
			if v.Missing {
				vals[r] = math.NaN()
			} else {
				vals[r] = v.Number
			}
		}
		series[i] = Series{Name: c.Name, Values: vals}
	}
	return series, true
}

// FormatStat renders a describe() cell: integers in full, other values to
// four decimals, very large or very small magnitudes in exponent form.
func FormatStat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'f', -1, 64)
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case math.Abs(v) >= 1e15 || math.Abs(v) < 1e-4:
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}
