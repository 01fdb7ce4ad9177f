package table

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are the cell texts read as missing, matched after trimming
// surrounding whitespace. The empty string is missing as well.
var missingTokens = map[string]struct{}{
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isMissing(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	_, ok := missingTokens[s]
	return ok
}

// parseNumber reads raw as a float. NaN spellings that are not missing
// markers (NAN, Nan) stay text rather than becoming a present NaN.
func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// formatNumber renders f with the fewest digits that round-trip.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
