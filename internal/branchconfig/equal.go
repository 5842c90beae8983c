package branchconfig

import (
	"regexp"
	"strconv"
	"strings"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// looseEqual treats identical strings, and numeric strings of equal value ("1", "01", "1.0"), as equal.
func looseEqual(a, b string) bool {
	if a == b {
		return true
	}

	fa, okA := parseNumeric(a)
	fb, okB := parseNumeric(b)

	return okA && okB && fa == fb
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}
