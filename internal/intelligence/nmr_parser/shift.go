package nmr_parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// parseLeadingFloat reads the longest numeric prefix of s. It returns NaN
// when s does not start with a number.
func parseLeadingFloat(s string) float64 {
	m := leadingNumber.FindString(s)
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// DecodeShift turns "7.26" or "2.30-2.45" into a center and half-width.
// Range endpoints may come in either order; an en-dash counts as a hyphen.
// Unparsable text yields a NaN center.
func DecodeShift(token string) (center, halfWidth float64) {
	s := strings.ReplaceAll(stripSpace(token), "–", "-")
	if s == "" {
		return math.NaN(), 0
	}

	// a hyphen at position 0 is a sign, not a range separator
	if sep := strings.Index(s[1:], "-"); sep >= 0 {
		a := parseLeadingFloat(s[:sep+1])
		b := parseLeadingFloat(s[sep+2:])
		if math.IsNaN(a) || math.IsNaN(b) {
			return math.NaN(), 0
		}
		return (a + b) / 2, math.Abs(a-b) / 2
	}

	return parseLeadingFloat(s), 0
}

//Personal.AI order the ending
