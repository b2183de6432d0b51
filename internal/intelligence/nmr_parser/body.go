package nmr_parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// BroadMarker flags a broadened signal wherever it appears in a body.
const BroadMarker = "br"

var (
	// the group before the count keeps "7.1 hz" and "d2h" from reading as
	// integrals
	integralPattern = regexp.MustCompile(`(?:^|[^0-9.a-z])(\d+(?:\.\d+)?|\.\d+)\s*h\b`)
	couplingPattern = regexp.MustCompile(`j\s*=\s*((?:\d+(?:\.\d+)?\s*,\s*)*\d+(?:\.\d+)?)\s*hz`)
)

// Body is the decoded content of one parenthesized group.
type Body struct {
	Multiplicity nmr.Sequence
	Couplings    []float64
	Integral     float64
	Broadened    bool
}

// DecodeBody reads the broad flag, integral, multiplicity run and J list of
// a body such as "q, J = 7.1 Hz, 2H" or "br s, 1H". Matching is
// case-insensitive. Missing fields take their defaults: integral 1,
// multiplicity "s", no couplings.
func DecodeBody(token string) Body {
	s := strings.ToLower(strings.TrimSpace(token))

	b := Body{Integral: 1}
	if strings.Contains(s, BroadMarker) {
		b.Broadened = true
		s = strings.ReplaceAll(s, BroadMarker, "")
	}

	if m := integralPattern.FindStringSubmatch(s); m != nil {
		// a count too long for float64 keeps the default
		if v := parseLeadingFloat(m[1]); !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 {
			b.Integral = v
		}
	}

	run := findMultiplicityRun(maskIntegrals(s))
	if run == "" {
		run = string(nmr.Singlet)
	}
	b.Multiplicity = nmr.ParseSequence(run)

	if m := couplingPattern.FindStringSubmatch(s); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			if v, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
				b.Couplings = append(b.Couplings, v)
			}
		}
	}
	return b
}

// maskIntegrals blanks every integral field so its "h" is not read as a
// hextet symbol.
func maskIntegrals(s string) string {
	locs := integralPattern.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	buf := []byte(s)
	for _, loc := range locs {
		// loc[2] is the start of the count; the match ends after the "h"
		for i := loc[2]; i < loc[1]; i++ {
			buf[i] = ' '
		}
	}
	return string(buf)
}

// ---------------------------------------------------------------------------
// Multiplicity run scanning
// ---------------------------------------------------------------------------

func isLowerLetter(c byte) bool { return c >= 'a' && c <= 'z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordChar(c byte) bool {
	return isLowerLetter(c) || isDigit(c) || c == '_' || (c >= 'A' && c <= 'Z')
}

func isSpaceChar(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isMultiplicityChar(c byte) bool {
	return nmr.Symbol(c).Valid()
}

// acceptsRunEnd reports whether a run ending at i is followed by a comma,
// whitespace, the end of text, the coupling marker "j" or an integral field.
func acceptsRunEnd(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	c := s[i]
	if c == ',' || isSpaceChar(c) {
		return true
	}
	if c == 'j' {
		return i+1 >= len(s) || !isWordChar(s[i+1])
	}
	k := i
	for k < len(s) && isDigit(s[k]) {
		k++
	}
	if k > i && k < len(s) && s[k] == 'h' {
		return k+1 >= len(s) || !isWordChar(s[k+1])
	}
	return false
}

// findMultiplicityRun returns the first run of multiplicity letters that
// starts at a word boundary and is properly terminated. At each start the
// longest acceptable run wins.
func findMultiplicityRun(s string) string {
	for i := 0; i < len(s); i++ {
		if !isMultiplicityChar(s[i]) || (i > 0 && isLowerLetter(s[i-1])) {
			continue
		}
		end := i
		for end < len(s) && isMultiplicityChar(s[end]) {
			end++
		}
		for l := end; l > i; l-- {
			if acceptsRunEnd(s, l) {
				return s[i:l]
			}
		}
	}
	return ""
}

//Personal.AI order the ending
