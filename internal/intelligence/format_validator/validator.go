// Package format_validator lints the surface syntax of a ¹H NMR report
// string against the usual journal style. It works on the raw text alone and
// shares no state with the parser.
package format_validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue messages.
const (
	IssuePrefix          = "Prefix should start with “1H NMR”."
	IssueMissingDelta    = "Missing δ symbol before signal list."
	IssueInstrumentBlock = "Instrument block should be “(xxx MHz, SOLVENT)”."
	IssueNoEntries       = "No valid signal entries “shift ( ... )”."

	issueInvalidShift    = "Invalid shift “%s”."
	issueMissingIntegral = "Integral missing in “(%s)”."
	issueMissingHz       = "“Hz” missing after J in “(%s)”."
	issueMissingMult     = "Multiplicity missing in “(%s)”."
	issueCouplingCount   = "%d J values but only %d splitting symbols in “(%s)”."
)

var (
	prefixPattern     = regexp.MustCompile(`(?i)^[1¹]\s*H\s*NMR`)
	instrumentPattern = regexp.MustCompile(`(?i)\(\s*\d+(?:\.\d+)?\s*MHz\s*,\s*[^)]+\)`)
	entryPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?(?:\s*[–-]\s*\d+(?:\.\d+)?)?)\s*\(([^)]*)\)`)
	shiftPattern      = regexp.MustCompile(`^-?\d`)
	integralPattern   = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*H\b`)
	couplingMarker    = regexp.MustCompile(`(?i)\bj\s*=\s*`)
	hertzPattern      = regexp.MustCompile(`(?i)Hz`)
	couplingClause    = regexp.MustCompile(`(?i)\bj\s*=\s*([\d.,\s]*?)\s*hz`)
	multiplicityWord  = regexp.MustCompile(`(?i)\b(br|[sdthqpm]+)\b`)
)

// Option configures a Validator.
type Option func(*Validator)

// WithStrictCouplingCount also flags groups that list more J values than
// they have splitting symbols (d, t, q, p, h).
func WithStrictCouplingCount(on bool) Option {
	return func(v *Validator) { v.strictCouplingCount = on }
}

// Validator checks report text. The zero value is usable.
type Validator struct {
	strictCouplingCount bool
}

// New returns a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Strict reports whether the coupling-count rule is enabled.
func (v *Validator) Strict() bool { return v.strictCouplingCount }

// Validate uses a default Validator.
func Validate(text string) []string {
	return New().Validate(text)
}

// Validate returns the issues found in text in a stable order: report-level
// checks first, then each group left to right. An empty slice means the
// text passed every check.
func (v *Validator) Validate(text string) []string {
	raw := strings.TrimSpace(text)
	issues := make([]string, 0)

	if !prefixPattern.MatchString(raw) {
		issues = append(issues, IssuePrefix)
	}
	delta := strings.Index(raw, "δ")
	if delta < 0 {
		issues = append(issues, IssueMissingDelta)
	}
	if !instrumentPattern.MatchString(raw) {
		issues = append(issues, IssueInstrumentBlock)
	}

	region := raw
	if delta >= 0 {
		region = raw[delta+len("δ"):]
	}
	groups := entryPattern.FindAllStringSubmatch(region, -1)
	if len(groups) == 0 {
		issues = append(issues, IssueNoEntries)
	}
	for _, g := range groups {
		issues = append(issues, v.checkGroup(g[1], g[2])...)
	}
	return issues
}

func (v *Validator) checkGroup(shift, body string) []string {
	var issues []string
	if !shiftPattern.MatchString(strings.TrimSpace(shift)) {
		issues = append(issues, fmt.Sprintf(issueInvalidShift, shift))
	}
	if !integralPattern.MatchString(body) {
		issues = append(issues, fmt.Sprintf(issueMissingIntegral, body))
	}
	if couplingMarker.MatchString(body) && !hertzPattern.MatchString(body) {
		issues = append(issues, fmt.Sprintf(issueMissingHz, body))
	}
	run, found := multiplicityOf(body)
	if !found {
		issues = append(issues, fmt.Sprintf(issueMissingMult, body))
	}
	if v.strictCouplingCount && found {
		if n, splits := countCouplings(body), splittingSymbols(run); n > splits {
			issues = append(issues, fmt.Sprintf(issueCouplingCount, n, splits, body))
		}
	}
	return issues
}

// multiplicityOf finds the first standalone multiplicity word or "br" once
// integral and J fields are blanked out.
func multiplicityOf(body string) (string, bool) {
	masked := couplingClause.ReplaceAllString(body, " ")
	masked = integralPattern.ReplaceAllString(masked, " ")
	m := multiplicityWord.FindAllStringSubmatch(masked, -1)
	if len(m) == 0 {
		return "", false
	}
	// "br s": prefer the symbol after the broad marker
	for _, w := range m {
		if !strings.EqualFold(w[1], "br") {
			return strings.ToLower(w[1]), true
		}
	}
	return "s", true
}

func countCouplings(body string) int {
	m := couplingClause.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	n := 0
	for _, part := range strings.Split(m[1], ",") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func splittingSymbols(run string) int {
	n := 0
	for _, c := range run {
		switch c {
		case 'd', 't', 'q', 'p', 'h':
			n++
		}
	}
	return n
}

//Personal.AI order the ending
