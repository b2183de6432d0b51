// Package classifier labels decoded signals as known solvent or reagent
// impurities, or by the functional-group region their shift falls in.
package classifier

import (
	"math"
	"strings"

	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// DefaultTolerancePPM is the shift window for impurity matches.
const DefaultTolerancePPM = 0.03

// ImpurityPrefix starts the label of every impurity match.
const ImpurityPrefix = "Trace: "

// matchSlack absorbs decimal representation error so that a signal exactly
// DefaultTolerancePPM away from a table entry still matches.
const matchSlack = 1e-9

// Classifier matches signals against the impurity and region tables.
type Classifier struct {
	tolerance float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTolerance sets the impurity shift window in ppm.
func WithTolerance(ppm float64) Option {
	return func(c *Classifier) {
		if ppm >= 0 && !math.IsInf(ppm, 0) {
			c.tolerance = ppm
		}
	}
}

// New returns a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{tolerance: DefaultTolerancePPM}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Tolerance returns the impurity shift window in ppm.
func (c *Classifier) Tolerance() float64 { return c.tolerance }

// MatchImpurity returns the first impurity of the solvent's table within
// tolerance of ppm whose multiplicity matches.
func (c *Classifier) MatchImpurity(ppm float64, multiplicity, solvent string) (nmr.ImpurityPeak, bool) {
	name, ok := CanonicalSolvent(solvent)
	if !ok {
		return nmr.ImpurityPeak{}, false
	}
	for _, imp := range impurityTables[name] {
		if math.Abs(ppm-imp.PPM) <= c.tolerance+matchSlack && MultiplicityMatches(multiplicity, imp.Multiplicity) {
			return imp, true
		}
	}
	return nmr.ImpurityPeak{}, false
}

// Region returns the first functional-group region containing ppm.
func Region(ppm float64) (nmr.ShiftRegion, bool) {
	for _, r := range shiftRegions {
		if r.Contains(ppm) {
			return r, true
		}
	}
	return nmr.ShiftRegion{}, false
}

// Classify labels a signal. Impurity matches win over regions; a signal in
// no region is labelled nmr.NoLabel.
func (c *Classifier) Classify(ppm float64, multiplicity, solvent string) nmr.ClassificationResult {
	if imp, ok := c.MatchImpurity(ppm, multiplicity, solvent); ok {
		return nmr.ClassificationResult{Label: ImpurityPrefix + imp.Name, IsImpurity: true}
	}
	if r, ok := Region(ppm); ok {
		return nmr.ClassificationResult{Label: r.Name}
	}
	return nmr.ClassificationResult{Label: nmr.NoLabel}
}

// ClassifyEntry classifies e by its center and written multiplicity.
// It returns nil for entries that are not renderable.
func (c *Classifier) ClassifyEntry(e nmr.SignalEntry, solvent string) *nmr.ClassificationResult {
	if !e.IsRenderable() {
		return nil
	}
	res := c.Classify(e.Center, e.MultiplicityLabel(), solvent)
	return &res
}

// Classify uses a Classifier with default tolerance.
func Classify(ppm float64, multiplicity, solvent string) nmr.ClassificationResult {
	return New().Classify(ppm, multiplicity, solvent)
}

// MultiplicityMatches compares a declared multiplicity with a table entry.
// A generic "m" matches anything, and a "br" prefix on either side is
// ignored. Comparison is case- and whitespace-insensitive.
func MultiplicityMatches(declared, table string) bool {
	a, b := compact(declared), compact(table)
	if a == "m" || a == b {
		return true
	}
	return strings.TrimPrefix(a, "br") == strings.TrimPrefix(b, "br")
}

//Personal.AI order the ending
