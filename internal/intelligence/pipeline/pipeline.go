// Package pipeline runs one report through extraction, decoding, synthesis,
// rendering, classification and format validation. Run is a pure function
// of its input and the pipeline configuration; a Pipeline may be shared
// between goroutines.
package pipeline

import (
	"github.com/turtacn/NMReportChecker/internal/intelligence/classifier"
	"github.com/turtacn/NMReportChecker/internal/intelligence/format_validator"
	"github.com/turtacn/NMReportChecker/internal/intelligence/nmr_parser"
	"github.com/turtacn/NMReportChecker/internal/intelligence/spectrum"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// EntryResult is one signal entry with everything derived from it.
type EntryResult struct {
	Entry          nmr.SignalEntry           `json:"entry"`
	Renderable     bool                      `json:"renderable"`
	Band           *nmr.Band                 `json:"band,omitempty"`
	Classification *nmr.ClassificationResult `json:"classification,omitempty"`
}

// IsImpurity reports whether the entry was matched to a known impurity.
func (r EntryResult) IsImpurity() bool {
	return r.Classification != nil && r.Classification.IsImpurity
}

// Summary carries the counts shown next to the peak table.
type Summary struct {
	FrequencyMHz    float64 `json:"frequency_mhz"`
	Solvent         string  `json:"solvent,omitempty"`
	KnownSolvent    bool    `json:"known_solvent"`
	TotalEntries    int     `json:"total_entries"`
	RenderedEntries int     `json:"rendered_entries"`
	ImpurityCount   int     `json:"impurity_count"`
	TotalProtons    float64 `json:"total_protons"`
	IssueCount      int     `json:"issue_count"`
}

// Analysis is the full result for one report.
type Analysis struct {
	Header        nmr.ParsedHeader `json:"header"`
	Entries       []EntryResult    `json:"entries"`
	Spectrum      nmr.Spectrum     `json:"spectrum"`
	View          nmr.View         `json:"view"`
	ImpurityBands []nmr.Band       `json:"impurity_bands"`
	Issues        []string         `json:"issues"`
	Summary       Summary          `json:"summary"`
}

// SignalEntries returns the decoded entries in discovery order.
func (a *Analysis) SignalEntries() []nmr.SignalEntry {
	out := make([]nmr.SignalEntry, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Entry
	}
	return out
}

// Classifications returns one result per entry; entries that were not
// classified have a nil result.
func (a *Analysis) Classifications() []*nmr.ClassificationResult {
	out := make([]*nmr.ClassificationResult, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Classification
	}
	return out
}

// Empty reports whether no signal groups were found.
func (a *Analysis) Empty() bool { return len(a.Entries) == 0 }

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	render     []spectrum.Option
	classifier *classifier.Classifier
	validator  *format_validator.Validator
}

// WithRenderOptions sets the spectrum renderer options.
func WithRenderOptions(opts ...spectrum.Option) Option {
	return func(o *options) { o.render = append(o.render, opts...) }
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *classifier.Classifier) Option {
	return func(o *options) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *format_validator.Validator) Option {
	return func(o *options) {
		if v != nil {
			o.validator = v
		}
	}
}

// Pipeline holds the configured components.
type Pipeline struct {
	renderer   *spectrum.Renderer
	classifier *classifier.Classifier
	validator  *format_validator.Validator
}

// New builds a Pipeline. It fails only when the render options are invalid.
func New(opts ...Option) (*Pipeline, error) {
	o := &options{
		classifier: classifier.New(),
		validator:  format_validator.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	r, err := spectrum.NewRenderer(o.render...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{renderer: r, classifier: o.classifier, validator: o.validator}, nil
}

// Renderer returns the configured renderer.
func (p *Pipeline) Renderer() *spectrum.Renderer { return p.renderer }

// Classifier returns the configured classifier.
func (p *Pipeline) Classifier() *classifier.Classifier { return p.classifier }

// Validator returns the configured format validator.
func (p *Pipeline) Validator() *format_validator.Validator { return p.validator }

// Run analyzes text. Malformed report text never causes an error; it shows
// up as missing entries, NaN centers and validator issues.
func (p *Pipeline) Run(text string) *Analysis {
	report := nmr_parser.Parse(text)
	rendered := p.renderer.Render(report.Entries, report.Header.FrequencyMHz)

	a := &Analysis{
		Header:        report.Header,
		Entries:       make([]EntryResult, len(report.Entries)),
		Spectrum:      rendered.Spectrum,
		View:          rendered.View,
		ImpurityBands: make([]nmr.Band, 0),
		Issues:        p.validator.Validate(text),
	}

	_, known := classifier.CanonicalSolvent(report.Header.Solvent)
	a.Summary = Summary{
		FrequencyMHz: report.Header.FrequencyMHz,
		Solvent:      report.Header.Solvent,
		KnownSolvent: known,
		TotalEntries: len(report.Entries),
		IssueCount:   len(a.Issues),
	}

	for i, e := range report.Entries {
		res := EntryResult{
			Entry:      e,
			Renderable: e.IsRenderable(),
			Band:       rendered.Bands[i],
		}
		res.Classification = p.classifier.ClassifyEntry(e, report.Header.Solvent)
		if res.Renderable {
			a.Summary.RenderedEntries++
		}
		if res.IsImpurity() {
			a.Summary.ImpurityCount++
			if res.Band != nil {
				a.ImpurityBands = append(a.ImpurityBands, *res.Band)
			}
		}
		a.Summary.TotalProtons += e.Integral
		a.Entries[i] = res
	}
	return a
}

//Personal.AI order the ending
