// Package nmr_parser turns a literature-style ¹H NMR report string into a
// header and an ordered list of decoded signal entries.
//
// Parsing never fails. Text that does not look like a report yields the
// default header and no entries; undecodable shift tokens yield entries with
// a NaN center.
package nmr_parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// DeltaMarker introduces the signal list.
const DeltaMarker = "δ"

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

var (
	frequencyPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*MHz`)
	solventPattern   = regexp.MustCompile(`(?i)\(\s*\d+(?:\.\d+)?\s*MHz\s*,\s*([^)]+)\)`)
	groupPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?(?:\s*[–-]\s*\d+(?:\.\d+)?)?)\s*\(([^)]*)\)`)
)

// Normalize applies NFKC so that superscript and subscript digits read as
// plain digits ("¹H" becomes "1H", "CDCl₃" becomes "CDCl3").
func Normalize(text string) string {
	return norm.NFKC.String(text)
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// ExtractHeader reads the spectrometer frequency and the solvent.
// The frequency falls back to nmr.DefaultFrequencyMHz when absent or not a
// positive finite number.
func ExtractHeader(text string) nmr.ParsedHeader {
	h := nmr.ParsedHeader{FrequencyMHz: nmr.DefaultFrequencyMHz}

	if m := frequencyPattern.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil && f > 0 && !math.IsInf(f, 0) {
			h.FrequencyMHz = f
		}
	}
	if m := solventPattern.FindStringSubmatch(text); m != nil {
		h.Solvent = strings.TrimSpace(m[1])
	}
	return h
}

// SignalRegion returns the part of text after the first δ, or the whole
// text when no δ is present.
func SignalRegion(text string) string {
	if i := strings.Index(text, DeltaMarker); i >= 0 {
		return text[i+len(DeltaMarker):]
	}
	return text
}

// ExtractGroups returns every "shift (body)" pair of the signal region in
// left-to-right order. An empty result is a valid outcome.
func ExtractGroups(text string) []nmr.RawGroup {
	matches := groupPattern.FindAllStringSubmatch(SignalRegion(text), -1)
	groups := make([]nmr.RawGroup, 0, len(matches))
	for _, m := range matches {
		groups = append(groups, nmr.RawGroup{Shift: m[1], Body: m[2]})
	}
	return groups
}

// Extract normalizes text and returns the header plus raw groups.
func Extract(text string) (nmr.ParsedHeader, []nmr.RawGroup) {
	text = Normalize(text)
	return ExtractHeader(text), ExtractGroups(text)
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

// Report is the decoded form of one report string.
type Report struct {
	Header  nmr.ParsedHeader  `json:"header"`
	Entries []nmr.SignalEntry `json:"entries"`
}

// Renderable returns the entries that have a finite center and a non-empty
// multiplicity.
func (r *Report) Renderable() []nmr.SignalEntry {
	out := make([]nmr.SignalEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.IsRenderable() {
			out = append(out, e)
		}
	}
	return out
}

// DecodeEntry decodes one raw group. index is its discovery order.
func DecodeEntry(index int, g nmr.RawGroup) nmr.SignalEntry {
	center, halfWidth := DecodeShift(g.Shift)
	body := DecodeBody(g.Body)
	return nmr.SignalEntry{
		Index:        index,
		Raw:          g,
		Center:       center,
		HalfWidth:    halfWidth,
		Multiplicity: body.Multiplicity,
		Couplings:    body.Couplings,
		Integral:     body.Integral,
		Broadened:    body.Broadened,
	}
}

// Parse extracts and decodes a full report.
func Parse(text string) *Report {
	header, groups := Extract(text)
	r := &Report{Header: header, Entries: make([]nmr.SignalEntry, 0, len(groups))}
	for i, g := range groups {
		r.Entries = append(r.Entries, DecodeEntry(i, g))
	}
	return r
}

//Personal.AI order the ending
