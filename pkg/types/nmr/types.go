// Package nmr defines the data model shared by the report parser, the pattern
// synthesizer, the spectrum renderer and the classifier.
//
// All values are recomputed on every analysis call. None of these types hold
// references to the report text they were derived from beyond the raw tokens
// kept on SignalEntry for diagnostics.
package nmr

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultFrequencyMHz is assumed when a report does not state the
// spectrometer frequency.
const DefaultFrequencyMHz = 400.0

// ---------------------------------------------------------------------------
// Multiplicity
// ---------------------------------------------------------------------------

// Symbol is one multiplicity letter.
type Symbol byte

const (
	Singlet   Symbol = 's'
	Doublet   Symbol = 'd'
	Triplet   Symbol = 't'
	Quartet   Symbol = 'q'
	Pentet    Symbol = 'p'
	Hextet    Symbol = 'h'
	Multiplet Symbol = 'm'
)

// Valid reports whether s is one of the seven known symbols.
func (s Symbol) Valid() bool {
	switch s {
	case Singlet, Doublet, Triplet, Quartet, Pentet, Hextet, Multiplet:
		return true
	}
	return false
}

// Splits reports whether the symbol introduces a coupling constant.
// Singlets and generic multiplets do not.
func (s Symbol) Splits() bool {
	switch s {
	case Doublet, Triplet, Quartet, Pentet, Hextet:
		return true
	}
	return false
}

// Sequence is an ordered multiplicity sequence such as "dd" or "dq".
type Sequence []Symbol

// ParseSequence converts a lowercase run of letters into a Sequence.
// Unknown letters are kept; the synthesizer treats them as singlets.
func ParseSequence(s string) Sequence {
	if s == "" {
		return nil
	}
	seq := make(Sequence, 0, len(s))
	for i := 0; i < len(s); i++ {
		seq = append(seq, Symbol(s[i]))
	}
	return seq
}

// String renders the sequence as its concatenated letters.
func (q Sequence) String() string {
	var sb strings.Builder
	sb.Grow(len(q))
	for _, s := range q {
		sb.WriteByte(byte(s))
	}
	return sb.String()
}

// SplittingCount is the number of symbols that introduce a coupling.
func (q Sequence) SplittingCount() int {
	n := 0
	for _, s := range q {
		if s.Splits() {
			n++
		}
	}
	return n
}

func (q Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *Sequence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*q = ParseSequence(s)
	return nil
}

// ---------------------------------------------------------------------------
// Header and entries
// ---------------------------------------------------------------------------

// ParsedHeader is derived once per report. FrequencyMHz is always positive
// and finite. Solvent is empty when the report does not name one.
type ParsedHeader struct {
	FrequencyMHz float64 `json:"frequency_mhz"`
	Solvent      string  `json:"solvent,omitempty"`
}

// HasSolvent reports whether the header named a solvent.
func (h ParsedHeader) HasSolvent() bool { return h.Solvent != "" }

// RawGroup is one "shift (body)" pair as found in the report text.
type RawGroup struct {
	Shift string `json:"shift"`
	Body  string `json:"body"`
}

// SignalEntry is one decoded "shift (body)" group. Index is the left-to-right
// discovery order and serves as the entry's identity.
//
// Center is NaN when the shift token could not be decoded. Such entries are
// kept for diagnostics but never rendered or classified.
type SignalEntry struct {
	Index        int       `json:"index"`
	Raw          RawGroup  `json:"raw"`
	Center       float64   `json:"center"`
	HalfWidth    float64   `json:"half_width"`
	Multiplicity Sequence  `json:"multiplicity"`
	Couplings    []float64 `json:"couplings"`
	Integral     float64   `json:"integral"`
	Broadened    bool      `json:"broadened"`
}

// IsRenderable reports whether the entry takes part in synthesis and
// classification.
func (e SignalEntry) IsRenderable() bool {
	return !math.IsNaN(e.Center) && !math.IsInf(e.Center, 0) && len(e.Multiplicity) > 0
}

// MultiplicityLabel is the multiplicity as written, with a "br " prefix when
// the signal is broadened, e.g. "br s".
func (e SignalEntry) MultiplicityLabel() string {
	if e.Broadened {
		return "br " + e.Multiplicity.String()
	}
	return e.Multiplicity.String()
}

type signalEntryJSON struct {
	Index        int       `json:"index"`
	Raw          RawGroup  `json:"raw"`
	Center       *float64  `json:"center"`
	HalfWidth    float64   `json:"half_width"`
	Multiplicity Sequence  `json:"multiplicity"`
	Couplings    []float64 `json:"couplings"`
	Integral     float64   `json:"integral"`
	Broadened    bool      `json:"broadened"`
}

// MarshalJSON writes an undecodable center as null since JSON has no NaN.
func (e SignalEntry) MarshalJSON() ([]byte, error) {
	out := signalEntryJSON{
		Index:        e.Index,
		Raw:          e.Raw,
		HalfWidth:    e.HalfWidth,
		Multiplicity: e.Multiplicity,
		Couplings:    e.Couplings,
		Integral:     e.Integral,
		Broadened:    e.Broadened,
	}
	if out.Couplings == nil {
		out.Couplings = []float64{}
	}
	if !math.IsNaN(e.Center) && !math.IsInf(e.Center, 0) {
		c := e.Center
		out.Center = &c
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a null center as NaN.
func (e *SignalEntry) UnmarshalJSON(data []byte) error {
	var in signalEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = SignalEntry{
		Index:        in.Index,
		Raw:          in.Raw,
		Center:       math.NaN(),
		HalfWidth:    in.HalfWidth,
		Multiplicity: in.Multiplicity,
		Couplings:    in.Couplings,
		Integral:     in.Integral,
		Broadened:    in.Broadened,
	}
	if in.Center != nil {
		e.Center = *in.Center
	}
	return nil
}

// ---------------------------------------------------------------------------
// Synthesis output
// ---------------------------------------------------------------------------

// SubPeak is one line of an expanded multiplet.
type SubPeak struct {
	Position float64 `json:"position"`
	Weight   float64 `json:"weight"`
}

// Band is the ppm footprint of one rendered entry.
type Band struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Width returns Hi-Lo.
func (b Band) Width() float64 { return b.Hi - b.Lo }

// Contains reports whether ppm lies inside the band.
func (b Band) Contains(ppm float64) bool { return ppm >= b.Lo && ppm <= b.Hi }

// View is a ppm window, low to high.
type View struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Spectrum is a dense intensity curve. Axis is strictly increasing with
// uniform spacing and Intensity is aligned with it.
type Spectrum struct {
	Axis      []float64 `json:"axis"`
	Intensity []float64 `json:"intensity"`
}

// Len returns the number of samples.
func (s *Spectrum) Len() int { return len(s.Axis) }

// Max returns the largest intensity value, or 0 for an empty spectrum.
func (s *Spectrum) Max() float64 {
	m := 0.0
	for i, v := range s.Intensity {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}

// Step returns the axis spacing, or 0 when the spectrum has fewer than two
// samples.
func (s *Spectrum) Step() float64 {
	if len(s.Axis) < 2 {
		return 0
	}
	return s.Axis[1] - s.Axis[0]
}

// IntensityAt linearly interpolates the curve at ppm. Values outside the axis
// clamp to the first or last sample.
func (s *Spectrum) IntensityAt(ppm float64) float64 {
	n := len(s.Axis)
	if n == 0 || len(s.Intensity) != n {
		return 0
	}
	if ppm <= s.Axis[0] {
		return s.Intensity[0]
	}
	if ppm >= s.Axis[n-1] {
		return s.Intensity[n-1]
	}
	// first index with Axis[i] >= ppm; i is in [1, n-1]
	i := sort.SearchFloat64s(s.Axis, ppm)
	x0, x1 := s.Axis[i-1], s.Axis[i]
	y0, y1 := s.Intensity[i-1], s.Intensity[i]
	if x1 == x0 {
		return y0
	}
	t := (ppm - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// NoLabel is used when an entry matches neither an impurity nor a
// functional-group region.
const NoLabel = "—"

// ClassificationResult labels one entry.
type ClassificationResult struct {
	Label      string `json:"label"`
	IsImpurity bool   `json:"is_impurity"`
}

// ImpurityPeak is one known residual-solvent or reagent signal.
type ImpurityPeak struct {
	Name         string  `json:"name"`
	PPM          float64 `json:"ppm"`
	Multiplicity string  `json:"multiplicity"`
}

// ShiftRegion is a functional-group chemical shift window.
type ShiftRegion struct {
	Name string  `json:"name"`
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
}

// Contains reports whether ppm lies inside the region, inclusive.
func (r ShiftRegion) Contains(ppm float64) bool { return ppm >= r.Lo && ppm <= r.Hi }

func (r ShiftRegion) String() string {
	return fmt.Sprintf("%s (%.1f–%.1f ppm)", r.Name, r.Lo, r.Hi)
}

//Personal.AI order the ending
