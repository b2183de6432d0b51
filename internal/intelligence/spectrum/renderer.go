// Package spectrum renders decoded signal entries into a dense, normalized
// Lorentzian intensity curve.
//
// Each line is summed only over the samples where it is above TailEpsilon of
// its own peak height, so the cost per line is bounded by its local window
// rather than the axis length.
package spectrum

import (
	"math"

	"github.com/turtacn/NMReportChecker/internal/intelligence/multiplet"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// Line is one sub-peak ready for rendering: its position, its share of the
// entry integral and its half-width.
type Line struct {
	Position float64
	Area     float64
	Width    float64
}

// Result is the rendered curve plus per-entry footprints.
type Result struct {
	Spectrum nmr.Spectrum `json:"spectrum"`

	// Bands is aligned with the input entries; entries that were skipped
	// have a nil band.
	Bands []*nmr.Band `json:"bands"`

	// View is the requested range without padding.
	View nmr.View `json:"view"`

	// Lines is the number of sub-peaks summed.
	Lines int `json:"lines"`
}

// Renderer renders entries onto a fixed axis.
type Renderer struct {
	cfg Config
}

// NewRenderer validates the options and returns a Renderer.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := ApplyOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg}, nil
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Render builds the spectrum for entries at the given spectrometer frequency.
func Render(entries []nmr.SignalEntry, frequencyMHz float64, opts ...Option) (*Result, error) {
	r, err := NewRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render(entries, frequencyMHz), nil
}

// LineWidth returns the half-width used for e: the larger of the base width
// and the shift range half-width, multiplied for broadened signals.
func (r *Renderer) LineWidth(e nmr.SignalEntry) float64 {
	g := r.cfg.BaseLineWidth
	if e.HalfWidth > 0 {
		g = math.Max(g, e.HalfWidth)
	}
	if e.Broadened {
		g *= r.cfg.BroadeningFactor
	}
	return g
}

// Lines expands e into renderable lines whose areas sum to its integral.
// It returns nil for entries that are not renderable.
func (r *Renderer) Lines(e nmr.SignalEntry, frequencyMHz float64) []Line {
	if !e.IsRenderable() {
		return nil
	}
	peaks := multiplet.Scale(multiplet.Expand(e.Center, e.Multiplicity, e.Couplings, frequencyMHz), e.Integral)
	g := r.LineWidth(e)
	lines := make([]Line, len(peaks))
	for i, p := range peaks {
		lines[i] = Line{Position: p.Position, Area: p.Weight, Width: g}
	}
	return lines
}

// Band returns the footprint of e, or nil when e is not renderable.
func (r *Renderer) Band(e nmr.SignalEntry, frequencyMHz float64) *nmr.Band {
	if !e.IsRenderable() {
		return nil
	}
	lo, hi := multiplet.Extent(multiplet.Expand(e.Center, e.Multiplicity, e.Couplings, frequencyMHz))
	pad := math.Max(2.5*r.LineWidth(e), 0.01)
	return &nmr.Band{Lo: lo - pad, Hi: hi + pad}
}

// Axis returns the padded, uniformly spaced sample positions.
func (r *Renderer) Axis() []float64 {
	lo, hi := r.bounds()
	n := r.cfg.Points
	dx := (hi - lo) / float64(n-1)
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = lo + float64(i)*dx
	}
	return axis
}

func (r *Renderer) bounds() (lo, hi float64) {
	lo = math.Min(r.cfg.LoPPM, r.cfg.HiPPM) - r.cfg.PaddingPPM
	hi = math.Max(r.cfg.LoPPM, r.cfg.HiPPM) + r.cfg.PaddingPPM
	return lo, hi
}

// Render sums every line of every renderable entry and normalizes the
// curve to a maximum of 1. With nothing to draw the curve is all zeros.
func (r *Renderer) Render(entries []nmr.SignalEntry, frequencyMHz float64) *Result {
	axis := r.Axis()
	y := make([]float64, len(axis))
	res := &Result{
		Bands: make([]*nmr.Band, len(entries)),
		View: nmr.View{
			Lo: math.Min(r.cfg.LoPPM, r.cfg.HiPPM),
			Hi: math.Max(r.cfg.LoPPM, r.cfg.HiPPM),
		},
	}

	for i, e := range entries {
		lines := r.Lines(e, frequencyMHz)
		if lines == nil {
			continue
		}
		for _, ln := range lines {
			r.accumulate(axis, y, ln)
		}
		res.Lines += len(lines)
		res.Bands[i] = r.Band(e, frequencyMHz)
	}

	normalize(y)
	res.Spectrum = nmr.Spectrum{Axis: axis, Intensity: y}
	return res
}

// window returns the inclusive index range a line touches. ok is false when
// the window lies entirely off the axis.
func (r *Renderer) window(axis []float64, ln Line) (i0, i1 int, ok bool) {
	n := len(axis)
	if r.cfg.FullSummation {
		return 0, n - 1, true
	}
	dx := axis[1] - axis[0]
	x0 := (ln.Position - axis[0]) / dx

	// L(d)/L(0) = g²/(d²+g²) falls below eps beyond d = g·sqrt(1/eps - 1)
	dmax := ln.Width * math.Sqrt(math.Max(0, 1/r.cfg.TailEpsilon-1))
	span := math.Max(float64(r.cfg.MinWindow), math.Ceil(dmax/dx))

	lo := math.Max(0, math.Floor(x0-span))
	hi := math.Min(float64(n-1), math.Ceil(x0+span))
	if lo > hi {
		return 0, 0, false
	}
	return int(lo), int(hi), true
}

func (r *Renderer) accumulate(axis, y []float64, ln Line) {
	i0, i1, ok := r.window(axis, ln)
	if !ok {
		return
	}
	amp := ln.Area * ln.Width / math.Pi
	g2 := ln.Width * ln.Width
	for i := i0; i <= i1; i++ {
		d := axis[i] - ln.Position
		y[i] += amp / (d*d + g2)
	}
}

func normalize(y []float64) {
	ymax := 0.0
	for _, v := range y {
		if v > ymax {
			ymax = v
		}
	}
	if ymax <= 0 {
		return
	}
	for i := range y {
		y[i] /= ymax
	}
}

//Personal.AI order the ending
