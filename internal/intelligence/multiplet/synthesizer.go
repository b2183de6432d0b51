package multiplet

import (
	"math"

	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// FallbackCouplingHz is used for every symbol when a signal declares no J
// values. It is a visualization heuristic so that an unlabelled doublet
// still draws as two lines; it carries no metrological meaning.
const FallbackCouplingHz = 7.0

// EffectiveCouplings pads or trims js to one value per symbol. Missing values
// repeat the last declared J; with no declared J every symbol gets
// FallbackCouplingHz.
func EffectiveCouplings(seq nmr.Sequence, js []float64) []float64 {
	out := make([]float64, len(seq))
	if len(seq) == 0 {
		return out
	}
	fill := FallbackCouplingHz
	if len(js) > 0 {
		fill = js[len(js)-1]
	}
	for i := range out {
		if i < len(js) {
			out[i] = js[i]
		} else {
			out[i] = fill
		}
	}
	return out
}

// splitStep applies one symbol to the current line list.
type splitStep func(peaks []nmr.SubPeak, sym nmr.Symbol, spacingPPM float64) []nmr.SubPeak

// split replaces every line by the template's lines around it.
func split(peaks []nmr.SubPeak, sym nmr.Symbol, spacingPPM float64) []nmr.SubPeak {
	t := TemplateFor(sym)
	out := make([]nmr.SubPeak, 0, len(peaks)*t.Len())
	for _, p := range peaks {
		for k, c := range t.Coefficients {
			out = append(out, nmr.SubPeak{
				Position: p.Position + t.Offsets[k]*spacingPPM,
				Weight:   p.Weight * c,
			})
		}
	}
	return out
}

func fold(seq nmr.Sequence, spacings []float64, init []nmr.SubPeak, step splitStep) []nmr.SubPeak {
	acc := init
	for i, sym := range seq {
		acc = step(acc, sym, spacings[i])
	}
	return acc
}

// Expand returns the sub-peaks of a signal at center with the given
// multiplicity and J values in Hz. Weights are the products of template
// coefficients; their sum equals the product of the template sums.
//
// couplingsHz is normalized with EffectiveCouplings. A non-positive or
// non-finite frequency is replaced by nmr.DefaultFrequencyMHz.
func Expand(center float64, seq nmr.Sequence, couplingsHz []float64, frequencyMHz float64) []nmr.SubPeak {
	if frequencyMHz <= 0 || math.IsNaN(frequencyMHz) || math.IsInf(frequencyMHz, 0) {
		frequencyMHz = nmr.DefaultFrequencyMHz
	}
	js := EffectiveCouplings(seq, couplingsHz)
	spacings := make([]float64, len(js))
	for i, j := range js {
		spacings[i] = j / frequencyMHz
	}
	return fold(seq, spacings, []nmr.SubPeak{{Position: center, Weight: 1}}, split)
}

// TotalWeight returns the sum of peak weights.
func TotalWeight(peaks []nmr.SubPeak) float64 {
	s := 0.0
	for _, p := range peaks {
		s += p.Weight
	}
	return s
}

// Scale returns a copy of peaks whose weights sum to total. A zero-weight
// input is returned unchanged.
func Scale(peaks []nmr.SubPeak, total float64) []nmr.SubPeak {
	sum := TotalWeight(peaks)
	out := make([]nmr.SubPeak, len(peaks))
	copy(out, peaks)
	if sum == 0 {
		return out
	}
	k := total / sum
	for i := range out {
		out[i].Weight *= k
	}
	return out
}

// Extent returns the lowest and highest sub-peak positions.
func Extent(peaks []nmr.SubPeak) (lo, hi float64) {
	if len(peaks) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = peaks[0].Position, peaks[0].Position
	for _, p := range peaks[1:] {
		lo = math.Min(lo, p.Position)
		hi = math.Max(hi, p.Position)
	}
	return lo, hi
}

//Personal.AI order the ending
