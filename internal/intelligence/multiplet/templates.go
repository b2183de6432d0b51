// Package multiplet expands a first-order multiplicity sequence into the
// weighted sub-peaks of its splitting pattern.
package multiplet

import "github.com/turtacn/NMReportChecker/pkg/types/nmr"

// Template is one row of Pascal's triangle with offsets in units of the
// coupling constant, centered on zero.
type Template struct {
	Coefficients []float64
	Offsets      []float64
}

// Len returns the number of lines the template produces.
func (t Template) Len() int { return len(t.Coefficients) }

// Sum returns the sum of the coefficients.
func (t Template) Sum() float64 {
	s := 0.0
	for _, c := range t.Coefficients {
		s += c
	}
	return s
}

var identity = Template{Coefficients: []float64{1}, Offsets: []float64{0}}

var templates = map[nmr.Symbol]Template{
	nmr.Singlet:   identity,
	nmr.Multiplet: identity,
	nmr.Doublet:   pascal(1),
	nmr.Triplet:   pascal(2),
	nmr.Quartet:   pascal(3),
	nmr.Pentet:    pascal(4),
	nmr.Hextet:    pascal(5),
}

// pascal builds the template for a symbol coupled to n equivalent nuclei.
func pascal(n int) Template {
	t := Template{
		Coefficients: make([]float64, n+1),
		Offsets:      make([]float64, n+1),
	}
	c := 1.0
	for k := 0; k <= n; k++ {
		t.Coefficients[k] = c
		t.Offsets[k] = float64(k) - float64(n)/2
		c = c * float64(n-k) / float64(k+1)
	}
	return t
}

// TemplateFor returns the template of s. Unknown symbols expand as singlets.
func TemplateFor(s nmr.Symbol) Template {
	if t, ok := templates[s]; ok {
		return t
	}
	return identity
}

//Personal.AI order the ending
