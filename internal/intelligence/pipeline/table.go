package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// ImpurityBadge marks impurity rows in the peak table.
const ImpurityBadge = "IMP"

// TableRow is one formatted line of the peak table.
type TableRow struct {
	Index        int    `json:"index"`
	Shift        string `json:"shift"`
	Multiplicity string `json:"multiplicity"`
	Couplings    string `json:"couplings"`
	Integral     string `json:"integral"`
	Identity     string `json:"identity"`
	Impurity     bool   `json:"impurity"`
}

// Cells returns the row in column order.
func (r TableRow) Cells() []string {
	return []string{r.Shift, r.Multiplicity, r.Couplings, r.Integral, r.Identity}
}

// TableHeaders names the columns of TableRow.Cells.
func TableHeaders() []string {
	return []string{"δ (ppm)", "Mult.", "J (Hz)", "nH", "Identity"}
}

// Rows formats every entry for display.
func (a *Analysis) Rows() []TableRow {
	rows := make([]TableRow, len(a.Entries))
	for i, e := range a.Entries {
		rows[i] = FormatRow(e)
	}
	return rows
}

// FormatRow formats one entry: shift to two decimals, J values to one
// decimal, the integral rounded to two decimals.
func FormatRow(e EntryResult) TableRow {
	row := TableRow{
		Index:        e.Entry.Index,
		Shift:        formatShift(e.Entry.Center),
		Multiplicity: e.Entry.MultiplicityLabel(),
		Couplings:    formatCouplings(e.Entry.Couplings),
		Integral:     strconv.FormatFloat(math.Round(e.Entry.Integral*100)/100, 'f', -1, 64),
		Identity:     nmr.NoLabel,
	}
	if c := e.Classification; c != nil {
		row.Identity = c.Label
		if c.IsImpurity {
			row.Identity = ImpurityBadge + " " + c.Label
			row.Impurity = true
		}
	}
	return row
}

func formatShift(center float64) string {
	if math.IsNaN(center) || math.IsInf(center, 0) {
		return "NaN"
	}
	return strconv.FormatFloat(center, 'f', 2, 64)
}

func formatCouplings(js []float64) string {
	if len(js) == 0 {
		return nmr.NoLabel
	}
	parts := make([]string, len(js))
	for i, j := range js {
		parts[i] = strconv.FormatFloat(j, 'f', 1, 64)
	}
	return strings.Join(parts, ", ")
}

//Personal.AI order the ending
