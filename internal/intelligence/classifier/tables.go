package classifier

import (
	"sort"
	"strings"

	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// Canonical solvent names with impurity tables.
const (
	SolventCDCl3  = "CDCl3"
	SolventDMSOd6 = "DMSO-d6"
	SolventMeODd4 = "MeOD-d4"
	SolventD2O    = "D2O"
)

var impurityTables = map[string][]nmr.ImpurityPeak{
	SolventCDCl3: {
		{Name: "CHCl3 (residual)", PPM: 7.26, Multiplicity: "s"},
		{Name: "H2O", PPM: 1.56, Multiplicity: "br s"},
		{Name: "Acetone", PPM: 2.05, Multiplicity: "s"},
		{Name: "Acetic acid", PPM: 2.08, Multiplicity: "s"},
		{Name: "Ethanol CH3", PPM: 1.18, Multiplicity: "t"},
		{Name: "Ethanol CH2", PPM: 3.65, Multiplicity: "q"},
		{Name: "Ethyl acetate CH3", PPM: 1.26, Multiplicity: "t"},
		{Name: "Ethyl acetate CH2", PPM: 4.12, Multiplicity: "q"},
		{Name: "Diethyl ether CH3", PPM: 1.18, Multiplicity: "t"},
		{Name: "DMF (formyl)", PPM: 8.02, Multiplicity: "s"},
		{Name: "Acetonitrile", PPM: 2.09, Multiplicity: "s"},
		{Name: "Toluene CH3", PPM: 2.31, Multiplicity: "s"},
		{Name: "Benzene", PPM: 7.36, Multiplicity: "s"},
	},
	SolventDMSOd6: {
		{Name: "DMSO (residual)", PPM: 2.50, Multiplicity: "s"},
		{Name: "H2O", PPM: 3.33, Multiplicity: "br s"},
		{Name: "Formic acid", PPM: 8.10, Multiplicity: "s"},
		{Name: "Acetic acid", PPM: 2.08, Multiplicity: "s"},
		{Name: "Methanol", PPM: 3.16, Multiplicity: "s"},
	},
	SolventMeODd4: {
		{Name: "MeOD (residual)", PPM: 3.31, Multiplicity: "s"},
		{Name: "HDO", PPM: 4.87, Multiplicity: "br s"},
		{Name: "Acetone", PPM: 2.05, Multiplicity: "s"},
	},
	SolventD2O: {
		{Name: "HDO", PPM: 4.79, Multiplicity: "br s"},
		{Name: "Acetone", PPM: 2.22, Multiplicity: "s"},
	},
}

// shiftRegions are checked in order; the first containing range wins.
var shiftRegions = []nmr.ShiftRegion{
	{Name: "aromatic", Lo: 6.0, Hi: 8.5},
	{Name: "alkene", Lo: 4.5, Hi: 6.5},
	{Name: "aldehyde", Lo: 9.0, Hi: 10.5},
	{Name: "carboxylic acid", Lo: 10.0, Hi: 13.0},
	{Name: "amide", Lo: 6.0, Hi: 9.0},
	{Name: "O-CHx", Lo: 3.2, Hi: 4.5},
	{Name: "benzylic/allylic", Lo: 2.0, Hi: 3.5},
	{Name: "aliphatic", Lo: 0.5, Hi: 2.5},
}

// solventAliases maps a compacted lowercase spelling to a canonical name.
var solventAliases = map[string]string{
	"cdcl3":          SolventCDCl3,
	"chloroform-d":   SolventCDCl3,
	"chloroformd":    SolventCDCl3,
	"chcl3-d":        SolventCDCl3,
	"dmso-d6":        SolventDMSOd6,
	"dmsod6":         SolventDMSOd6,
	"dmso":           SolventDMSOd6,
	"(cd3)2so":       SolventDMSOd6,
	"meod-d4":        SolventMeODd4,
	"meod":           SolventMeODd4,
	"cd3od":          SolventMeODd4,
	"methanol-d4":    SolventMeODd4,
	"d2o":            SolventD2O,
	"deuteriumoxide": SolventD2O,
}

// CanonicalSolvent resolves a solvent as written in a report to the name of
// its impurity table. ok is false for solvents without a table.
func CanonicalSolvent(solvent string) (string, bool) {
	key := compact(solvent)
	if key == "" {
		return "", false
	}
	if name, ok := solventAliases[key]; ok {
		return name, true
	}
	return "", false
}

// ImpurityTable returns a copy of the impurity peaks known for solvent.
func ImpurityTable(solvent string) []nmr.ImpurityPeak {
	name, ok := CanonicalSolvent(solvent)
	if !ok {
		return nil
	}
	src := impurityTables[name]
	out := make([]nmr.ImpurityPeak, len(src))
	copy(out, src)
	return out
}

// Solvents returns the canonical solvent names, sorted.
func Solvents() []string {
	out := make([]string, 0, len(impurityTables))
	for name := range impurityTables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ShiftRegions returns a copy of the functional-group table in match order.
func ShiftRegions() []nmr.ShiftRegion {
	out := make([]nmr.ShiftRegion, len(shiftRegions))
	copy(out, shiftRegions)
	return out
}

// compact lowercases s and drops all whitespace.
func compact(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

//Personal.AI order the ending
