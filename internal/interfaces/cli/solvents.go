package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
)

// NewSolventsCmd creates the solvents command.
func NewSolventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solvents",
		Short: "List the residual solvent and reagent tables used for impurity flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, cliCtx *CLIContext, svc analysis.Service) error {
				tables := svc.Solvents()
				out := cmd.OutOrStdout()
				if cliCtx.OutputFormat == OutputJSON {
					return printJSON(out, tables)
				}
				var rows [][]string
				for _, t := range tables {
					for _, p := range t.Peaks {
						rows = append(rows, []string{
							t.Solvent,
							p.Name,
							strconv.FormatFloat(p.PPM, 'f', 2, 64),
							p.Multiplicity,
						})
					}
				}
				renderTable(out, []string{"Solvent", "Impurity", "δ (ppm)", "Mult."}, rows)
				if cliCtx.OutputFormat == OutputText {
					fmt.Fprintf(out, "\n%d solvent tables\n", len(tables))
				}
				return nil
			})
		},
	}
}

//Personal.AI order the ending
