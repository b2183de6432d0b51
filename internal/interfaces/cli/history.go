package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses, newest first",
		Long:  "List stored analyses, newest first. Requires database.enabled in the config.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > 500 {
				return errors.InvalidParam(fmt.Sprintf("limit must be between 1 and 500, got %d", limit))
			}
			return withService(cmd, func(ctx context.Context, cliCtx *CLIContext, svc analysis.Service) error {
				records, err := svc.History(ctx, limit)
				if err != nil {
					if errors.IsCode(err, errors.ErrCodeFeatureDisabled) {
						return errors.New(errors.ErrCodeFeatureDisabled, "history needs PostgreSQL; set database.enabled in the config")
					}
					return err
				}

				out := cmd.OutOrStdout()
				if cliCtx.OutputFormat == OutputJSON {
					return printJSON(out, records)
				}
				rows := make([][]string, len(records))
				for i, r := range records {
					rows[i] = []string{
						r.ID.String(),
						r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						r.Summary.Solvent,
						strconv.Itoa(r.Summary.TotalEntries),
						strconv.Itoa(r.Summary.ImpurityCount),
						strconv.Itoa(len(r.Issues)),
					}
				}
				renderTable(out, []string{"ID", "Created", "Solvent", "Signals", "Impurities", "Issues"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of analyses to show (1-500)")
	return cmd
}

//Personal.AI order the ending
