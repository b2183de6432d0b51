package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
)

// ErrIssuesFound is returned by validate when the report has format issues
// so that the process exits non-zero.
var ErrIssuesFound = stderrors.New("report has format issues")

type validateOptions struct {
	file   string
	strict bool
}

type validateOutput struct {
	Issues []string `json:"issues"`
	Count  int      `json:"count"`
}

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [TEXT]",
		Short: "Lint a report for format issues",
		Long:  "Lint a report for format issues. Exits with status 1 when any issue is found.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if opts.strict {
				cliCtx.Config.Validator.StrictCouplingCount = true
			}
			return withService(cmd, func(ctx context.Context, cliCtx *CLIContext, svc analysis.Service) error {
				return runValidate(ctx, cmd, cliCtx, svc, opts, args)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the report from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "also require J-value counts to match the multiplicity")
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, svc analysis.Service, opts *validateOptions, args []string) error {
	text, err := readReport(args, opts.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	issues := svc.Validate(ctx, text)
	if issues == nil {
		issues = []string{}
	}

	out := cmd.OutOrStdout()
	switch cliCtx.OutputFormat {
	case OutputJSON:
		if err := printJSON(out, validateOutput{Issues: issues, Count: len(issues)}); err != nil {
			return err
		}
	case OutputTable:
		rows := make([][]string, len(issues))
		for i, issue := range issues {
			rows[i] = []string{fmt.Sprint(i + 1), issue}
		}
		renderTable(out, []string{"#", "Issue"}, rows)
	default:
		printIssues(out, issues)
	}

	if len(issues) > 0 {
		return ErrIssuesFound
	}
	return nil
}

//Personal.AI order the ending
