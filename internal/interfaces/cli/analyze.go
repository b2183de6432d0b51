package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/storage/minio"
	"github.com/turtacn/NMReportChecker/internal/intelligence/pipeline"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

type analyzeOptions struct {
	file   string
	lo     float64
	hi     float64
	points int
	csv    string
}

// analyzeOutput is the JSON form of an analysis.  The spectrum is only
// written with --csv.
type analyzeOutput struct {
	ID            string              `json:"id"`
	Header        nmr.ParsedHeader    `json:"header"`
	Summary       pipeline.Summary    `json:"summary"`
	Rows          []pipeline.TableRow `json:"rows"`
	View          nmr.View            `json:"view"`
	ImpurityBands []nmr.Band          `json:"impurity_bands"`
	Issues        []string            `json:"issues"`
	CSV           string              `json:"csv,omitempty"`
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [TEXT]",
		Short: "Parse a report, flag impurities and synthesize its spectrum",
		Example: `  nmrcheck analyze "1H NMR (400 MHz, CDCl3) δ 7.26 (s, 1H), 1.20 (d, J = 6.8 Hz, 6H)"
  nmrcheck analyze --file report.txt --lo 0 --hi 10 --csv spectrum.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, cliCtx *CLIContext, svc analysis.Service) error {
				return runAnalyze(ctx, cmd, cliCtx, svc, opts, args)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read the report from a file (- for stdin)")
	f.Float64Var(&opts.lo, "lo", 0, "low end of the rendered ppm range (default from config)")
	f.Float64Var(&opts.hi, "hi", 0, "high end of the rendered ppm range (default from config)")
	f.IntVar(&opts.points, "points", 0, "number of spectrum samples (default from config)")
	f.StringVar(&opts.csv, "csv", "", "write the synthesized spectrum as ppm,intensity CSV")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, svc analysis.Service, opts *analyzeOptions, args []string) error {
	text, err := readReport(args, opts.file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	req := &analysis.AnalyzeRequest{Text: text, Points: opts.points}
	loSet, hiSet := cmd.Flags().Changed("lo"), cmd.Flags().Changed("hi")
	if loSet || hiSet {
		r := &analysis.Range{Lo: cliCtx.Config.Render.LoPPM, Hi: cliCtx.Config.Render.HiPPM}
		if loSet {
			r.Lo = opts.lo
		}
		if hiSet {
			r.Hi = opts.hi
		}
		req.Range = r
	}

	res, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}
	cliCtx.Logger.Debug("analysis finished",
		logging.AnalysisID(res.ID),
		logging.Int64("duration_ms", res.DurationMS))

	if opts.csv != "" {
		if err := writeSpectrumCSV(opts.csv, res.Analysis.Spectrum); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch cliCtx.OutputFormat {
	case OutputJSON:
		return printJSON(out, newAnalyzeOutput(res, opts.csv))
	case OutputTable:
		renderRows(out, res.Rows)
		return nil
	default:
		printAnalysisText(out, res, cliCtx.Verbose)
		if opts.csv != "" {
			fmt.Fprintf(out, "\nSpectrum written to %s (%d points)\n", opts.csv, res.Analysis.Spectrum.Len())
		}
		return nil
	}
}

func newAnalyzeOutput(res *analysis.Result, csvPath string) analyzeOutput {
	a := res.Analysis
	out := analyzeOutput{
		ID:            res.ID,
		Header:        a.Header,
		Summary:       a.Summary,
		Rows:          res.Rows,
		View:          a.View,
		ImpurityBands: a.ImpurityBands,
		Issues:        a.Issues,
		CSV:           csvPath,
	}
	if out.Rows == nil {
		out.Rows = []pipeline.TableRow{}
	}
	if out.ImpurityBands == nil {
		out.ImpurityBands = []nmr.Band{}
	}
	if out.Issues == nil {
		out.Issues = []string{}
	}
	return out
}

func writeSpectrumCSV(path string, s nmr.Spectrum) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to create CSV file").WithDetail(path)
	}
	if err := minio.WriteCSV(f, s); err != nil {
		_ = f.Close()
		return errors.Wrap(err, errors.CodeInternal, "failed to write CSV file").WithDetail(path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write CSV file").WithDetail(path)
	}
	return nil
}

// headerLine describes the spectrometer header, e.g. "¹H NMR (400 MHz, CDCl3)".
func headerLine(s pipeline.Summary) string {
	freq := strconv.FormatFloat(s.FrequencyMHz, 'f', -1, 64)
	if s.Solvent == "" {
		return fmt.Sprintf("¹H NMR (%s MHz)", freq)
	}
	solvent := s.Solvent
	if !s.KnownSolvent {
		solvent += ", no impurity table"
	}
	return fmt.Sprintf("¹H NMR (%s MHz, %s)", freq, solvent)
}

func printAnalysisText(w io.Writer, res *analysis.Result, verbose bool) {
	s := res.Analysis.Summary
	fmt.Fprintln(w, color.New(color.Bold).Sprint(headerLine(s)))
	fmt.Fprintf(w, "%d signals, %d rendered, %d flagged as impurities, %s H total\n",
		s.TotalEntries, s.RenderedEntries, s.ImpurityCount,
		strconv.FormatFloat(s.TotalProtons, 'f', -1, 64))
	if verbose {
		v := res.Analysis.View
		fmt.Fprintf(w, "view %.2f–%.2f ppm, %d points, %d ms\n", v.Lo, v.Hi, res.Analysis.Spectrum.Len(), res.DurationMS)
	}
	fmt.Fprintln(w)
	renderRows(w, res.Rows)
	fmt.Fprintln(w)
	printIssues(w, res.Analysis.Issues)
}

func renderRows(w io.Writer, rows []pipeline.TableRow) {
	highlight := color.New(color.FgYellow).SprintFunc()
	data := make([][]string, len(rows))
	for i, r := range rows {
		cells := r.Cells()
		if r.Impurity {
			for j := range cells {
				cells[j] = highlight(cells[j])
			}
		}
		data[i] = cells
	}
	renderTable(w, pipeline.TableHeaders(), data)
}

func printIssues(w io.Writer, issues []string) {
	if len(issues) == 0 {
		fmt.Fprintln(w, color.GreenString("No format issues found."))
		return
	}
	fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprintf("%d format issue(s):", len(issues)))
	for _, issue := range issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}

//Personal.AI order the ending
