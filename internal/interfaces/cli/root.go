package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// Output formats accepted by --output.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
}

// ServiceFactory builds the analysis service for one command run.  The
// returned cleanup func releases whatever the service holds open.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger logging.Logger) (analysis.Service, func(), error)

// DefaultServiceFactory builds a service with no history, cache or archive.
func DefaultServiceFactory(_ context.Context, cfg *config.Config, logger logging.Logger) (analysis.Service, func(), error) {
	svc, err := analysis.NewService(analysis.ConfigFrom(cfg), analysis.Deps{Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {}, nil
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool

	factory ServiceFactory
	svc     analysis.Service
	cleanup func()
}

// Service builds the analysis service on first use.  Config changes made by
// a command before the first call, such as --strict, are honoured.
func (c *CLIContext) Service(ctx context.Context) (analysis.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, cleanup, err := c.factory(ctx, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.svc, c.cleanup = svc, cleanup
	return svc, nil
}

// Close releases the service and flushes the logger.
func (c *CLIContext) Close() {
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
	_ = c.Logger.Sync()
}

// NewRootCommand creates the root command with all global flags and
// subcommands.  A nil factory means DefaultServiceFactory.
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultServiceFactory
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nmrcheck",
		Short: "Check ¹H NMR report strings and render their spectra",
		Long: "nmrcheck parses ¹H NMR characterization strings as written in experimental\n" +
			"sections, flags residual solvent and reagent peaks, lints the report format and\n" +
			"synthesizes the spectrum the report describes.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, factory)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./nmrcheck.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewValidateCmd(),
		NewSolventsCmd(),
		NewHistoryCmd(),
	)
	return cmd
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions, factory ServiceFactory) error {
	switch strings.ToLower(opts.OutputFormat) {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q; expected text, json or table", opts.OutputFormat))
	}
	if opts.NoColor {
		color.NoColor = true
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	cfg, err := initConfig(opts, logger)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		factory:      factory,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: env > file > defaults.
func initConfig(opts *RootOptions, logger logging.Logger) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./nmrcheck.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".nmrcheck", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/nmrcheck/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			logger.Debug("using config file", logging.String("path", p))
			return config.Load(p)
		}
	}
	logger.Debug("no config file found, using defaults and environment")
	return config.LoadFromEnv()
}

// initLogger creates a console logger writing to stderr.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(opts.LogLevel)
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewCLILogger(level)
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// withService resolves the CLI context and service for a subcommand and
// releases them when fn returns.
func withService(cmd *cobra.Command, fn func(ctx context.Context, cliCtx *CLIContext, svc analysis.Service) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	defer cliCtx.Close()
	svc, err := cliCtx.Service(cmd.Context())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), cliCtx, svc)
}

// Execute runs the CLI with os.Args.  Errors other than ErrIssuesFound are
// printed to stderr.
func Execute(factory ServiceFactory) error {
	rootCmd := NewRootCommand(factory)
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, ErrIssuesFound) {
			PrintError(rootCmd, err)
		}
		return err
	}
	return nil
}

// printJSON outputs data as indented JSON.
func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// renderTable writes an aligned borderless table.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

//Personal.AI order the ending
