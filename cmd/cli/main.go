package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"rmvc/adapters/coercer"
	"rmvc/adapters/excel"
	"rmvc/adapters/export"
	"rmvc/app"
	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
	"rmvc/domain/run"
	"rmvc/domain/softset"
	"rmvc/internal"
	"rmvc/internal/config"
	"rmvc/internal/testkit"
	"rmvc/ports"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs once flags are parsed
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	close  func() error
}

func newRootCmd() *cobra.Command {
	var verbose bool
	e := &env{close: func() error { return nil }}

	rootCmd := &cobra.Command{
		Use:           "rmvc",
		Short:         "Rank candidates by relational membership value over a soft set",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "DEBUG"
			}
			logger, closeLog, err := internal.NewLogger(cfg.Logging.Level, cfg.Logging.File)
			if err != nil {
				return err
			}
			e.cfg, e.logger, e.close = cfg, logger, closeLog
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		newAnalyzeCmd(e),
		newIterateCmd(e),
		newExampleCmd(e),
	)
	return rootCmd
}

// analyzeFlags are shared by analyze and iterate
type analyzeFlags struct {
	transpose bool
	minSize   int
	sheet     string
	workers   int
	precision int
	format    string
	top       int
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.transpose, "transpose", false, "Rows are criteria and columns are candidates")
	cmd.Flags().IntVar(&f.minSize, "min-criterion-size", 1, "Drop criteria with fewer members")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read (xlsx only, default first)")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "Workers building matrix rows")
	cmd.Flags().IntVar(&f.precision, "precision", 4, "Decimal places in output")
	cmd.Flags().StringVar(&f.format, "format", "table", "Output format: table or json")
	cmd.Flags().IntVar(&f.top, "top", 0, "Show only the first N ranking rows (0 = all)")
}

// apply overlays explicitly set flags on the loaded configuration.
func (f *analyzeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("transpose") {
		cfg.Analysis.Orientation = string(dataset.RowsAreCandidates)
		if f.transpose {
			cfg.Analysis.Orientation = string(dataset.RowsAreCriteria)
		}
	}
	if flags.Changed("min-criterion-size") {
		cfg.Analysis.MinCriterionSize = f.minSize
	}
	if flags.Changed("sheet") {
		cfg.Ingest.Sheet = f.sheet
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = f.workers
	}
	if flags.Changed("precision") {
		cfg.Analysis.Precision = f.precision
	}
	if cfg.Analysis.MinCriterionSize < 0 {
		return fmt.Errorf("--min-criterion-size cannot be negative")
	}
	if cfg.Analysis.Precision < 0 || cfg.Analysis.Precision > 18 {
		return fmt.Errorf("--precision must be between 0 and 18")
	}
	switch f.format {
	case "table", "json":
	default:
		return fmt.Errorf("unknown --format %q (want table|json)", f.format)
	}
	return nil
}

func newAnalyzeCmd(e *env) *cobra.Command {
	var flags analyzeFlags
	var exports exportFlags
	var candidate string

	cmd := &cobra.Command{
		Use:   "analyze <file.csv|file.xlsx|->",
		Short: "Compute the membership matrix, scores and optimal choice",
		Long: `Read a relation table, build the soft set and rank every candidate.

A cell relates its row and column when it is strictly positive. Use "-" to
read CSV from stdin.

With --candidate the output is that candidate's rank and its membership
value in every criterion instead of the full ranking.

Example: rmvc analyze purchases.xlsx --transpose --export-matrix matrix.csv --exact`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, e.cfg); err != nil {
				return err
			}
			out, err := analyzeFile(cmd.Context(), e, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := exports.write(out.Record.Result, e.cfg.Analysis.Precision, out.Issues); err != nil {
				return err
			}
			if candidate != "" {
				detail, err := out.Record.Result.Candidate(candidate)
				if err != nil {
					return err
				}
				return renderCandidate(cmd.OutOrStdout(), flags.format, detail, e.cfg.Analysis.Precision)
			}
			return renderAnalysis(cmd.OutOrStdout(), flags.format, out, e.cfg.Analysis.Precision, flags.top)
		},
	}

	flags.register(cmd)
	exports.register(cmd)
	cmd.Flags().StringVar(&candidate, "candidate", "", "Show rank and per-criterion membership of one candidate")
	return cmd
}

func newIterateCmd(e *env) *cobra.Command {
	var flags analyzeFlags
	var threshold string
	var rounds int

	cmd := &cobra.Command{
		Use:   "iterate <file.csv|file.xlsx|->",
		Short: "Re-derive the soft set from the matrix at a threshold and re-rank",
		Long: `Analyze the table, then repeatedly replace every criterion with
{u : M(u, e) >= threshold} and analyze again. Stops early once the soft set
no longer changes.

Example: rmvc iterate purchases.csv --threshold 1/2 --rounds 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, e.cfg); err != nil {
				return err
			}
			if rounds < 1 {
				return fmt.Errorf("--rounds must be at least 1")
			}
			cut, err := rmvc.ParseRat(threshold)
			if err != nil {
				return err
			}

			out, err := analyzeFile(cmd.Context(), e, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			history := run.NewHistory(e.cfg.Server.HistoryLimit)
			if err := history.Append(out.Record); err != nil {
				return err
			}
			service := app.NewAnalysisService(e.logger, e.cfg.Analysis.Workers)
			if _, err := service.IterateRounds(cmd.Context(), history, out.Record, cut, rounds); err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), flags.format, history, e.cfg.Analysis.Precision, flags.top)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&threshold, "threshold", "1/2", "Membership cut as a fraction or decimal, in (0, 1]")
	cmd.Flags().IntVar(&rounds, "rounds", 1, "Maximum number of iterations")
	return cmd
}

func newExampleCmd(e *env) *cobra.Command {
	var precision int

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Run the built-in five-candidate example and check its reference values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := app.NewAnalysisService(e.logger, 1)
			out, err := service.AnalyzeTable(cmd.Context(), "worked-example", testkit.WorkedExampleTable(), softset.BuildOptions{})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := renderAnalysis(w, "table", out, precision, 0); err != nil {
				return err
			}
			return renderReferenceCheck(w, out.Record.Result)
		},
	}

	cmd.Flags().IntVar(&precision, "precision", 4, "Decimal places in output")
	return cmd
}

func analyzeFile(ctx context.Context, e *env, path string, stdin io.Reader) (*app.AnalysisResult, error) {
	readerConfig := excel.ReaderConfig{
		Sheet: e.cfg.Ingest.Sheet,
		CoercionConfig: coercer.CoercionConfig{
			AcceptMarkers:   e.cfg.Ingest.AcceptMarkers,
			MalformedWarnAt: e.cfg.Ingest.MalformedWarnAt,
			MissingTokens:   coercer.DefaultCoercionConfig().MissingTokens,
		},
		Logger: e.logger,
	}

	var reader ports.TableReader = excel.NewDataReader(path, readerConfig)
	source := filepath.Base(path)
	if path == "-" {
		source = "stdin"
		reader = ports.TableReaderFunc(func(ctx context.Context) (*dataset.Table, error) {
			return excel.ReadCSV(source, stdin, readerConfig)
		})
	}

	service := app.NewAnalysisService(e.logger, e.cfg.Analysis.Workers)
	return service.Analyze(ctx, app.AnalysisRequest{
		Source:  source,
		Reader:  reader,
		Options: e.cfg.Analysis.BuildOptions(),
	})
}

// exportFlags name the optional files analyze writes
type exportFlags struct {
	matrix   string
	exact    bool
	ranking  string
	criteria string
	xlsx     string
	report   string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.matrix, "export-matrix", "", "Write the membership matrix as CSV")
	cmd.Flags().BoolVar(&f.exact, "exact", false, "Write exact fractions instead of decimals in --export-matrix")
	cmd.Flags().StringVar(&f.ranking, "export-ranking", "", "Write the ranking as CSV")
	cmd.Flags().StringVar(&f.criteria, "export-criteria", "", "Write criterion sizes, γ and members as CSV")
	cmd.Flags().StringVar(&f.xlsx, "export-xlsx", "", "Write matrix, ranking and criteria as an Excel workbook")
	cmd.Flags().StringVar(&f.report, "report", "", "Write a Markdown report (.html renders it)")
}

func (f *exportFlags) write(res *rmvc.Result, precision int, issues []dataset.CellIssue) error {
	if f.matrix != "" {
		mode := export.ModeDecimal
		if f.exact {
			mode = export.ModeExact
		}
		if err := writeFile(f.matrix, export.MatrixCSV{Mode: mode, Precision: precision}, res); err != nil {
			return err
		}
	}
	if f.ranking != "" {
		if err := writeFile(f.ranking, export.RankingCSV{Precision: precision}, res); err != nil {
			return err
		}
	}
	if f.criteria != "" {
		if err := writeFile(f.criteria, export.CriteriaCSV{}, res); err != nil {
			return err
		}
	}
	if f.xlsx != "" {
		if err := excel.NewWorkbookWriter().SaveAs(f.xlsx, res); err != nil {
			return err
		}
	}
	if f.report != "" {
		rep := export.Report{
			Title:     strings.TrimSuffix(filepath.Base(f.report), filepath.Ext(f.report)),
			Precision: precision,
			HTML:      strings.EqualFold(filepath.Ext(f.report), ".html"),
			Issues:    issues,
		}
		if err := writeFile(f.report, rep, res); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, exp ports.ResultExporter, res *rmvc.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exp.Export(f, res); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
