package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cqlsem/internal/compiler"
	"github.com/roach88/cqlsem/internal/harness"
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/plan"
	"github.com/roach88/cqlsem/internal/sem"
)

// ErrCodeRejected is the response code when any statement fails analysis.
const ErrCodeRejected = "REJECTED"

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	DBPath string // analyze against a catalog database instead of CUE sources
}

// StatementResult is the outcome of analyzing one statement.
type StatementResult struct {
	Index       int        `json:"index"`
	Location    string     `json:"location"`
	Plan        *plan.Plan `json:"plan,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Where       string     `json:"where,omitempty"`
	Params      []any      `json:"params,omitempty"`
	Error       *CLIError  `json:"error,omitempty"`
}

// AnalyzeResult holds the outcome of a whole statements file.
type AnalyzeResult struct {
	Statements []StatementResult `json:"statements"`
	Accepted   int               `json:"accepted"`
	Rejected   int               `json:"rejected"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [schema-dir] <statements.yaml>",
		Short: "Analyze statements and print their access plans",
		Long: `Analyze every statement in a YAML file against a table catalog.

The catalog is compiled from the CUE schema directory, or read from a
catalog database with --db. Each accepted statement prints its access plan,
plan fingerprint and parameterized WHERE clause. Rejected statements print
the analysis error and its location.

Exit codes:
  0 - All statements accepted
  1 - One or more statements rejected
  2 - Command error (missing files, invalid schema, unreadable catalog)

Examples:
  cqlsem analyze ./schema stmts.yaml
  cqlsem analyze --db catalog.db stmts.yaml
  cqlsem analyze ./schema stmts.yaml --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaDir, stmtsPath, err := analyzeArgs(opts, args)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), opts, schemaDir, stmtsPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to catalog database")

	return cmd
}

func analyzeArgs(opts *AnalyzeOptions, args []string) (string, string, error) {
	switch {
	case opts.DBPath != "" && len(args) == 1:
		return "", args[0], nil
	case opts.DBPath == "" && len(args) == 2:
		return args[0], args[1], nil
	case opts.DBPath != "":
		return "", "", NewExitError(ExitCommandError, "a schema directory cannot be combined with --db")
	default:
		return "", "", NewExitError(ExitCommandError, "requires <schema-dir> <statements.yaml>, or --db with <statements.yaml>")
	}
}

func runAnalyze(ctx context.Context, opts *AnalyzeOptions, schemaDir, stmtsPath string, cmd *cobra.Command) error {
	ctx = contextOrBackground(ctx)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cat, err := loadCatalog(ctx, logger, opts.Keyspace, schemaDir, opts.DBPath)
	if err != nil {
		_ = formatter.Error(commandErrorCode(err), err.Error(), nil)
		return err
	}

	stmts, err := harness.LoadStatements(stmtsPath)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load statements", err)
	}
	formatter.VerboseLog("Loaded %d statement(s) from %s", len(stmts), stmtsPath)

	analyzer := sem.NewAnalyzer(cat,
		sem.WithKeyspace(opts.Keyspace),
		sem.WithSystemNamespaceReadOnly(opts.SystemReadOnly),
		sem.WithLogger(logger),
	)

	result := AnalyzeResult{Statements: make([]StatementResult, len(stmts))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, stmt := range stmts {
		i, stmt := i, stmt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result.Statements[i] = analyzeStatement(analyzer, i+1, stmt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "analyze", err)
	}

	for _, r := range result.Statements {
		if r.Error != nil {
			result.Rejected++
		} else {
			result.Accepted++
		}
	}
	logger.Debug().
		Str("statements", stmtsPath).
		Int("accepted", result.Accepted).
		Int("rejected", result.Rejected).
		Msg("analysis complete")

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Rejected > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeRejected,
				Message: fmt.Sprintf("%d of %d statement(s) rejected", result.Rejected, len(stmts)),
			}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
	} else {
		outputAnalyzeText(formatter, result)
	}

	if result.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d statement(s) rejected", result.Rejected))
	}
	return nil
}

func analyzeStatement(a *sem.Analyzer, index int, stmt *sem.DmlStmt) StatementResult {
	res := StatementResult{Index: index, Location: stmt.Loc().String()}

	if err := a.Analyze(stmt); err != nil {
		res.Error = statementError(err)
		return res
	}

	p, err := plan.Build(stmt)
	if err != nil {
		res.Error = statementError(err)
		return res
	}
	res.Plan = p

	if res.Fingerprint, err = plan.Fingerprint(p); err != nil {
		res.Error = statementError(err)
		return res
	}

	where, params, err := plan.CompileWhere(p)
	if err != nil {
		res.Error = statementError(err)
		return res
	}
	res.Where = where
	res.Params = displayParams(params)
	return res
}

func statementError(err error) *CLIError {
	var se *sem.Error
	if errors.As(err, &se) {
		out := &CLIError{Code: string(se.Code), Message: se.Message}
		if se.Loc.IsValid() {
			out.Location = se.Loc.String()
		}
		return out
	}
	return &CLIError{Code: compiler.ErrCodeGeneric, Message: err.Error()}
}

// markerParam is a bind marker in a displayed parameter list. It encodes as
// the string ":name".
type markerParam string

// displayParams replaces plan markers with markerParam.
func displayParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		if m, ok := p.(plan.Marker); ok {
			out[i] = markerParam(":" + m.Name)
			continue
		}
		out[i] = p
	}
	return out
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case markerParam:
			parts[i] = string(v)
		case string:
			parts[i] = ir.Format(ir.String(v))
		case nil:
			parts[i] = "NULL"
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, ", ")
}

func outputAnalyzeText(formatter *OutputFormatter, result AnalyzeResult) {
	w := formatter.Writer
	for _, r := range result.Statements {
		if r.Error != nil {
			fmt.Fprintf(w, "✗ [%d] %s\n", r.Index, r.Location)
			if r.Error.Location != "" {
				fmt.Fprintf(w, "  %s: %s (at %s)\n\n", r.Error.Code, r.Error.Message, r.Error.Location)
			} else {
				fmt.Fprintf(w, "  %s: %s\n\n", r.Error.Code, r.Error.Message)
			}
			continue
		}

		fmt.Fprintf(w, "✓ [%d] %s\n", r.Index, r.Location)
		fmt.Fprint(w, r.Plan.Text())
		if r.Where != "" {
			fmt.Fprintf(w, "%-8s %s\n", "where:", r.Where)
			fmt.Fprintf(w, "%-8s %s\n", "params:", formatParams(r.Params))
		}
		fmt.Fprintf(w, "%-8s %s\n\n", "digest:", r.Fingerprint)
	}
	fmt.Fprintf(w, "%d statement(s): %d accepted, %d rejected\n", len(result.Statements), result.Accepted, result.Rejected)
}
