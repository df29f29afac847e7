package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cqlsem/internal/harness"
	"github.com/roach88/cqlsem/internal/ir"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern on the scenario name)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run analysis scenarios",
		Long: `Run every scenario file in a directory.

Each scenario names a CUE schema directory and a list of statements with
their expected outcome: an error code, or a plan kind with key and filter
conditions. When golden/<file>.golden exists next to a scenario, the run
snapshot must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, malformed scenarios, etc.)

Examples:
  cqlsem test ./scenarios
  cqlsem test ./scenarios --filter "wide*"
  cqlsem test ./scenarios --update
  cqlsem test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	ctx = contextOrBackground(ctx)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		msg := fmt.Sprintf("scenarios directory not found: %s", scenariosDir)
		_ = formatter.Error("E005", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
	}

	scenarios, err := harness.LoadScenarios(scenariosDir)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "load scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if matched, _ := filepath.Match(opts.Filter, s.Name); !matched {
				continue
			}
		}

		formatter.VerboseLog("Running scenario: %s (%d cases)", s.Name, len(s.Cases))
		scenResult := runScenario(ctx, s, opts, harness.WithLogger(logger))
		result.Scenarios = append(result.Scenarios, scenResult)
		result.Total++
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := outputTestJSON(formatter, result); err != nil {
			return err
		}
	} else {
		outputTestText(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

// runScenario executes one scenario and compares or updates its golden file.
func runScenario(ctx context.Context, s *harness.Scenario, opts *TestOptions, runOpts ...harness.Option) ScenarioResult {
	res := ScenarioResult{Name: s.Name, Pass: true}
	fail := func(msg string) ScenarioResult {
		res.Pass = false
		res.Errors = append(res.Errors, msg)
		return res
	}

	result, err := harness.Run(ctx, s, runOpts...)
	if err != nil {
		return fail(fmt.Sprintf("execution failed: %v", err))
	}
	for _, c := range result.Failed() {
		for _, e := range c.Errors {
			res.Pass = false
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", c.Name, e))
		}
	}

	snapshot, err := ir.MarshalCanonical(result.Snapshot())
	if err != nil {
		return fail(fmt.Sprintf("snapshot failed: %v", err))
	}

	goldenPath := goldenFilePath(s.Path())
	if opts.Update {
		if err := writeGoldenFile(goldenPath, snapshot); err != nil {
			return fail(fmt.Sprintf("failed to update golden file: %v", err))
		}
		return res
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		// No golden file: expectations alone decide.
		return res
	}
	if err != nil {
		return fail(fmt.Sprintf("failed to read golden file: %v", err))
	}
	if !bytes.Equal(golden, snapshot) {
		return fail("snapshot does not match golden file (run with --update to regenerate)")
	}
	return res
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E100",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	return formatter.Response(resp)
}

func outputTestText(formatter *OutputFormatter, result TestResult) {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, s := range result.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
