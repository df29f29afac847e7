package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/cqlsem/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Tables []string                   `json:"tables,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate table definitions",
		Long: `Validate the CUE table definitions in a schema directory.

Every table is compiled and checked: a hash key is required, key columns
cannot be static, column names must be unique and types must be known.
All errors are reported, not just the first.

Exit codes:
  0 - All tables valid
  1 - One or more tables invalid
  2 - Command error (missing directory, no CUE files, CUE syntax errors)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := compiler.LoadDir(schemaDir, opts.Keyspace, compiler.LoadModeCollectAll)

	// Nothing was compiled: the directory itself is unusable.
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *compiler.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, compiler.ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaDir)

	var tables []string
	for _, t := range loadResult.Tables {
		formatter.VerboseLog("Validated table: %s (%d columns)", t.Name, len(t.Columns))
		tables = append(tables, t.Name.String())
	}

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, tables, toValidationErrors(loadErrors))
	}
	return outputValidateSuccess(formatter, tables)
}

// toValidationErrors flattens load and validation errors into one list.
func toValidationErrors(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var verr compiler.ValidationError
		var loadErr *compiler.LoadError
		switch {
		case errors.As(err, &verr):
			out = append(out, verr)
		case errors.As(err, &loadErr):
			out = append(out, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr.Pos),
			})
		default:
			out = append(out, compiler.ValidationError{
				Field:   "load",
				Message: err.Error(),
				Code:    compiler.ErrCodeGeneric,
			})
		}
	}
	return out
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

func outputValidateSuccess(formatter *OutputFormatter, tables []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: tables})
	}

	fmt.Fprintln(formatter.Writer, "✓ All tables valid")
	return nil
}

// outputValidateError reports an unusable schema directory.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationErrors(formatter *OutputFormatter, tables []string, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Tables: tables, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return failure
}
