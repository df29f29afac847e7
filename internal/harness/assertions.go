package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cqlsem/internal/plan"
	"github.com/roach88/cqlsem/internal/sem"
)

// AssertionError is a mismatch between an expected and an actual outcome.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpect compares an analysis outcome with exp and returns every
// mismatch. err is the analysis error; p is the plan when err is nil.
func EvaluateExpect(exp Expect, err error, p *plan.Plan) []error {
	var errs []error

	if exp.Error != "" {
		if err == nil {
			return []error{&AssertionError{Field: "error", Expected: exp.Error, Actual: "success"}}
		}
		if code := string(sem.CodeOf(err)); code != exp.Error {
			errs = append(errs, &AssertionError{Field: "error", Expected: exp.Error, Actual: describeError(err)})
		}
		if exp.Message != "" && !strings.Contains(err.Error(), exp.Message) {
			errs = append(errs, &AssertionError{Field: "message", Expected: fmt.Sprintf("%q", exp.Message), Actual: fmt.Sprintf("%q", err.Error())})
		}
		return errs
	}

	if err != nil {
		return []error{&AssertionError{Field: "error", Expected: "success", Actual: describeError(err)}}
	}

	if exp.Kind != "" && string(p.Kind) != exp.Kind {
		errs = append(errs, &AssertionError{Field: "kind", Expected: exp.Kind, Actual: string(p.Kind)})
	}
	if exp.Key != nil {
		if got := conditionStrings(p.Key); !slices.Equal(got, exp.Key) {
			errs = append(errs, &AssertionError{Field: "key", Expected: formatList(exp.Key), Actual: formatList(got)})
		}
	}
	if exp.Filter != nil {
		if got := conditionStrings(p.Filter); !slices.Equal(got, exp.Filter) {
			errs = append(errs, &AssertionError{Field: "filter", Expected: formatList(exp.Filter), Actual: formatList(got)})
		}
	}
	if exp.StaticOnly != nil {
		if p.StaticOnly != *exp.StaticOnly {
			errs = append(errs, &AssertionError{Field: "static_only", Expected: fmt.Sprint(*exp.StaticOnly), Actual: fmt.Sprint(p.StaticOnly)})
		}
	}
	return errs
}

func describeError(err error) string {
	if code := sem.CodeOf(err); code != "" {
		return string(code) + " (" + err.Error() + ")"
	}
	return err.Error()
}

func conditionStrings(conds []plan.Condition) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.String()
	}
	return out
}

func formatList(ss []string) string {
	return "[" + strings.Join(ss, ", ") + "]"
}
