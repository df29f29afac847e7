package sem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlsem/internal/catalog"
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/testutil"
)

// rel builds a relation against a constant converted with ir.FromAny.
func rel(t *testing.T, column string, op ptree.Op, v any) *ptree.Relation {
	t.Helper()
	val, err := ir.FromAny(v)
	require.NoError(t, err)
	return ptree.Rel(column, op, val)
}

func and(operands ...ptree.Expr) ptree.Expr {
	return ptree.NewAnd(operands...)
}

func set(column string, v ir.Value) Assignment {
	return Assignment{Column: column, Value: &ptree.Const{Value: v}}
}

func consts(vals ...ir.Value) []ptree.Expr {
	out := make([]ptree.Expr, len(vals))
	for i, v := range vals {
		out[i] = &ptree.Const{Value: v}
	}
	return out
}

// newTestAnalyzer returns an analyzer over the wide, clustered and system
// fixtures.
func newTestAnalyzer(t *testing.T, opts ...AnalyzerOption) *Analyzer {
	t.Helper()
	cat := catalog.NewMemory(
		testutil.WideTable(t),
		testutil.ClusteredTable(t),
		testutil.SystemTable(t),
	)
	return NewAnalyzer(cat, opts...)
}

func opStrings(ops []ColumnOp) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

// requireCode asserts err is an *Error with the given code.
func requireCode(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
	var se *Error
	require.ErrorAs(t, err, &se)
	return se
}
