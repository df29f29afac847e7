package sem

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlsem/internal/catalog"
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/schema"
	"github.com/roach88/cqlsem/internal/testutil"
)

func TestAnalyzeColumnOp(t *testing.T) {
	tbl := testutil.WideTable(t)

	tests := []struct {
		name      string
		writeOnly bool
		prior     []*ptree.Relation
		column    string
		op        ptree.Op
		code      ErrorCode // "" means success
		keySlot   bool      // recorded into KeyOps rather than Ops
	}{
		{name: "hash eq read", column: "h1", op: ptree.OpEqual, keySlot: true},
		{name: "hash eq write", writeOnly: true, column: "h1", op: ptree.OpEqual, keySlot: true},
		{name: "range eq write", writeOnly: true, column: "r1", op: ptree.OpEqual, keySlot: true},
		{name: "range eq read", column: "r1", op: ptree.OpEqual},
		{name: "static eq", column: "s", op: ptree.OpEqual, code: ErrCodeInvalidColumnUsage},
		{name: "regular eq", column: "v", op: ptree.OpEqual, code: ErrCodeInvalidColumnUsage},
		{name: "hash lt", column: "h1", op: ptree.OpLessThan, code: ErrCodeInvalidColumnUsage},
		{name: "hash ge", column: "h1", op: ptree.OpGreaterEqual, code: ErrCodeInvalidColumnUsage},
		{name: "regular gt", column: "v", op: ptree.OpGreaterThan, code: ErrCodeInvalidColumnUsage},
		{name: "range lt read", column: "r1", op: ptree.OpLessThan},
		{name: "range le read", column: "r1", op: ptree.OpLessEqual},
		{name: "range gt read", column: "r1", op: ptree.OpGreaterThan},
		{name: "range ge read", column: "r1", op: ptree.OpGreaterEqual},
		{name: "range lt write", writeOnly: true, column: "r1", op: ptree.OpLessThan, code: ErrCodeUnsupportedRangeWrite},
		{name: "range gt write", writeOnly: true, column: "r1", op: ptree.OpGreaterThan, code: ErrCodeUnsupportedRangeWrite},
		{name: "not equal", column: "r1", op: ptree.OpNotEqual, code: ErrCodeUnsupportedOperator},
		{name: "in", column: "h1", op: ptree.OpIn, code: ErrCodeUnsupportedOperator},
		{name: "like", column: "r1", op: ptree.OpLike, code: ErrCodeUnsupportedOperator},
		{
			name:   "eq after eq",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpEqual, ir.Int(1))},
			column: "r1", op: ptree.OpEqual, code: ErrCodeIllogicalCondition,
		},
		{
			name:   "eq after lt",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpLessThan, ir.Int(1))},
			column: "r1", op: ptree.OpEqual, code: ErrCodeIllogicalCondition,
		},
		{
			name:   "eq after gt",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpGreaterThan, ir.Int(1))},
			column: "r1", op: ptree.OpEqual, code: ErrCodeIllogicalCondition,
		},
		{
			name:   "lt after eq",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpEqual, ir.Int(1))},
			column: "r1", op: ptree.OpLessThan, code: ErrCodeIllogicalCondition,
		},
		{
			name:   "le after lt",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpLessThan, ir.Int(1))},
			column: "r1", op: ptree.OpLessEqual, code: ErrCodeIllogicalCondition,
		},
		{
			name:   "ge after gt",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpGreaterThan, ir.Int(1))},
			column: "r1", op: ptree.OpGreaterEqual, code: ErrCodeIllogicalCondition,
		},
		{
			name:   "lt after gt",
			prior:  []*ptree.Relation{ptree.Rel("r1", ptree.OpGreaterThan, ir.Int(1))},
			column: "r1", op: ptree.OpLessThan,
		},
		{
			name:   "hash eq twice",
			prior:  []*ptree.Relation{ptree.Rel("h1", ptree.OpEqual, ir.Int(1))},
			column: "h1", op: ptree.OpEqual, code: ErrCodeIllogicalCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewWhereState(tbl, tt.writeOnly)
			for _, p := range tt.prior {
				desc, _ := tbl.Column(p.Column)
				require.NoError(t, state.AnalyzeColumnOp(p, desc, p.Value))
			}
			keysBefore := countSet(state.KeyOps)
			opsBefore := len(state.Ops)

			r := rel(t, tt.column, tt.op, 7)
			r.Loc = ir.Location{Line: 3, Column: 9}
			desc, ok := tbl.Column(tt.column)
			require.True(t, ok)

			err := state.AnalyzeColumnOp(r, desc, r.Value)
			if tt.code != "" {
				se := requireCode(t, err, tt.code)
				assert.Equal(t, r.Loc, se.Loc)
				return
			}
			require.NoError(t, err)
			if tt.keySlot {
				assert.Equal(t, keysBefore+1, countSet(state.KeyOps))
				assert.Same(t, desc, state.KeyOps[desc.Index].Desc)
				assert.Equal(t, opsBefore, len(state.Ops))
			} else {
				assert.Equal(t, keysBefore, countSet(state.KeyOps))
				require.Equal(t, opsBefore+1, len(state.Ops))
				assert.Equal(t, tt.op, state.Ops[len(state.Ops)-1].Op)
			}
		})
	}
}

func countSet(ops []ColumnOp) int {
	n := 0
	for _, op := range ops {
		if op.IsInitialized() {
			n++
		}
	}
	return n
}

func TestAnalyzeColumnOp_Counters(t *testing.T) {
	tbl := testutil.WideTable(t)
	state := NewWhereState(tbl, false)

	for _, r := range []*ptree.Relation{
		ptree.Rel("h1", ptree.OpEqual, ir.Int(1)),
		ptree.Rel("r1", ptree.OpGreaterEqual, ir.Int(2)),
		ptree.Rel("r1", ptree.OpLessThan, ir.Int(9)),
	} {
		desc, _ := tbl.Column(r.Column)
		require.NoError(t, state.AnalyzeColumnOp(r, desc, r.Value))
	}

	assert.Equal(t, ColumnOpCounter{Eq: 1}, state.Counters[0])
	assert.Equal(t, ColumnOpCounter{}, state.Counters[1])
	assert.Equal(t, ColumnOpCounter{Lt: 1, Gt: 1}, state.Counters[2])
}

func TestNewWhereState_Slots(t *testing.T) {
	tbl := testutil.WideTable(t)
	assert.Len(t, NewWhereState(tbl, true).KeyOps, 3)
	assert.Len(t, NewWhereState(tbl, false).KeyOps, 2)
	assert.Len(t, NewWhereState(tbl, false).Counters, 5)
}

// keyTable builds a table with numHash hash columns h0.., numRange range
// columns r0.. and one regular column v.
func keyTable(t *testing.T, numHash, numRange int) *schema.TableDesc {
	t.Helper()
	var specs []schema.ColumnSpec
	for i := 0; i < numHash; i++ {
		specs = append(specs, schema.ColumnSpec{Name: fmt.Sprintf("h%d", i), Type: ir.TypeInt, Hash: true})
	}
	for i := 0; i < numRange; i++ {
		specs = append(specs, schema.ColumnSpec{Name: fmt.Sprintf("r%d", i), Type: ir.TypeInt, Range: true})
	}
	specs = append(specs, schema.ColumnSpec{Name: "v", Type: ir.TypeInt})
	return testutil.MustTable(t, schema.TableName{Keyspace: "app", Name: "k"}, specs)
}

func TestWriteKeyCompleteness_AllShapes(t *testing.T) {
	for numHash := 1; numHash <= 3; numHash++ {
		for numRange := 0; numRange <= 2; numRange++ {
			t.Run(fmt.Sprintf("H%d_R%d", numHash, numRange), func(t *testing.T) {
				a := NewAnalyzer(catalog.NewMemory(keyTable(t, numHash, numRange)))

				// Full key, given in reverse order: slots are still in key order.
				var full []ptree.Expr
				for i := numRange - 1; i >= 0; i-- {
					full = append(full, rel(t, fmt.Sprintf("r%d", i), ptree.OpEqual, i+100))
				}
				for i := numHash - 1; i >= 0; i-- {
					full = append(full, rel(t, fmt.Sprintf("h%d", i), ptree.OpEqual, i))
				}
				stmt := NewUpdate("k", []Assignment{set("v", ir.Int(1))}, and(full...))
				require.NoError(t, a.Analyze(stmt))

				keys := stmt.KeyWhereOps()
				require.Len(t, keys, numHash+numRange)
				for idx, op := range keys {
					assert.Equal(t, idx, op.Desc.Index)
				}
				assert.Empty(t, stmt.WhereOps())

				// Every proper subset of the hash key fails.
				for missing := 0; missing < numHash; missing++ {
					var partial []ptree.Expr
					for i := 0; i < numHash; i++ {
						if i != missing {
							partial = append(partial, rel(t, fmt.Sprintf("h%d", i), ptree.OpEqual, i))
						}
					}
					for i := 0; i < numRange; i++ {
						partial = append(partial, rel(t, fmt.Sprintf("r%d", i), ptree.OpEqual, i))
					}
					var where ptree.Expr
					if len(partial) > 0 {
						where = and(partial...)
					}
					err := a.Analyze(NewUpdate("k", []Assignment{set("v", ir.Int(1))}, where))
					requireCode(t, err, ErrCodeMissingKeyCondition)
				}

				// Missing the last range key fails for a non-static write.
				if numRange > 0 {
					var partial []ptree.Expr
					for i := 0; i < numHash; i++ {
						partial = append(partial, rel(t, fmt.Sprintf("h%d", i), ptree.OpEqual, i))
					}
					for i := 0; i < numRange-1; i++ {
						partial = append(partial, rel(t, fmt.Sprintf("r%d", i), ptree.OpEqual, i))
					}
					err := a.Analyze(NewDelete("k", nil, and(partial...)))
					requireCode(t, err, ErrCodeMissingKeyCondition)
				}
			})
		}
	}
}

func TestReadIncompleteHash_DemotesToFilters(t *testing.T) {
	a := NewAnalyzer(catalog.NewMemory(keyTable(t, 3, 1)))

	stmt := NewSelect("k", nil, and(
		rel(t, "r0", ptree.OpGreaterThan, 5),
		rel(t, "h2", ptree.OpEqual, 2),
		rel(t, "h0", ptree.OpEqual, 0),
	))
	require.NoError(t, a.Analyze(stmt))

	assert.Empty(t, stmt.KeyWhereOps())
	// Hash ops are pushed to the front from the highest key index down,
	// which leaves them in ascending key order ahead of the range filter.
	assert.Equal(t, []string{"h0 = 0", "h2 = 2", "r0 > 5"}, opStrings(stmt.WhereOps()))
}

func TestReadCompleteHash_KeepsKey(t *testing.T) {
	a := NewAnalyzer(catalog.NewMemory(keyTable(t, 2, 1)))

	stmt := NewSelect("k", nil, and(
		rel(t, "h1", ptree.OpEqual, 1),
		rel(t, "r0", ptree.OpEqual, 3),
		rel(t, "h0", ptree.OpEqual, 0),
	))
	require.NoError(t, a.Analyze(stmt))

	assert.Equal(t, []string{"h0 = 0", "h1 = 1"}, opStrings(stmt.KeyWhereOps()))
	assert.Equal(t, []string{"r0 = 3"}, opStrings(stmt.WhereOps()))
}

func TestWhereWalker_Rejections(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name  string
		where ptree.Expr
		code  ErrorCode
	}{
		{
			name:  "or",
			where: &ptree.Logical{Op: ptree.Or, Operands: []ptree.Expr{rel(t, "h1", ptree.OpEqual, 1), rel(t, "h1", ptree.OpEqual, 2)}},
			code:  ErrCodeUnsupportedOperator,
		},
		{
			name:  "not",
			where: &ptree.Logical{Op: ptree.Not, Operands: []ptree.Expr{rel(t, "h1", ptree.OpEqual, 1)}},
			code:  ErrCodeUnsupportedOperator,
		},
		{
			name:  "bare constant",
			where: &ptree.Const{Value: ir.Bool(true)},
			code:  ErrCodeUnsupportedOperator,
		},
		{
			name:  "undefined column",
			where: and(rel(t, "h1", ptree.OpEqual, 1), rel(t, "nope", ptree.OpEqual, 1)),
			code:  ErrCodeUndefinedColumn,
		},
		{
			name:  "wrong constant type",
			where: rel(t, "h1", ptree.OpEqual, "one"),
			code:  ErrCodeDatatypeMismatch,
		},
		{
			name:  "column as value",
			where: &ptree.Relation{Column: "h1", Op: ptree.OpEqual, Value: &ptree.ColumnRef{Name: "r1"}},
			code:  ErrCodeInvalidColumnUsage,
		},
		{
			name:  "in with scalar",
			where: rel(t, "h1", ptree.OpIn, 1),
			code:  ErrCodeDatatypeMismatch,
		},
		{
			name:  "in with list",
			where: rel(t, "h1", ptree.OpIn, []any{1, 2}),
			code:  ErrCodeUnsupportedOperator,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Analyze(NewSelect("t", nil, tt.where))
			requireCode(t, err, tt.code)
		})
	}
}

func TestWhere_NestedConjunctions(t *testing.T) {
	a := newTestAnalyzer(t)
	stmt := NewSelect("t", nil, and(
		and(rel(t, "h1", ptree.OpEqual, 1), rel(t, "h2", ptree.OpEqual, "x")),
		and(rel(t, "r1", ptree.OpGreaterThan, 0)),
	))
	require.NoError(t, a.Analyze(stmt))
	assert.Equal(t, []string{"h1 = 1", "h2 = 'x'"}, opStrings(stmt.KeyWhereOps()))
	assert.Equal(t, []string{"r1 > 0"}, opStrings(stmt.WhereOps()))
}
