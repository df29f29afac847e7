package sem

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/cqlsem/internal/catalog"
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/schema"
)

// errTableNotResolved is returned when clause analysis runs before
// LookupTable.
var errTableNotResolved = errors.New("sem: table not resolved, call LookupTable first")

// DmlStmt is a DML statement together with the results of its analysis.
//
// The resolved table survives Reset, so a prepared statement can be
// re-analyzed without another catalog lookup.
type DmlStmt struct {
	kind        StmtKind
	tableName   string
	loc         ir.Location
	columns     []string
	values      []ptree.Expr
	assignments []Assignment
	where       ptree.Expr
	ifClause    ptree.Expr
	ttl         ptree.Expr

	name     schema.TableName
	table    *schema.TableDesc
	isSystem bool

	keyOps     []ColumnOp
	ops        []ColumnOp
	counters   []ColumnOpCounter
	columnArgs []ColumnArg
	selected   []*schema.ColumnDesc
	binds      *bindings
}

// Kind returns the statement form.
func (s *DmlStmt) Kind() StmtKind { return s.kind }

// WriteOnly reports whether the statement is a write.
func (s *DmlStmt) WriteOnly() bool { return s.kind.IsWrite() }

// Loc returns the statement location.
func (s *DmlStmt) Loc() ir.Location { return s.loc }

// Where returns the WHERE clause as given.
func (s *DmlStmt) Where() ptree.Expr { return s.where }

// If returns the IF condition as given.
func (s *DmlStmt) If() ptree.Expr { return s.ifClause }

// TTL returns the USING TTL expression as given.
func (s *DmlStmt) TTL() ptree.Expr { return s.ttl }

// TableName returns the resolved table name. It is zero before LookupTable.
func (s *DmlStmt) TableName() schema.TableName { return s.name }

// Table returns the resolved table, or nil before LookupTable.
func (s *DmlStmt) Table() *schema.TableDesc { return s.table }

// IsSystem reports whether the table lives in a system keyspace.
func (s *DmlStmt) IsSystem() bool { return s.isSystem }

// KeyWhereOps returns the key slots. After a successful analysis every
// slot is set; an empty list on a read means a full scan.
func (s *DmlStmt) KeyWhereOps() []ColumnOp { return slices.Clone(s.keyOps) }

// WhereOps returns the residual filters.
func (s *DmlStmt) WhereOps() []ColumnOp { return slices.Clone(s.ops) }

// Counters returns the per-column relation counts, indexed by column index.
func (s *DmlStmt) Counters() []ColumnOpCounter { return slices.Clone(s.counters) }

// ColumnArgs returns the assigned columns, indexed by column index. It is
// nil when the statement assigns nothing.
func (s *DmlStmt) ColumnArgs() []ColumnArg { return slices.Clone(s.columnArgs) }

// SelectedColumns returns the projection of a read.
func (s *DmlStmt) SelectedColumns() []*schema.ColumnDesc { return slices.Clone(s.selected) }

// BindVariables returns the bind markers resolved by the last analysis, in
// the order they were analyzed: assignments, WHERE, IF, then TTL.
func (s *DmlStmt) BindVariables() []*BindVariable {
	if s.binds == nil {
		return nil
	}
	return slices.Clone(s.binds.vars)
}

// Reset discards analysis results and unbinds bind markers. The resolved
// table is kept.
func (s *DmlStmt) Reset() {
	if s.binds != nil {
		for _, bv := range s.binds.vars {
			bv.Reset()
		}
	}
	s.binds = &bindings{}
	s.keyOps = nil
	s.ops = nil
	s.counters = nil
	s.columnArgs = nil
	s.selected = nil
}

// LookupTable resolves the statement's table through a's catalog.
// A name without keyspace uses a's default keyspace.
func (s *DmlStmt) LookupTable(a *Analyzer) error {
	name, err := schema.ParseTableName(s.tableName, a.keyspace)
	if err != nil {
		return newError(ErrCodeTableNotFound, s.loc, "%v", err)
	}

	s.isSystem = name.IsSystem()
	if s.isSystem && s.WriteOnly() && a.systemReadOnly {
		return newError(ErrCodeSystemNamespaceReadOnly, s.loc, "%s is read-only", name.Keyspace)
	}

	a.logger.Debug().Str("table", name.String()).Msg("loading table descriptor")
	t, err := a.catalog.LookupTable(name)
	if errors.Is(err, catalog.ErrNotFound) {
		return newError(ErrCodeTableNotFound, s.loc, "Table %s not found", name)
	}
	if err != nil {
		return fmt.Errorf("lookup table %s: %w", name, err)
	}

	s.name = name
	s.table = t
	return nil
}

// AnalyzeWhereClause classifies the relations of where and checks key
// completeness. A write without a WHERE clause fails; a read without one
// is a full scan.
func (s *DmlStmt) AnalyzeWhereClause(where ptree.Expr) error {
	return s.analyzeWhere(where, s.binds)
}

func (s *DmlStmt) analyzeWhere(where ptree.Expr, binds *bindings) error {
	if s.table == nil {
		return errTableNotResolved
	}

	if where == nil {
		if s.WriteOnly() {
			return newError(ErrCodeMissingKeyCondition, s.loc, "Missing partition key")
		}
		s.keyOps = nil
		s.ops = nil
		s.counters = make([]ColumnOpCounter, len(s.table.Columns))
		return nil
	}

	state := NewWhereState(s.table, s.WriteOnly())
	w := &whereWalker{table: s.table, state: state, binds: binds}
	if err := w.walk(where); err != nil {
		return err
	}
	if err := s.finalizeWhere(state, where.Location()); err != nil {
		return err
	}

	s.keyOps = state.KeyOps
	s.ops = state.Ops
	s.counters = state.Counters
	return nil
}

// finalizeWhere applies the key completeness rules once the whole clause
// has been classified.
func (s *DmlStmt) finalizeWhere(state *WhereState, loc ir.Location) error {
	numHash := s.table.NumHashKeyColumns
	numKey := s.table.NumKeyColumns

	if !s.WriteOnly() {
		state.demoteIncompleteHash(numHash)
		return nil
	}

	for idx := 0; idx < numHash; idx++ {
		if state.Counters[idx].Eq == 0 {
			return newError(ErrCodeMissingKeyCondition, loc, s.missingKeyMessage())
		}
	}

	rangeKeys := 0
	for idx := numHash; idx < numKey; idx++ {
		if state.Counters[idx].Eq != 0 {
			rangeKeys++
		}
	}

	numRange := numKey - numHash
	if s.StaticColumnArgsOnly() {
		if rangeKeys != numRange && rangeKeys != 0 {
			return newError(ErrCodeMissingKeyCondition, loc, s.missingKeyMessage())
		}
		if rangeKeys == 0 {
			state.KeyOps = state.KeyOps[:numHash]
		}
	} else if rangeKeys != numRange {
		return newError(ErrCodeMissingKeyCondition, loc, s.missingKeyMessage())
	}
	return nil
}

// missingKeyMessage describes an incomplete primary key. An INSERT has no
// WHERE clause of its own; its key comes from the value list.
func (s *DmlStmt) missingKeyMessage() string {
	if s.kind == KindInsert {
		return "Missing values for key columns"
	}
	return "Missing condition on key columns in WHERE clause"
}

// AnalyzeIfClause type-checks the IF condition as a boolean expression.
func (s *DmlStmt) AnalyzeIfClause(cond ptree.Expr) error {
	if cond == nil {
		return nil
	}
	if s.table == nil {
		return errTableNotResolved
	}
	_, err := analyzeExpr(cond, s.table, ir.TypeBool, s.binds)
	return err
}

// AnalyzeUsingClause checks the TTL bound.
func (s *DmlStmt) AnalyzeUsingClause() error {
	if s.ttl == nil {
		return nil
	}
	return checkTTL(s.ttl, s.binds)
}

// StaticColumnArgsOnly reports whether the statement assigns static columns
// and nothing else outside the hash key.
func (s *DmlStmt) StaticColumnArgsOnly() bool {
	if len(s.columnArgs) == 0 || s.table == nil || !s.table.HasStaticColumns() {
		return false
	}
	numHash := s.table.NumHashKeyColumns
	numKey := s.table.NumKeyColumns

	for idx := numHash; idx < numKey; idx++ {
		if s.columnArgs[idx].IsInitialized() {
			return false
		}
	}

	writeStatic := false
	for idx := numKey; idx < len(s.columnArgs); idx++ {
		arg := s.columnArgs[idx]
		if !arg.IsInitialized() {
			continue
		}
		if arg.Desc.IsRegular() {
			return false
		}
		writeStatic = true
	}
	return writeStatic
}

// analyzeColumnArgs resolves the projection of a read or the assigned
// columns of a write.
func (s *DmlStmt) analyzeColumnArgs() error {
	switch s.kind {
	case KindSelect:
		return s.analyzeProjection()
	case KindInsert:
		if len(s.columns) != len(s.values) {
			return newError(ErrCodeDatatypeMismatch, s.loc,
				"Number of columns (%d) does not match number of values (%d)", len(s.columns), len(s.values))
		}
		for i, name := range s.columns {
			if err := s.assign(name, s.values[i], exprLoc(s.values[i], s.loc), false); err != nil {
				return err
			}
		}
	case KindUpdate:
		for _, a := range s.assignments {
			loc := a.Loc
			if !loc.IsValid() {
				loc = exprLoc(a.Value, s.loc)
			}
			if err := s.assign(a.Column, a.Value, loc, true); err != nil {
				return err
			}
		}
	case KindDelete:
		for _, name := range s.columns {
			if err := s.assign(name, nil, s.loc, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *DmlStmt) analyzeProjection() error {
	if len(s.columns) == 0 || (len(s.columns) == 1 && s.columns[0] == "*") {
		s.selected = make([]*schema.ColumnDesc, len(s.table.Columns))
		for i := range s.table.Columns {
			s.selected[i] = &s.table.Columns[i]
		}
		return nil
	}
	for _, name := range s.columns {
		desc, ok := s.table.Column(name)
		if !ok {
			return newError(ErrCodeUndefinedColumn, s.loc, "Undefined column name %s", name)
		}
		s.selected = append(s.selected, desc)
	}
	return nil
}

// assign records a column argument. keysForbidden rejects key columns,
// which UPDATE and DELETE address through WHERE instead.
func (s *DmlStmt) assign(name string, value ptree.Expr, loc ir.Location, keysForbidden bool) error {
	desc, ok := s.table.Column(name)
	if !ok {
		return newError(ErrCodeUndefinedColumn, loc, "Undefined column name %s", name)
	}
	if keysForbidden && desc.IsPrimary {
		return newError(ErrCodeInvalidColumnUsage, loc, "Primary key column %s cannot be %s", name, verbFor(s.kind))
	}
	if s.columnArgs == nil {
		s.columnArgs = make([]ColumnArg, len(s.table.Columns))
	}
	if s.columnArgs[desc.Index].IsInitialized() {
		return newError(ErrCodeInvalidColumnUsage, loc, "Multiple definitions found for column %s", name)
	}

	if s.kind != KindDelete {
		if err := s.checkAssignedValue(desc, value, loc); err != nil {
			return err
		}
	}
	s.columnArgs[desc.Index] = ColumnArg{Desc: desc, Value: value, Loc: loc}
	return nil
}

func (s *DmlStmt) checkAssignedValue(desc *schema.ColumnDesc, value ptree.Expr, loc ir.Location) error {
	switch v := value.(type) {
	case *ptree.Const:
		if _, isNull := v.Value.(ir.Null); isNull && desc.IsPrimary {
			return newError(ErrCodeDatatypeMismatch, loc, "Invalid null value for primary key column %s", desc.Name)
		}
		return checkConstant(v.Value, desc, loc)
	case *ptree.BindVar:
		s.binds.bind(v, desc, desc.Type)
		return nil
	case nil:
		return newError(ErrCodeDatatypeMismatch, loc, "Missing value for column %s", desc.Name)
	default:
		return newError(ErrCodeDatatypeMismatch, loc, "Invalid value for column %s: %s", desc.Name, ptree.Format(value))
	}
}

// insertKeyRelations turns the key columns of an INSERT into the
// equality conditions they imply. It returns nil when no key column is
// assigned.
func (s *DmlStmt) insertKeyRelations() ptree.Expr {
	var rels []ptree.Expr
	for idx := 0; idx < s.table.NumKeyColumns && idx < len(s.columnArgs); idx++ {
		arg := s.columnArgs[idx]
		if !arg.IsInitialized() {
			continue
		}
		rels = append(rels, &ptree.Relation{Column: arg.Desc.Name, Op: ptree.OpEqual, Value: arg.Value, Loc: arg.Loc})
	}
	if len(rels) == 0 {
		return nil
	}
	return &ptree.Logical{Op: ptree.And, Operands: rels, Loc: s.loc}
}

func verbFor(k StmtKind) string {
	if k == KindDelete {
		return "deleted"
	}
	return "updated"
}

func exprLoc(e ptree.Expr, fallback ir.Location) ir.Location {
	if e == nil {
		return fallback
	}
	if loc := e.Location(); loc.IsValid() {
		return loc
	}
	return fallback
}
