package sem

import (
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
)

// StmtKind identifies the DML statement form.
type StmtKind int

const (
	KindSelect StmtKind = iota + 1
	KindInsert
	KindUpdate
	KindDelete
)

func (k StmtKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	}
	return "unknown"
}

// ParseStmtKind resolves a statement kind name.
func ParseStmtKind(s string) (StmtKind, bool) {
	for _, k := range []StmtKind{KindSelect, KindInsert, KindUpdate, KindDelete} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// IsWrite reports whether statements of this kind modify data.
func (k StmtKind) IsWrite() bool {
	return k == KindInsert || k == KindUpdate || k == KindDelete
}

// Assignment is one `column = value` of an UPDATE SET list.
type Assignment struct {
	Column string
	Value  ptree.Expr
	Loc    ir.Location
}

// Option configures a statement.
type Option func(*DmlStmt)

// WithTTL sets the USING TTL expression.
func WithTTL(ttl ptree.Expr) Option {
	return func(s *DmlStmt) { s.ttl = ttl }
}

// WithIf sets the IF condition.
func WithIf(cond ptree.Expr) Option {
	return func(s *DmlStmt) { s.ifClause = cond }
}

// WithLoc sets the statement location, used for errors that have no
// narrower node to point at.
func WithLoc(loc ir.Location) Option {
	return func(s *DmlStmt) { s.loc = loc }
}

func newStmt(kind StmtKind, table string, opts []Option) *DmlStmt {
	s := &DmlStmt{kind: kind, tableName: table, binds: &bindings{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSelect builds a read. An empty column list, or "*", selects every
// column. A nil where scans the whole table.
func NewSelect(table string, columns []string, where ptree.Expr, opts ...Option) *DmlStmt {
	s := newStmt(KindSelect, table, opts)
	s.columns = columns
	s.where = where
	return s
}

// NewInsert builds an insert of values into columns. Key columns among
// them act as equality conditions on the key.
func NewInsert(table string, columns []string, values []ptree.Expr, opts ...Option) *DmlStmt {
	s := newStmt(KindInsert, table, opts)
	s.columns = columns
	s.values = values
	return s
}

// NewUpdate builds an update of the assigned columns in the rows selected
// by where.
func NewUpdate(table string, assignments []Assignment, where ptree.Expr, opts ...Option) *DmlStmt {
	s := newStmt(KindUpdate, table, opts)
	s.assignments = assignments
	s.where = where
	return s
}

// NewDelete builds a delete. With no columns whole rows are deleted,
// otherwise only the named columns.
func NewDelete(table string, columns []string, where ptree.Expr, opts ...Option) *DmlStmt {
	s := newStmt(KindDelete, table, opts)
	s.columns = columns
	s.where = where
	return s
}
