// Package plan turns an analyzed statement into an access plan: how the
// statement reaches its rows, which conditions address the key and which
// remain as filters.
//
// A plan is a pure function of the analysis results. Plans render as text,
// as RFC 8785 canonical JSON, and as a parameterized WHERE string, and have
// a content fingerprint.
package plan

import (
	"errors"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/schema"
	"github.com/roach88/cqlsem/internal/sem"
)

// Kind classifies how a statement reaches its rows.
type Kind string

const (
	// KindPoint is a write addressing one row through its full primary key.
	KindPoint Kind = "point"

	// KindStatic is a write of static columns addressed by the hash key only.
	KindStatic Kind = "static"

	// KindPartition is a read with a complete hash key.
	KindPartition Kind = "partition"

	// KindFullScan is a read without a complete hash key.
	KindFullScan Kind = "full_scan"
)

// ErrNotAnalyzed is returned by Build for a statement whose analysis has
// not run.
var ErrNotAnalyzed = errors.New("plan: statement has not been analyzed")

// Condition is one classified relation.
type Condition struct {
	Column string
	Role   string
	Op     ptree.Op
	Value  ptree.Expr
}

func (c Condition) String() string {
	return c.Column + " " + c.Op.String() + " " + ptree.Format(c.Value)
}

// Bind is a resolved bind marker.
type Bind struct {
	Name   string
	Type   ir.DataType
	Column string
}

// Plan is the access plan of one statement.
type Plan struct {
	Stmt    sem.StmtKind
	Table   schema.TableName
	Kind    Kind
	Key     []Condition
	Filter  []Condition
	Columns []string
	Binds   []Bind
	If      ptree.Expr
	TTL     ptree.Expr

	// StaticOnly reports whether the write assigns only static columns
	// outside the hash key.
	StaticOnly bool
}

// Build derives the plan of s. s must have been analyzed successfully.
func Build(s *sem.DmlStmt) (*Plan, error) {
	t := s.Table()
	if t == nil || len(s.Counters()) == 0 {
		return nil, ErrNotAnalyzed
	}

	p := &Plan{
		Stmt:   s.Kind(),
		Table:  s.TableName(),
		Key:    conditions(s.KeyWhereOps()),
		Filter: conditions(s.WhereOps()),
		If:     s.If(),
		TTL:    s.TTL(),

		StaticOnly: s.StaticColumnArgsOnly(),
	}

	if s.Kind() == sem.KindSelect {
		for _, c := range s.SelectedColumns() {
			p.Columns = append(p.Columns, c.Name)
		}
	} else {
		for _, arg := range s.ColumnArgs() {
			if arg.IsInitialized() {
				p.Columns = append(p.Columns, arg.Desc.Name)
			}
		}
	}

	for _, bv := range s.BindVariables() {
		b := Bind{Name: bv.Name, Type: bv.Type}
		if bv.Column != nil {
			b.Column = bv.Column.Name
		}
		p.Binds = append(p.Binds, b)
	}

	p.Kind = classify(s, t, len(p.Key))
	return p, nil
}

func classify(s *sem.DmlStmt, t *schema.TableDesc, keyLen int) Kind {
	if s.WriteOnly() {
		if s.StaticColumnArgsOnly() && t.NumRangeKeyColumns() > 0 && keyLen == t.NumHashKeyColumns {
			return KindStatic
		}
		return KindPoint
	}
	if keyLen > 0 {
		return KindPartition
	}
	return KindFullScan
}

func conditions(ops []sem.ColumnOp) []Condition {
	if len(ops) == 0 {
		return nil
	}
	out := make([]Condition, len(ops))
	for i, op := range ops {
		out[i] = Condition{
			Column: op.Desc.Name,
			Role:   op.Desc.Role(),
			Op:     op.Op,
			Value:  op.Value,
		}
	}
	return out
}
