package sem

import (
	"slices"

	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/schema"
)

// WhereState is the mutable state of one WHERE-clause analysis.
//
// KeyOps has one slot per key index; Ops collects residual filters.
// Counters is indexed by ColumnDesc.Index.
type WhereState struct {
	WriteOnly bool
	KeyOps    []ColumnOp
	Ops       []ColumnOp
	Counters  []ColumnOpCounter
}

// NewWhereState sizes a fresh state for t. Writes get a slot per key
// column, reads a slot per hash column.
func NewWhereState(t *schema.TableDesc, writeOnly bool) *WhereState {
	keySlots := t.NumHashKeyColumns
	if writeOnly {
		keySlots = t.NumKeyColumns
	}
	return &WhereState{
		WriteOnly: writeOnly,
		KeyOps:    make([]ColumnOp, keySlots),
		Counters:  make([]ColumnOpCounter, len(t.Columns)),
	}
}

// AnalyzeColumnOp classifies one relation on desc and records it.
func (s *WhereState) AnalyzeColumnOp(rel *ptree.Relation, desc *schema.ColumnDesc, value ptree.Expr) error {
	counter := &s.Counters[desc.Index]
	op := ColumnOp{Desc: desc, Op: rel.Op, Value: value, Loc: rel.Loc}

	switch rel.Op {
	case ptree.OpEqual:
		if counter.Eq > 0 || counter.Gt > 0 || counter.Lt > 0 {
			return newError(ErrCodeIllogicalCondition, rel.Loc, "Illogical condition for where clause")
		}
		counter.Eq++

		switch {
		case desc.IsHash:
			s.KeyOps[desc.Index] = op
		case desc.IsPrimary:
			if s.WriteOnly {
				s.KeyOps[desc.Index] = op
			} else {
				s.Ops = append(s.Ops, op)
			}
		default:
			return newError(ErrCodeInvalidColumnUsage, rel.Loc, "Non primary key cannot be used in where clause")
		}

	case ptree.OpLessThan, ptree.OpLessEqual:
		if err := s.checkRange(rel, desc, counter.Lt); err != nil {
			return err
		}
		counter.Lt++
		s.Ops = append(s.Ops, op)

	case ptree.OpGreaterThan, ptree.OpGreaterEqual:
		if err := s.checkRange(rel, desc, counter.Gt); err != nil {
			return err
		}
		counter.Gt++
		s.Ops = append(s.Ops, op)

	default:
		return newError(ErrCodeUnsupportedOperator, rel.Loc, "Operator is not supported in where clause")
	}
	return nil
}

// checkRange validates a range comparison; sameBound is the count of
// comparisons already recorded in the same direction.
func (s *WhereState) checkRange(rel *ptree.Relation, desc *schema.ColumnDesc, sameBound int) error {
	switch {
	case desc.IsHash:
		return newError(ErrCodeInvalidColumnUsage, rel.Loc, "Partition column cannot be used in this expression")
	case !desc.IsPrimary:
		return newError(ErrCodeInvalidColumnUsage, rel.Loc, "Non primary key cannot be used in where clause")
	case s.WriteOnly:
		return newError(ErrCodeUnsupportedRangeWrite, rel.Loc, "Range expression is not yet supported")
	case s.Counters[desc.Index].Eq > 0 || sameBound > 0:
		return newError(ErrCodeIllogicalCondition, rel.Loc, "Illogical range condition")
	}
	return nil
}

// demoteIncompleteHash turns an incomplete read key into a full scan: set
// hash slots are pushed to the front of Ops from the last key index down to
// the first, then KeyOps is cleared.
func (s *WhereState) demoteIncompleteHash(numHash int) {
	incomplete := false
	for idx := 0; idx < numHash; idx++ {
		if !s.KeyOps[idx].IsInitialized() {
			incomplete = true
			break
		}
	}
	if !incomplete {
		return
	}
	for idx := numHash - 1; idx >= 0; idx-- {
		if s.KeyOps[idx].IsInitialized() {
			s.Ops = slices.Insert(s.Ops, 0, s.KeyOps[idx])
		}
	}
	s.KeyOps = s.KeyOps[:0]
}

// whereWalker visits a WHERE tree. Only conjunctions of relations are
// accepted; every relation is resolved against the table and handed to
// the state.
type whereWalker struct {
	table *schema.TableDesc
	state *WhereState
	binds *bindings
}

func (w *whereWalker) walk(e ptree.Expr) error {
	switch node := e.(type) {
	case *ptree.Logical:
		if node.Op != ptree.And {
			return newError(ErrCodeUnsupportedOperator, node.Loc, "%s is not supported in where clause", node.Op)
		}
		for _, operand := range node.Operands {
			if err := w.walk(operand); err != nil {
				return err
			}
		}
		return nil
	case *ptree.Relation:
		desc, ok := w.table.Column(node.Column)
		if !ok {
			return newError(ErrCodeUndefinedColumn, node.Loc, "Undefined column name %s", node.Column)
		}
		if err := checkOperand(node, desc, w.binds); err != nil {
			return err
		}
		return w.state.AnalyzeColumnOp(node, desc, node.Value)
	default:
		return newError(ErrCodeUnsupportedOperator, e.Location(), "Expression is not supported in where clause: %s", ptree.Format(e))
	}
}
