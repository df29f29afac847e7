package ptree

import (
	"strings"

	"github.com/roach88/cqlsem/internal/ir"
)

// Expr is a node of a parsed predicate or value tree.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
	Location() ir.Location
}

// Op is a comparison operator of a Relation.
type Op int

const (
	OpUnknown Op = iota
	OpEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
	OpNotEqual
	OpIn
	OpNotIn
	OpLike
)

var opSymbols = map[Op]string{
	OpEqual:        "=",
	OpLessThan:     "<",
	OpLessEqual:    "<=",
	OpGreaterThan:  ">",
	OpGreaterEqual: ">=",
	OpNotEqual:     "!=",
	OpIn:           "IN",
	OpNotIn:        "NOT IN",
	OpLike:         "LIKE",
}

func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return "?op?"
}

// ParseOp resolves an operator symbol. Keywords are case-insensitive and
// "==" / "<>" are accepted as aliases.
func ParseOp(s string) (Op, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch s {
	case "==":
		return OpEqual, true
	case "<>":
		return OpNotEqual, true
	}
	for op, sym := range opSymbols {
		if sym == s {
			return op, true
		}
	}
	return OpUnknown, false
}

// LogicOp is the connective of a Logical node.
type LogicOp int

const (
	And LogicOp = iota + 1
	Or
	Not
)

func (o LogicOp) String() string {
	switch o {
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	}
	return "?logic?"
}

// Relation is a leaf comparison of a column against a value.
//
//	<column> <op> <value>
//
// Value is a Const or a BindVar. For IN it is a Const holding an ir.List.
type Relation struct {
	Column string
	Op     Op
	Value  Expr
	Loc    ir.Location
}

func (*Relation) exprNode()               {}
func (r *Relation) Location() ir.Location { return r.Loc }

// Logical combines operands with AND, OR or NOT.
// NOT has exactly one operand; AND/OR have one or more.
type Logical struct {
	Op       LogicOp
	Operands []Expr
	Loc      ir.Location
}

func (*Logical) exprNode()               {}
func (l *Logical) Location() ir.Location { return l.Loc }

// Const is a resolved literal value.
type Const struct {
	Value ir.Value
	Loc   ir.Location
}

func (*Const) exprNode()               {}
func (c *Const) Location() ir.Location { return c.Loc }

// BindVar is a bind marker. Name is "?" for positional markers and the
// marker name (without the leading colon) for named ones.
type BindVar struct {
	Name string
	Loc  ir.Location
}

func (*BindVar) exprNode()               {}
func (b *BindVar) Location() ir.Location { return b.Loc }

// IsPositional reports whether the marker is an anonymous "?".
func (b *BindVar) IsPositional() bool {
	return b.Name == "" || b.Name == "?"
}

// ColumnRef references a column as a standalone operand, e.g. a boolean
// column used directly as an IF condition.
type ColumnRef struct {
	Name string
	Loc  ir.Location
}

func (*ColumnRef) exprNode()               {}
func (c *ColumnRef) Location() ir.Location { return c.Loc }

// NewAnd builds a conjunction. A single operand is returned unchanged.
func NewAnd(operands ...Expr) Expr {
	if len(operands) == 1 {
		return operands[0]
	}
	return &Logical{Op: And, Operands: operands}
}

// Rel builds a relation against a constant.
func Rel(column string, op Op, v ir.Value) *Relation {
	return &Relation{Column: column, Op: op, Value: &Const{Value: v}}
}

// RelBind builds a relation against a bind marker.
func RelBind(column string, op Op, name string) *Relation {
	return &Relation{Column: column, Op: op, Value: &BindVar{Name: name}}
}
