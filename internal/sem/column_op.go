package sem

import (
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/schema"
)

// ColumnOp is a classified WHERE relation. Desc points into the table
// descriptor; Value is shared with the predicate tree.
type ColumnOp struct {
	Desc  *schema.ColumnDesc
	Op    ptree.Op
	Value ptree.Expr
	Loc   ir.Location
}

// IsInitialized reports whether a key slot has been filled.
func (c ColumnOp) IsInitialized() bool {
	return c.Desc != nil
}

func (c ColumnOp) String() string {
	if c.Desc == nil {
		return "<unset>"
	}
	return c.Desc.Name + " " + c.Op.String() + " " + ptree.Format(c.Value)
}

// ColumnOpCounter counts the relations seen for one column.
type ColumnOpCounter struct {
	Eq int
	Lt int
	Gt int
}

// ColumnArg is a value assigned to a column by INSERT or UPDATE, or a
// column targeted by DELETE (Value is nil).
type ColumnArg struct {
	Desc  *schema.ColumnDesc
	Value ptree.Expr
	Loc   ir.Location
}

// IsInitialized reports whether the column is assigned.
func (c ColumnArg) IsInitialized() bool {
	return c.Desc != nil
}

// BindVariable is a bind marker resolved during analysis.
//
// Column is the column the marker is compared with or assigned to. It is
// nil for markers that do not target a column, such as a TTL.
type BindVariable struct {
	Name   string
	Loc    ir.Location
	Type   ir.DataType
	Column *schema.ColumnDesc
}

// IsBound reports whether the marker has been resolved to a type.
func (b *BindVariable) IsBound() bool {
	return b.Type != ir.TypeUnknown
}

// Reset clears the resolution.
func (b *BindVariable) Reset() {
	b.Type = ir.TypeUnknown
	b.Column = nil
}
