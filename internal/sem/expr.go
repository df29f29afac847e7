package sem

import (
	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/schema"
)

// bindings collects the bind markers resolved during one analysis.
// A nil *bindings resolves nothing.
type bindings struct {
	vars []*BindVariable
}

func (b *bindings) bind(bv *ptree.BindVar, col *schema.ColumnDesc, typ ir.DataType) {
	if b == nil {
		return
	}
	b.vars = append(b.vars, &BindVariable{Name: bv.Name, Loc: bv.Loc, Type: typ, Column: col})
}

// checkOperand type-checks the value side of a relation on desc and binds
// any marker to the column.
func checkOperand(rel *ptree.Relation, desc *schema.ColumnDesc, binds *bindings) error {
	switch v := rel.Value.(type) {
	case *ptree.Const:
		if rel.Op == ptree.OpIn || rel.Op == ptree.OpNotIn {
			list, ok := v.Value.(ir.List)
			if !ok {
				return newError(ErrCodeDatatypeMismatch, v.Loc, "%s requires a list of values", rel.Op)
			}
			for _, elem := range list {
				if err := checkConstant(elem, desc, v.Loc); err != nil {
					return err
				}
			}
			return nil
		}
		return checkConstant(v.Value, desc, v.Loc)
	case *ptree.BindVar:
		binds.bind(v, desc, desc.Type)
		return nil
	case *ptree.ColumnRef:
		return newError(ErrCodeInvalidColumnUsage, v.Loc, "Column %s cannot be used as a value", v.Name)
	case nil:
		return newError(ErrCodeDatatypeMismatch, rel.Loc, "Missing value for column %s", desc.Name)
	default:
		return newError(ErrCodeDatatypeMismatch, rel.Value.Location(), "Invalid value for column %s: %s", desc.Name, ptree.Format(rel.Value))
	}
}

func checkConstant(v ir.Value, desc *schema.ColumnDesc, loc ir.Location) error {
	if _, isList := v.(ir.List); isList {
		return newError(ErrCodeDatatypeMismatch, loc, "Invalid datatype for column %s: unexpected list", desc.Name)
	}
	if t := ir.DataTypeOf(v); !t.ConvertibleTo(desc.Type) {
		return newError(ErrCodeDatatypeMismatch, loc, "Invalid datatype for column %s: %s is not convertible to %s", desc.Name, t, desc.Type)
	}
	return nil
}

// AnalyzeExpr checks a general expression against t and returns its type.
// The result must be convertible to expected.
//
// Relations and connectives are boolean, constants carry their own type,
// column references take the column's type and a bare bind marker takes
// expected.
func AnalyzeExpr(e ptree.Expr, t *schema.TableDesc, expected ir.DataType) (ir.DataType, error) {
	return analyzeExpr(e, t, expected, nil)
}

func analyzeExpr(e ptree.Expr, t *schema.TableDesc, expected ir.DataType, binds *bindings) (ir.DataType, error) {
	typ, err := exprType(e, t, expected, binds)
	if err != nil {
		return ir.TypeUnknown, err
	}
	if typ == ir.TypeUnknown || !typ.ConvertibleTo(expected) {
		return ir.TypeUnknown, newError(ErrCodeDatatypeMismatch, e.Location(),
			"Expected %s expression, got %s: %s", expected, typ, ptree.Format(e))
	}
	return typ, nil
}

func exprType(e ptree.Expr, t *schema.TableDesc, expected ir.DataType, binds *bindings) (ir.DataType, error) {
	switch node := e.(type) {
	case *ptree.Relation:
		desc, ok := t.Column(node.Column)
		if !ok {
			return ir.TypeUnknown, newError(ErrCodeUndefinedColumn, node.Loc, "Undefined column name %s", node.Column)
		}
		if err := checkOperand(node, desc, binds); err != nil {
			return ir.TypeUnknown, err
		}
		return ir.TypeBool, nil
	case *ptree.Logical:
		for _, operand := range node.Operands {
			if _, err := analyzeExpr(operand, t, ir.TypeBool, binds); err != nil {
				return ir.TypeUnknown, err
			}
		}
		return ir.TypeBool, nil
	case *ptree.Const:
		return ir.DataTypeOf(node.Value), nil
	case *ptree.ColumnRef:
		desc, ok := t.Column(node.Name)
		if !ok {
			return ir.TypeUnknown, newError(ErrCodeUndefinedColumn, node.Loc, "Undefined column name %s", node.Name)
		}
		return desc.Type, nil
	case *ptree.BindVar:
		binds.bind(node, nil, expected)
		return expected, nil
	default:
		return ir.TypeUnknown, newError(ErrCodeDatatypeMismatch, ir.Location{}, "unexpected expression %T", e)
	}
}
