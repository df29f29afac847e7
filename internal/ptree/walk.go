package ptree

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlsem/internal/ir"
)

// Format renders e as CQL text. Nested connectives are parenthesized.
func Format(e Expr) string {
	switch node := e.(type) {
	case nil:
		return ""
	case *Relation:
		return fmt.Sprintf("%s %s %s", node.Column, node.Op, Format(node.Value))
	case *Logical:
		if node.Op == Not {
			if len(node.Operands) == 0 {
				return "NOT ()"
			}
			return "NOT " + formatOperand(node.Operands[0])
		}
		parts := make([]string, len(node.Operands))
		for i, operand := range node.Operands {
			parts[i] = formatOperand(operand)
		}
		return strings.Join(parts, " "+node.Op.String()+" ")
	case *Const:
		return ir.Format(node.Value)
	case *BindVar:
		if node.IsPositional() {
			return "?"
		}
		return ":" + node.Name
	case *ColumnRef:
		return node.Name
	default:
		return fmt.Sprintf("%T", e)
	}
}

func formatOperand(e Expr) string {
	if l, ok := e.(*Logical); ok && l.Op != Not && len(l.Operands) > 1 {
		return "(" + Format(e) + ")"
	}
	return Format(e)
}
