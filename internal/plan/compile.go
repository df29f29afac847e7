package plan

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
)

// Marker stands in for a bind marker in compiled parameters. The caller
// substitutes the bound value before execution.
type Marker struct {
	Name string
}

// CompileWhere renders the conditions of p as a parameterized conjunction,
// key conditions first.
//
// Values are never interpolated: every constant becomes a "?" placeholder
// and is returned in params, in placeholder order. IN lists expand to one
// placeholder per element. A plan without conditions compiles to "".
func CompileWhere(p *Plan) (string, []any, error) {
	var parts []string
	var params []any

	for _, group := range [][]Condition{p.Key, p.Filter} {
		for _, c := range group {
			sql, ps, err := compileCondition(c)
			if err != nil {
				return "", nil, fmt.Errorf("compile %s: %w", c.Column, err)
			}
			parts = append(parts, sql)
			params = append(params, ps...)
		}
	}
	return strings.Join(parts, " AND "), params, nil
}

func compileCondition(c Condition) (string, []any, error) {
	switch v := c.Value.(type) {
	case *ptree.Const:
		if c.Op == ptree.OpIn || c.Op == ptree.OpNotIn {
			return compileList(c, v.Value)
		}
		param, err := valueToParam(v.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", c.Column, c.Op), []any{param}, nil
	case *ptree.BindVar:
		return fmt.Sprintf("%s %s ?", c.Column, c.Op), []any{Marker{Name: v.Name}}, nil
	default:
		return "", nil, fmt.Errorf("unsupported value %T", c.Value)
	}
}

func compileList(c Condition, v ir.Value) (string, []any, error) {
	list, ok := v.(ir.List)
	if !ok {
		return "", nil, fmt.Errorf("%s requires a list, got %T", c.Op, v)
	}
	holders := make([]string, len(list))
	params := make([]any, len(list))
	for i, elem := range list {
		param, err := valueToParam(elem)
		if err != nil {
			return "", nil, fmt.Errorf("[%d]: %w", i, err)
		}
		holders[i] = "?"
		params[i] = param
	}
	return fmt.Sprintf("%s %s (%s)", c.Column, c.Op, strings.Join(holders, ", ")), params, nil
}

// valueToParam converts an ir.Value to a Go native parameter.
func valueToParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Bool:
		return bool(val), nil
	case ir.Null:
		return nil, nil
	case ir.List:
		return nil, fmt.Errorf("list cannot be used as a parameter directly")
	case ir.Object:
		return nil, fmt.Errorf("object cannot be used as a parameter")
	default:
		return nil, fmt.Errorf("unsupported value type for parameter: %T", v)
	}
}
