package ptree

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqlsem/internal/ir"
)

// Decoder builds trees from YAML nodes, keeping each node's line and column.
//
// Predicate grammar:
//
//	and: [<predicate>, ...]
//	or:  [<predicate>, ...]
//	not: <predicate>
//	{col: h1, op: "<=", value: 3}     # relation against a constant
//	{col: h1, op: "=", bind: "?"}     # relation against a bind marker
//	{col: flag}                       # bare column reference
//	true                              # constant
//
// Value grammar: a scalar, a sequence of scalars (IN lists), or {bind: name}.
type Decoder struct {
	// File is recorded in every Location produced by this decoder.
	File string
}

// DecodeError reports a malformed tree document.
type DecodeError struct {
	Loc     ir.Location
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

func (d Decoder) loc(n *yaml.Node) ir.Location {
	return ir.Location{File: d.File, Line: n.Line, Column: n.Column}
}

func (d Decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return &DecodeError{Loc: d.loc(n), Message: fmt.Sprintf(format, args...)}
}

// DecodePredicate decodes a predicate node. A nil or null node yields nil.
func (d Decoder) DecodePredicate(n *yaml.Node) (Expr, error) {
	n = Unwrap(n)
	if n == nil || isNull(n) {
		return nil, nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return d.decodeScalar(n)
	case yaml.MappingNode:
		fields, err := d.fields(n)
		if err != nil {
			return nil, err
		}
		switch {
		case fields["and"] != nil:
			return d.decodeConnective(n, And, fields["and"])
		case fields["or"] != nil:
			return d.decodeConnective(n, Or, fields["or"])
		case fields["not"] != nil:
			operand, err := d.DecodePredicate(fields["not"])
			if err != nil {
				return nil, err
			}
			return &Logical{Op: Not, Operands: []Expr{operand}, Loc: d.loc(n)}, nil
		case fields["col"] != nil:
			return d.decodeRelation(n, fields)
		}
		return nil, d.errorf(n, "predicate must contain one of and, or, not, col")
	default:
		return nil, d.errorf(n, "unexpected %s node in predicate", kindName(n.Kind))
	}
}

func (d Decoder) decodeConnective(n *yaml.Node, op LogicOp, seq *yaml.Node) (Expr, error) {
	seq = Unwrap(seq)
	if seq.Kind != yaml.SequenceNode {
		return nil, d.errorf(seq, "%s requires a list of predicates", op)
	}
	if len(seq.Content) == 0 {
		return nil, d.errorf(seq, "%s requires at least one predicate", op)
	}
	operands := make([]Expr, 0, len(seq.Content))
	for _, item := range seq.Content {
		operand, err := d.DecodePredicate(item)
		if err != nil {
			return nil, err
		}
		if operand == nil {
			return nil, d.errorf(item, "empty predicate in %s", op)
		}
		operands = append(operands, operand)
	}
	return &Logical{Op: op, Operands: operands, Loc: d.loc(n)}, nil
}

func (d Decoder) decodeRelation(n *yaml.Node, fields map[string]*yaml.Node) (Expr, error) {
	colNode := Unwrap(fields["col"])
	if colNode.Kind != yaml.ScalarNode || colNode.Value == "" {
		return nil, d.errorf(colNode, "col must be a column name")
	}

	opNode, hasOp := fields["op"]
	valNode, hasValue := fields["value"]
	bindNode, hasBind := fields["bind"]

	if !hasOp && !hasValue && !hasBind {
		return &ColumnRef{Name: colNode.Value, Loc: d.loc(n)}, nil
	}
	if hasValue && hasBind {
		return nil, d.errorf(n, "relation on %q has both value and bind", colNode.Value)
	}

	op := OpEqual
	if hasOp {
		opNode = Unwrap(opNode)
		parsed, ok := ParseOp(opNode.Value)
		if !ok {
			return nil, d.errorf(opNode, "unknown operator %q", opNode.Value)
		}
		op = parsed
	}

	rel := &Relation{Column: colNode.Value, Op: op, Loc: d.loc(n)}
	switch {
	case hasBind:
		bindNode = Unwrap(bindNode)
		rel.Value = &BindVar{Name: bindNode.Value, Loc: d.loc(bindNode)}
	case hasValue:
		v, err := d.DecodeValue(valNode)
		if err != nil {
			return nil, err
		}
		rel.Value = v
	default:
		return nil, d.errorf(n, "relation on %q requires value or bind", colNode.Value)
	}
	return rel, nil
}

// DecodeValue decodes a value node into a Const or BindVar.
func (d Decoder) DecodeValue(n *yaml.Node) (Expr, error) {
	n = Unwrap(n)
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.decodeScalar(n)
	case yaml.SequenceNode:
		var raw []any
		if err := n.Decode(&raw); err != nil {
			return nil, d.errorf(n, "decode list: %v", err)
		}
		v, err := ir.FromAny(raw)
		if err != nil {
			return nil, d.errorf(n, "%v", err)
		}
		return &Const{Value: v, Loc: d.loc(n)}, nil
	case yaml.MappingNode:
		fields, err := d.fields(n)
		if err != nil {
			return nil, err
		}
		bind, ok := fields["bind"]
		if !ok || len(fields) != 1 {
			return nil, d.errorf(n, "value mapping must be {bind: name}")
		}
		bind = Unwrap(bind)
		return &BindVar{Name: bind.Value, Loc: d.loc(n)}, nil
	default:
		return nil, d.errorf(n, "unexpected %s node in value", kindName(n.Kind))
	}
}

func (d Decoder) decodeScalar(n *yaml.Node) (Expr, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, d.errorf(n, "decode scalar: %v", err)
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, d.errorf(n, "%v", err)
	}
	return &Const{Value: v, Loc: d.loc(n)}, nil
}

// fields indexes a mapping node by key, rejecting duplicate keys.
func (d Decoder) fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if _, dup := out[key.Value]; dup {
			return nil, d.errorf(key, "duplicate key %q", key.Value)
		}
		out[key.Value] = n.Content[i+1]
	}
	return out, nil
}

// Unwrap follows document and alias nodes to the content they stand for.
// An empty document yields nil.
func Unwrap(n *yaml.Node) *yaml.Node {
	for n != nil && (n.Kind == yaml.DocumentNode || n.Kind == yaml.AliasNode) {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
			continue
		}
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
