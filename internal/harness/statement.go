package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
	"github.com/roach88/cqlsem/internal/sem"
)

// statementKeys lists the keys accepted in a statement mapping.
var statementKeys = map[string]bool{
	"select": true, "insert": true, "update": true, "delete": true,
	"columns": true, "values": true, "set": true,
	"where": true, "if": true, "ttl": true,
}

// DecodeStatement builds a statement from a YAML mapping:
//
//	select: t                      # or insert / update / delete
//	columns: [v]                   # select projection, delete targets
//	values: {h1: 1, h2: x}         # insert, in column order
//	set: {v: {bind: val}}          # update assignments
//	where: {and: [...]}            # predicate grammar of ptree.Decoder
//	if: {col: flag}
//	ttl: 60
//
// Locations of every node are recorded against file.
func DecodeStatement(n *yaml.Node, file string) (*sem.DmlStmt, error) {
	d := ptree.Decoder{File: file}
	loc := func(n *yaml.Node) ir.Location {
		return ir.Location{File: file, Line: n.Line, Column: n.Column}
	}
	errorf := func(n *yaml.Node, format string, args ...any) error {
		return &ptree.DecodeError{Loc: loc(n), Message: fmt.Sprintf(format, args...)}
	}

	n = ptree.Unwrap(n)
	if n == nil || n.Kind != yaml.MappingNode {
		if n == nil {
			return nil, errors.New("empty statement")
		}
		return nil, errorf(n, "statement must be a mapping")
	}

	fields := make(map[string]*yaml.Node)
	var kind sem.StmtKind
	var table string
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if !statementKeys[key.Value] {
			return nil, errorf(key, "unknown statement key %q", key.Value)
		}
		if _, dup := fields[key.Value]; dup {
			return nil, errorf(key, "duplicate key %q", key.Value)
		}
		fields[key.Value] = val

		if k, ok := sem.ParseStmtKind(key.Value); ok {
			if kind != 0 {
				return nil, errorf(key, "statement has more than one form")
			}
			if val.Kind != yaml.ScalarNode || val.Value == "" {
				return nil, errorf(val, "%s requires a table name", key.Value)
			}
			kind, table = k, val.Value
		}
	}
	if kind == 0 {
		return nil, errorf(n, "statement must contain one of select, insert, update, delete")
	}

	where, err := d.DecodePredicate(fields["where"])
	if err != nil {
		return nil, err
	}
	opts := []sem.Option{sem.WithLoc(loc(n))}
	if node := fields["if"]; node != nil {
		cond, err := d.DecodePredicate(node)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sem.WithIf(cond))
	}
	if node := fields["ttl"]; node != nil {
		ttl, err := d.DecodeValue(node)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sem.WithTTL(ttl))
	}

	allowed := map[sem.StmtKind][]string{
		sem.KindSelect: {"columns", "where"},
		sem.KindInsert: {"values", "if", "ttl"},
		sem.KindUpdate: {"set", "where", "if", "ttl"},
		sem.KindDelete: {"columns", "where", "if"},
	}[kind]
	for _, key := range []string{"columns", "values", "set", "where", "if", "ttl"} {
		if fields[key] != nil && !slices.Contains(allowed, key) {
			return nil, errorf(fields[key], "%s does not accept %s", kind, key)
		}
	}

	switch kind {
	case sem.KindSelect, sem.KindDelete:
		var columns []string
		if node := fields["columns"]; node != nil {
			if err := node.Decode(&columns); err != nil {
				return nil, errorf(node, "columns must be a list of names")
			}
		}
		if kind == sem.KindSelect {
			return sem.NewSelect(table, columns, where, opts...), nil
		}
		return sem.NewDelete(table, columns, where, opts...), nil

	case sem.KindInsert:
		node := fields["values"]
		if node == nil {
			return nil, errorf(n, "insert requires values")
		}
		names, exprs, err := decodeAssignments(d, node, errorf)
		if err != nil {
			return nil, err
		}
		return sem.NewInsert(table, names, exprs, opts...), nil

	default:
		node := fields["set"]
		if node == nil {
			return nil, errorf(n, "update requires set")
		}
		names, exprs, err := decodeAssignments(d, node, errorf)
		if err != nil {
			return nil, err
		}
		assignments := make([]sem.Assignment, len(names))
		for i := range names {
			assignments[i] = sem.Assignment{Column: names[i], Value: exprs[i], Loc: exprs[i].Location()}
		}
		return sem.NewUpdate(table, assignments, where, opts...), nil
	}
}

// decodeAssignments reads a column-to-value mapping in document order.
// Repeated columns are kept so the analyzer can report them.
func decodeAssignments(d ptree.Decoder, n *yaml.Node, errorf func(*yaml.Node, string, ...any) error) ([]string, []ptree.Expr, error) {
	n = ptree.Unwrap(n)
	if n.Kind != yaml.MappingNode {
		return nil, nil, errorf(n, "expected a mapping of column to value")
	}
	var names []string
	var exprs []ptree.Expr
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := d.DecodeValue(n.Content[i+1])
		if err != nil {
			return nil, nil, err
		}
		if v == nil {
			v = &ptree.Const{Value: ir.Null{}}
		}
		names = append(names, n.Content[i].Value)
		exprs = append(exprs, v)
	}
	return names, exprs, nil
}

// LoadStatements reads a YAML stream of statements, one per document or
// as a top-level sequence.
func LoadStatements(path string) ([]*sem.DmlStmt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statements file: %w", err)
	}

	var stmts []*sem.DmlStmt
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}

		root := ptree.Unwrap(&doc)
		if root == nil {
			continue
		}
		items := []*yaml.Node{root}
		if root.Kind == yaml.SequenceNode {
			items = root.Content
		}
		for _, item := range items {
			stmt, err := DecodeStatement(item, path)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}
