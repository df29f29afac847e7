package plan

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
)

// Object returns the canonical form of p. Values are rendered as CQL text
// so the form does not depend on how a constant was spelled in the source.
func (p *Plan) Object() ir.Object {
	obj := ir.Object{
		"stmt":    ir.String(p.Stmt.String()),
		"table":   ir.String(p.Table.String()),
		"kind":    ir.String(string(p.Kind)),
		"key":     conditionList(p.Key),
		"filter":  conditionList(p.Filter),
		"columns": stringList(p.Columns),
	}

	binds := make(ir.List, len(p.Binds))
	for i, b := range p.Binds {
		bind := ir.Object{
			"name": ir.String(b.Name),
			"type": ir.String(b.Type.String()),
		}
		if b.Column != "" {
			bind["column"] = ir.String(b.Column)
		}
		binds[i] = bind
	}
	obj["binds"] = binds

	if p.If != nil {
		obj["if"] = ir.String(ptree.Format(p.If))
	}
	if p.TTL != nil {
		obj["ttl"] = ir.String(ptree.Format(p.TTL))
	}
	return obj
}

func conditionList(conds []Condition) ir.List {
	out := make(ir.List, len(conds))
	for i, c := range conds {
		out[i] = ir.Object{
			"column": ir.String(c.Column),
			"role":   ir.String(c.Role),
			"op":     ir.String(c.Op.String()),
			"value":  ir.String(ptree.Format(c.Value)),
		}
	}
	return out
}

func stringList(ss []string) ir.List {
	out := make(ir.List, len(ss))
	for i, s := range ss {
		out[i] = ir.String(s)
	}
	return out
}

// MarshalJSON encodes p as canonical JSON.
func (p *Plan) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(p.Object())
}

// Fingerprint returns the content hash of p's canonical form.
func Fingerprint(p *Plan) (string, error) {
	return ir.Fingerprint(ir.DomainPlan, p.Object())
}

// Text renders p for humans, one field per line.
func (p *Plan) Text() string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-8s %s\n", label+":", value)
	}

	line("stmt", p.Stmt.String())
	line("table", p.Table.String())
	line("kind", string(p.Kind))
	line("key", joinConditions(p.Key))
	line("filter", joinConditions(p.Filter))
	if len(p.Columns) > 0 {
		line("columns", strings.Join(p.Columns, ", "))
	} else {
		line("columns", "-")
	}
	if p.If != nil {
		line("if", ptree.Format(p.If))
	}
	if p.TTL != nil {
		line("ttl", ptree.Format(p.TTL))
	}
	for _, bind := range p.Binds {
		v := bind.Name + " " + bind.Type.String()
		if bind.Column != "" {
			v += " -> " + bind.Column
		}
		line("bind", v)
	}
	return b.String()
}

func joinConditions(conds []Condition) string {
	if len(conds) == 0 {
		return "-"
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}
