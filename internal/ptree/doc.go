// Package ptree defines the parsed predicate and value trees consumed by the
// semantic analyzer.
//
// Text parsing is not done here. Trees are either built directly in Go or
// decoded from YAML documents (see Decoder), which also gives every node a
// source location for error reporting.
//
// SEALED INTERFACE:
//
// Expr is sealed with a marker method. Only the node types in this package
// implement it, so analyzers can switch exhaustively:
//
//	switch e := expr.(type) {
//	case *Relation:
//	    // leaf comparison: column op value
//	case *Logical:
//	    // AND / OR / NOT connective
//	case *Const, *BindVar, *ColumnRef:
//	    // operands
//	}
//
// TREE SHAPE:
//
//	WHERE h1 = 1 AND r1 > ?
//
// is
//
//	&Logical{Op: And, Operands: []Expr{
//	    &Relation{Column: "h1", Op: OpEqual, Value: &Const{Value: ir.Int(1)}},
//	    &Relation{Column: "r1", Op: OpGreaterThan, Value: &BindVar{Name: "?"}},
//	}}
package ptree
