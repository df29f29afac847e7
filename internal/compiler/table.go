package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// TableDef is a table definition as written in CUE, before validation.
type TableDef struct {
	Name     string
	Keyspace string
	Columns  []ColumnDef
	Pos      token.Pos
}

// ColumnDef is one entry of a table's columns list.
type ColumnDef struct {
	Name   string
	Type   string
	Key    string // "", "hash" or "range"
	Static bool
	Pos    token.Pos
}

// CompileTable parses a CUE value into a TableDef.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the table struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: users: { columns: [...] }`)
//	def, err := CompileTable(v.LookupPath(cue.ParsePath("table.users")))
func CompileTable(v cue.Value) (*TableDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &TableDef{Pos: v.Pos()}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	if ks := v.LookupPath(cue.ParsePath("keyspace")); ks.Exists() {
		s, err := ks.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.Keyspace = s
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &CompileError{
			Field:   "columns",
			Message: "columns are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := colsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		col, err := compileColumn(iter.Value())
		if err != nil {
			return nil, err
		}
		def.Columns = append(def.Columns, col)
	}

	return def, nil
}

func compileColumn(v cue.Value) (ColumnDef, error) {
	col := ColumnDef{Pos: v.Pos()}

	var err error
	if col.Name, err = requiredString(v, "name"); err != nil {
		return col, err
	}
	if col.Type, err = requiredString(v, "type"); err != nil {
		return col, err
	}

	if key := v.LookupPath(cue.ParsePath("key")); key.Exists() {
		if col.Key, err = key.String(); err != nil {
			return col, formatCUEError(err)
		}
	}
	if static := v.LookupPath(cue.ParsePath("static")); static.Exists() {
		if col.Static, err = static.Bool(); err != nil {
			return col, formatCUEError(err)
		}
	}
	return col, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("column %s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
