package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/schema"
)

// Validation error codes (E200-E299)
const (
	ErrInvalidTable       = "E200" // descriptor could not be built
	ErrNoHashKey          = "E201" // at least one hash key column required
	ErrDuplicateColumn    = "E202" // duplicate column name
	ErrUnknownType        = "E203" // type name not recognized
	ErrStaticKeyColumn    = "E204" // key columns cannot be static
	ErrStaticWithoutRange = "E205" // static columns need a range key
	ErrInvalidKeyRole     = "E206" // key must be "hash" or "range"
	ErrEmptyName          = "E207" // table or column name empty
)

// ValidationError represents a table definition error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a table definition against the catalog rules.
// Returns all errors found (does not fail-fast).
func Validate(def *TableDef) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "table name is required",
			Code:    ErrEmptyName,
			Line:    def.Pos.Line(),
		})
	}

	seen := make(map[string]bool)
	hashKeys, rangeKeys, statics := 0, 0, 0

	for i, col := range def.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		line := col.Pos.Line()

		if strings.TrimSpace(col.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "column name is required",
				Code:    ErrEmptyName,
				Line:    line,
			})
		} else if seen[col.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate column name: %q", col.Name),
				Code:    ErrDuplicateColumn,
				Line:    line,
			})
		}
		seen[col.Name] = true

		if _, ok := ir.ParseDataType(col.Type); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown type %q", col.Type),
				Code:    ErrUnknownType,
				Line:    line,
			})
		}

		switch col.Key {
		case "":
		case "hash":
			hashKeys++
		case "range":
			rangeKeys++
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".key",
				Message: fmt.Sprintf("key must be \"hash\" or \"range\", got %q", col.Key),
				Code:    ErrInvalidKeyRole,
				Line:    line,
			})
		}

		if col.Static {
			statics++
			if col.Key != "" {
				errs = append(errs, ValidationError{
					Field:   field + ".static",
					Message: fmt.Sprintf("key column %q cannot be static", col.Name),
					Code:    ErrStaticKeyColumn,
					Line:    line,
				})
			}
		}
	}

	if hashKeys == 0 {
		errs = append(errs, ValidationError{
			Field:   "columns",
			Message: "at least one hash key column is required",
			Code:    ErrNoHashKey,
			Line:    def.Pos.Line(),
		})
	}
	if statics > 0 && rangeKeys == 0 {
		errs = append(errs, ValidationError{
			Field:   "columns",
			Message: "static columns require at least one range key column",
			Code:    ErrStaticWithoutRange,
			Line:    def.Pos.Line(),
		})
	}

	return errs
}

// ToTable validates def and resolves it into a table descriptor. A missing
// keyspace is filled with defaultKeyspace.
func ToTable(def *TableDef, defaultKeyspace string) (*schema.TableDesc, []ValidationError) {
	if errs := Validate(def); len(errs) > 0 {
		return nil, errs
	}

	keyspace := def.Keyspace
	if keyspace == "" {
		keyspace = defaultKeyspace
	}

	specs := make([]schema.ColumnSpec, len(def.Columns))
	for i, col := range def.Columns {
		typ, _ := ir.ParseDataType(col.Type)
		specs[i] = schema.ColumnSpec{
			Name:   col.Name,
			Type:   typ,
			Hash:   col.Key == "hash",
			Range:  col.Key == "range",
			Static: col.Static,
		}
	}

	t, err := schema.NewTable(schema.TableName{Keyspace: keyspace, Name: def.Name}, specs)
	if err != nil {
		return nil, []ValidationError{{Field: "table", Message: err.Error(), Code: ErrInvalidTable}}
	}
	return t, nil
}
