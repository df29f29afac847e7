package sem

import (
	"errors"
	"fmt"

	"github.com/roach88/cqlsem/internal/ir"
)

// ErrorCode categorizes analysis errors.
type ErrorCode string

const (
	// ErrCodeTableNotFound indicates the table is not in the catalog.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeSystemNamespaceReadOnly indicates a write to a system keyspace.
	ErrCodeSystemNamespaceReadOnly ErrorCode = "SYSTEM_NAMESPACE_READONLY"

	// ErrCodeMissingKeyCondition indicates a write without equality on a
	// required key column, or without a WHERE clause at all.
	ErrCodeMissingKeyCondition ErrorCode = "MISSING_KEY_CONDITION"

	// ErrCodeIllogicalCondition indicates conflicting operators on one column.
	ErrCodeIllogicalCondition ErrorCode = "ILLOGICAL_CONDITION"

	// ErrCodeInvalidColumnUsage indicates a comparison on a non-key column,
	// a range comparison on a hash column, or an assignment to a key column.
	ErrCodeInvalidColumnUsage ErrorCode = "INVALID_COLUMN_USAGE"

	// ErrCodeUnsupportedRangeWrite indicates a range comparison in a write.
	ErrCodeUnsupportedRangeWrite ErrorCode = "UNSUPPORTED_RANGE_WRITE"

	// ErrCodeUnsupportedOperator indicates an operator or connective the
	// WHERE clause does not accept.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeInvalidTTL indicates a TTL outside [MinTTLSeconds, MaxTTLSeconds].
	ErrCodeInvalidTTL ErrorCode = "INVALID_TTL"

	// ErrCodeUndefinedColumn indicates a column name the table lacks.
	ErrCodeUndefinedColumn ErrorCode = "UNDEFINED_COLUMN"

	// ErrCodeDatatypeMismatch indicates a value of the wrong type.
	ErrCodeDatatypeMismatch ErrorCode = "DATATYPE_MISMATCH"
)

// Error is an analysis failure attached to a source location.
type Error struct {
	Code    ErrorCode
	Message string
	Loc     ir.Location
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Loc, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func newError(code ErrorCode, loc ir.Location, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Loc: loc}
}
