package sem

import (
	"math"
	"time"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/ptree"
)

// TTL bounds in seconds. The maximum is the largest number of seconds whose
// nanosecond count fits in an int64.
const (
	MinTTLSeconds int64 = 0
	MaxTTLSeconds int64 = math.MaxInt64 / int64(time.Second)
)

// ttlBindName is the name given to a positional TTL marker.
const ttlBindName = "[ttl]"

// IsValidTTLSeconds reports whether ttl lies within the TTL bounds.
func IsValidTTLSeconds(ttl int64) bool {
	return ttl >= MinTTLSeconds && ttl <= MaxTTLSeconds
}

// checkTTL validates a USING TTL expression. Bind markers are accepted and
// checked when a value is bound.
func checkTTL(e ptree.Expr, binds *bindings) error {
	switch v := e.(type) {
	case *ptree.Const:
		n, ok := v.Value.(ir.Int)
		if !ok || !IsValidTTLSeconds(int64(n)) {
			return newError(ErrCodeInvalidTTL, v.Loc, "Valid ttl range : [%d, %d]", MinTTLSeconds, MaxTTLSeconds)
		}
		return nil
	case *ptree.BindVar:
		marker := *v
		if marker.IsPositional() {
			marker.Name = ttlBindName
		}
		binds.bind(&marker, nil, ir.TypeBigInt)
		return nil
	default:
		return newError(ErrCodeInvalidTTL, e.Location(), "TTL must be an integer constant or a bind marker")
	}
}
