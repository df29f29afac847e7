// Package testutil provides shared table fixtures for tests.
package testutil

import (
	"testing"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/schema"
)

// WideName is the name of the WideTable fixture.
var WideName = schema.TableName{Keyspace: "app", Name: "t"}

// WideTable returns a fresh T(h1, h2 hash; r1 range; s static; v regular):
//
//	index 0 h1 int   hash
//	index 1 h2 text  hash
//	index 2 r1 int   range
//	index 3 s  int   static
//	index 4 v  text  regular
func WideTable(t testing.TB) *schema.TableDesc {
	t.Helper()
	return MustTable(t, WideName, []schema.ColumnSpec{
		{Name: "h1", Type: ir.TypeInt, Hash: true},
		{Name: "h2", Type: ir.TypeText, Hash: true},
		{Name: "r1", Type: ir.TypeInt, Range: true},
		{Name: "s", Type: ir.TypeInt, Static: true},
		{Name: "v", Type: ir.TypeText},
	})
}

// ClusteredTable returns c(h hash; r1, r2 range; s static; v, flag regular).
func ClusteredTable(t testing.TB) *schema.TableDesc {
	t.Helper()
	return MustTable(t, schema.TableName{Keyspace: "app", Name: "c"}, []schema.ColumnSpec{
		{Name: "h", Type: ir.TypeBigInt, Hash: true},
		{Name: "r1", Type: ir.TypeInt, Range: true},
		{Name: "r2", Type: ir.TypeText, Range: true},
		{Name: "s", Type: ir.TypeText, Static: true},
		{Name: "v", Type: ir.TypeInt},
		{Name: "flag", Type: ir.TypeBool},
	})
}

// SystemTable returns system.peers(peer hash; rack regular).
func SystemTable(t testing.TB) *schema.TableDesc {
	t.Helper()
	return MustTable(t, schema.TableName{Keyspace: "system", Name: "peers"}, []schema.ColumnSpec{
		{Name: "peer", Type: ir.TypeText, Hash: true},
		{Name: "rack", Type: ir.TypeText},
	})
}

// MustTable builds a table or fails the test.
func MustTable(t testing.TB, name schema.TableName, specs []schema.ColumnSpec) *schema.TableDesc {
	t.Helper()
	tbl, err := schema.NewTable(name, specs)
	if err != nil {
		t.Fatalf("NewTable(%s) failed: %v", name, err)
	}
	return tbl
}
