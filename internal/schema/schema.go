// Package schema holds the resolved column and table descriptors used by
// semantic analysis.
//
// Descriptors are immutable once a TableDesc has been built with NewTable.
// Analysis keeps pointers into TableDesc.Columns and never copies them.
package schema

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlsem/internal/ir"
)

// ColumnDesc describes one column of a table.
//
// Index is dense and zero-based in declaration order: hash columns first,
// then range columns, then the rest. Per-column analysis state is addressed
// by Index.
type ColumnDesc struct {
	Index     int
	ID        int32
	Name      string
	IsHash    bool // partition key
	IsPrimary bool // any key column, hash or range
	IsStatic  bool
	Type      ir.DataType
}

// IsRange reports whether the column is a clustering (range) key column.
func (c *ColumnDesc) IsRange() bool {
	return c.IsPrimary && !c.IsHash
}

// IsRegular reports whether the column is neither a key nor static.
func (c *ColumnDesc) IsRegular() bool {
	return !c.IsPrimary && !c.IsStatic
}

// Role is a single-word description of the column role.
func (c *ColumnDesc) Role() string {
	switch {
	case c.IsHash:
		return "hash"
	case c.IsPrimary:
		return "range"
	case c.IsStatic:
		return "static"
	default:
		return "regular"
	}
}

// TableName is a keyspace-qualified table name.
type TableName struct {
	Keyspace string
	Name     string
}

// ParseTableName splits "ks.table". A bare name gets defaultKeyspace.
func ParseTableName(s, defaultKeyspace string) (TableName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TableName{}, fmt.Errorf("empty table name")
	}
	ks, name, found := strings.Cut(s, ".")
	if !found {
		return TableName{Keyspace: defaultKeyspace, Name: s}, nil
	}
	if ks == "" || name == "" || strings.Contains(name, ".") {
		return TableName{}, fmt.Errorf("invalid table name %q", s)
	}
	return TableName{Keyspace: ks, Name: name}, nil
}

// IsSystem reports whether the table lives in a system keyspace.
func (n TableName) IsSystem() bool {
	return strings.HasPrefix(n.Keyspace, "system")
}

func (n TableName) String() string {
	if n.Keyspace == "" {
		return n.Name
	}
	return n.Keyspace + "." + n.Name
}

// ColumnSpec is the role-annotated input to NewTable.
type ColumnSpec struct {
	Name   string
	Type   ir.DataType
	Hash   bool
	Range  bool
	Static bool
}

// TableDesc is a resolved table: its name, ordered columns and key counts.
type TableDesc struct {
	ID                string
	Name              TableName
	Columns           []ColumnDesc
	NumHashKeyColumns int
	NumKeyColumns     int

	byName map[string]int
}

// columnIDOffset is added to a column's index to form its catalog id.
const columnIDOffset = 10

// NewTable orders specs hash first, then range, then the rest (stable) and
// assigns indexes and ids. It rejects tables without a hash key, duplicate
// names and static key columns.
func NewTable(name TableName, specs []ColumnSpec) (*TableDesc, error) {
	var hash, rng, rest []ColumnSpec
	for _, s := range specs {
		switch {
		case s.Hash && s.Range:
			return nil, fmt.Errorf("column %q cannot be both hash and range key", s.Name)
		case s.Hash:
			hash = append(hash, s)
		case s.Range:
			rng = append(rng, s)
		default:
			rest = append(rest, s)
		}
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("table %s has no hash key column", name)
	}

	ordered := make([]ColumnSpec, 0, len(specs))
	ordered = append(ordered, hash...)
	ordered = append(ordered, rng...)
	ordered = append(ordered, rest...)

	t := &TableDesc{
		Name:              name,
		Columns:           make([]ColumnDesc, len(ordered)),
		NumHashKeyColumns: len(hash),
		NumKeyColumns:     len(hash) + len(rng),
		byName:            make(map[string]int, len(ordered)),
	}
	for i, s := range ordered {
		if s.Name == "" {
			return nil, fmt.Errorf("column %d of %s has no name", i, name)
		}
		if _, dup := t.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q in %s", s.Name, name)
		}
		if s.Static && (s.Hash || s.Range) {
			return nil, fmt.Errorf("key column %q cannot be static", s.Name)
		}
		t.Columns[i] = ColumnDesc{
			Index:     i,
			ID:        int32(i + columnIDOffset),
			Name:      s.Name,
			IsHash:    i < t.NumHashKeyColumns,
			IsPrimary: i < t.NumKeyColumns,
			IsStatic:  s.Static,
			Type:      s.Type,
		}
		t.byName[s.Name] = i
	}
	return t, nil
}

// Column looks up a column by name.
func (t *TableDesc) Column(name string) (*ColumnDesc, bool) {
	if t.byName == nil {
		// Assembled by hand rather than by NewTable.
		for i := range t.Columns {
			if t.Columns[i].Name == name {
				return &t.Columns[i], true
			}
		}
		return nil, false
	}
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.Columns[i], true
}

// NumRangeKeyColumns returns the number of clustering key columns.
func (t *TableDesc) NumRangeKeyColumns() int {
	return t.NumKeyColumns - t.NumHashKeyColumns
}

// HasStaticColumns reports whether any column is static.
func (t *TableDesc) HasStaticColumns() bool {
	for i := range t.Columns {
		if t.Columns[i].IsStatic {
			return true
		}
	}
	return false
}

// Fingerprint is the content hash of the table definition, independent of
// its catalog ID.
func (t *TableDesc) Fingerprint() (string, error) {
	cols := make(ir.List, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ir.Object{
			"name":   ir.String(c.Name),
			"type":   ir.String(c.Type.String()),
			"role":   ir.String(c.Role()),
			"static": ir.Bool(c.IsStatic),
		}
	}
	return ir.Fingerprint(ir.DomainTable, ir.Object{
		"keyspace": ir.String(t.Name.Keyspace),
		"name":     ir.String(t.Name.Name),
		"columns":  cols,
	})
}
