package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/cqlsem/internal/schema"
)

// ErrNotFound is returned (wrapped) when a table is not in the catalog.
var ErrNotFound = errors.New("table not found")

// Reader resolves a table name to its descriptor.
type Reader interface {
	LookupTable(name schema.TableName) (*schema.TableDesc, error)
}

// Memory is an in-process catalog.
type Memory struct {
	mu     sync.RWMutex
	tables map[schema.TableName]*schema.TableDesc
}

// NewMemory returns a catalog holding the given tables.
func NewMemory(tables ...*schema.TableDesc) *Memory {
	m := &Memory{tables: make(map[schema.TableName]*schema.TableDesc, len(tables))}
	for _, t := range tables {
		m.Put(t)
	}
	return m
}

// Put adds or replaces a table.
func (m *Memory) Put(t *schema.TableDesc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Name] = t
}

// LookupTable implements Reader.
func (m *Memory) LookupTable(name schema.TableName) (*schema.TableDesc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return t, nil
}

// Tables returns all tables ordered by keyspace, then name.
func (m *Memory) Tables() []*schema.TableDesc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*schema.TableDesc, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *schema.TableDesc) int {
		if c := strings.Compare(a.Name.Keyspace, b.Name.Keyspace); c != 0 {
			return c
		}
		return strings.Compare(a.Name.Name, b.Name.Name)
	})
	return out
}

// Len returns the number of tables.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}
