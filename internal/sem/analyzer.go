package sem

import (
	"github.com/rs/zerolog"

	"github.com/roach88/cqlsem/internal/catalog"
)

// DefaultKeyspace is used for unqualified table names when no keyspace is
// configured.
const DefaultKeyspace = "app"

// Analyzer analyzes statements against a catalog snapshot.
// It holds no per-statement state and is safe for concurrent use.
type Analyzer struct {
	catalog        catalog.Reader
	keyspace       string
	systemReadOnly bool
	logger         zerolog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithKeyspace sets the keyspace of unqualified table names.
func WithKeyspace(ks string) AnalyzerOption {
	return func(a *Analyzer) { a.keyspace = ks }
}

// WithSystemNamespaceReadOnly controls whether writes to system keyspaces
// are rejected. Defaults to true.
func WithSystemNamespaceReadOnly(readOnly bool) AnalyzerOption {
	return func(a *Analyzer) { a.systemReadOnly = readOnly }
}

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(l zerolog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer over cat.
func NewAnalyzer(cat catalog.Reader, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		catalog:        cat,
		keyspace:       DefaultKeyspace,
		systemReadOnly: true,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Keyspace returns the default keyspace.
func (a *Analyzer) Keyspace() string { return a.keyspace }

// Analyze runs the full analysis of s: table lookup, column arguments,
// WHERE, IF and USING, failing on the first error.
//
// Previous results are discarded first, so analyzing the same statement
// twice gives the same outcome.
func (a *Analyzer) Analyze(s *DmlStmt) error {
	s.Reset()

	if s.table == nil {
		if err := s.LookupTable(a); err != nil {
			return err
		}
	}
	if err := s.analyzeColumnArgs(); err != nil {
		return err
	}

	if s.kind == KindInsert {
		if err := s.analyzeWhere(s.insertKeyRelations(), nil); err != nil {
			return err
		}
	} else if err := s.AnalyzeWhereClause(s.where); err != nil {
		return err
	}

	if err := s.AnalyzeIfClause(s.ifClause); err != nil {
		return err
	}
	if err := s.AnalyzeUsingClause(); err != nil {
		return err
	}

	a.logger.Debug().
		Str("stmt", s.kind.String()).
		Str("table", s.name.String()).
		Int("key_ops", len(s.keyOps)).
		Int("filter_ops", len(s.ops)).
		Bool("full_scan", !s.WriteOnly() && len(s.keyOps) == 0).
		Bool("static_only", s.StaticColumnArgsOnly()).
		Msg("analyzed statement")
	return nil
}
