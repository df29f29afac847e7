package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cqlsem/internal/catalog"
	"github.com/roach88/cqlsem/internal/compiler"
	"github.com/roach88/cqlsem/internal/plan"
	"github.com/roach88/cqlsem/internal/sem"
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger      zerolog.Logger
	parallelism int
	catalog     catalog.Reader
}

// WithLogger sets the logger passed to the analyzer. Defaults to
// zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithParallelism bounds the number of cases analyzed at once. Values
// below one mean GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(c *runConfig) { c.parallelism = n }
}

// WithCatalog analyzes against cat instead of compiling the scenario's
// schema directory.
func WithCatalog(cat catalog.Reader) Option {
	return func(c *runConfig) { c.catalog = cat }
}

// Run analyzes every case of s against one catalog snapshot and checks the
// expectations.
//
// Cases run concurrently and share nothing but the snapshot; each case
// decodes its own statement. A case that fails to decode or does not meet
// its expectation fails only itself. Run returns an error only when the
// schema cannot be loaded or ctx is canceled.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parallelism < 1 {
		cfg.parallelism = runtime.GOMAXPROCS(0)
	}

	keyspace := s.Keyspace
	if keyspace == "" {
		keyspace = sem.DefaultKeyspace
	}

	cat := cfg.catalog
	if cat == nil {
		loaded, err := loadSchema(s.Schema, keyspace)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	analyzerOpts := []sem.AnalyzerOption{
		sem.WithKeyspace(keyspace),
		sem.WithLogger(cfg.logger),
	}
	if s.SystemReadOnly != nil {
		analyzerOpts = append(analyzerOpts, sem.WithSystemNamespaceReadOnly(*s.SystemReadOnly))
	}
	analyzer := sem.NewAnalyzer(cat, analyzerOpts...)

	result := NewResult(s.Name, len(s.Cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for i := range s.Cases {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result.Cases[i] = runCase(analyzer, &s.Cases[i], s.path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run scenario %s: %w", s.Name, err)
	}

	for _, c := range result.Cases {
		if !c.Pass {
			result.Pass = false
		}
	}
	cfg.logger.Debug().
		Str("scenario", s.Name).
		Int("cases", len(result.Cases)).
		Int("failed", len(result.Failed())).
		Msg("scenario complete")
	return result, nil
}

func runCase(a *sem.Analyzer, c *Case, file string) CaseResult {
	res := CaseResult{Name: c.Name, Pass: true}

	stmt, err := DecodeStatement(&c.Statement, file)
	if err != nil {
		res.AddError(fmt.Sprintf("decode statement: %v", err))
		return res
	}

	var p *plan.Plan
	err = a.Analyze(stmt)
	if err == nil {
		p, err = plan.Build(stmt)
	}
	res.Err = err
	res.Plan = p

	for _, mismatch := range EvaluateExpect(c.Expect, err, p) {
		res.AddError(mismatch.Error())
	}
	return res
}

// loadSchema compiles dir into an in-memory catalog.
func loadSchema(dir, keyspace string) (*catalog.Memory, error) {
	loaded, errs := compiler.LoadDir(dir, keyspace, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("load schema %s: %w", dir, errors.Join(errs...))
	}
	return catalog.NewMemory(loaded.Tables...), nil
}
