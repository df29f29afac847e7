package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/sem"
)

// Snapshot returns the canonical form of r: per case, the error code or
// the plan kind with its key and filter conditions.
func (r *Result) Snapshot() ir.Object {
	cases := make(ir.List, len(r.Cases))
	for i, c := range r.Cases {
		obj := ir.Object{
			"name": ir.String(c.Name),
			"pass": ir.Bool(c.Pass),
		}
		switch {
		case c.Err != nil:
			obj["error"] = ir.String(string(sem.CodeOf(c.Err)))
		case c.Plan != nil:
			obj["kind"] = ir.String(string(c.Plan.Kind))
			obj["key"] = stringList(conditionStrings(c.Plan.Key))
			obj["filter"] = stringList(conditionStrings(c.Plan.Filter))
		}
		cases[i] = obj
	}
	return ir.Object{
		"scenario": ir.String(r.Scenario),
		"pass":     ir.Bool(r.Pass),
		"cases":    cases,
	}
}

func stringList(ss []string) ir.List {
	out := make(ir.List, len(ss))
	for i, s := range ss {
		out[i] = ir.String(s)
	}
	return out
}

// AssertGolden compares the snapshot of result against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(result.Snapshot())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
