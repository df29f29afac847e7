// Package harness runs analysis scenarios: statements written in YAML,
// analyzed against a CUE schema, each checked against an expected outcome.
//
// # Scenario Format
//
//	name: wide_table
//	description: "Key completeness on a two-column hash key"
//	schema: schema            # CUE directory, relative to this file
//	keyspace: app
//	cases:
//	  - name: full key update
//	    statement:
//	      update: t
//	      set: {v: "x"}
//	      where:
//	        and:
//	          - {col: h1, value: 1}
//	          - {col: h2, value: "2"}
//	          - {col: r1, value: 3}
//	    expect:
//	      kind: point
//	      key: ["h1 = 1", "h2 = '2'", "r1 = 3"]
//	  - name: partial hash key
//	    statement:
//	      update: t
//	      set: {v: "x"}
//	      where: {col: h1, value: 1}
//	    expect:
//	      error: MISSING_KEY_CONDITION
//
// Statements use the grammar of DecodeStatement; predicates use the
// grammar of ptree.Decoder.
//
// # Execution
//
// Run compiles the schema once and analyzes all cases concurrently
// against the same immutable catalog snapshot. Results are reported in
// case order regardless of completion order, so snapshots compare cleanly
// against golden files.
package harness
