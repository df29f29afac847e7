// Package sem performs semantic analysis of DML statements against a table
// catalog.
//
// The central output of analysis is the classification of WHERE-clause
// relations into two ordered lists:
//
//   - KeyWhereOps: one slot per key column, in key-encoding order. For
//     writes it holds H+R slots (hash then range columns); for reads it
//     holds H hash slots.
//   - WhereOps: residual filters. Range comparisons on clustering columns,
//     range-key equalities on reads, and hash-key equalities demoted from
//     an incomplete read key.
//
// # Write rules
//
// Every hash column needs an equality. Every range column needs one too,
// unless the statement assigns static columns only, in which case the range
// key must be either fully specified or absent. An absent range key shrinks
// KeyWhereOps to the hash columns.
//
// # Read rules
//
// No key condition is required. When the hash key is incomplete, the hash
// equalities that were given move to the front of WhereOps and KeyWhereOps
// becomes empty, meaning a full scan.
//
// # Errors
//
// Analysis stops at the first violation and returns it as *Error with one of
// the ErrCode constants and the location of the offending node:
//
//	if sem.IsCode(err, sem.ErrCodeMissingKeyCondition) { ... }
//
// # Concurrency
//
// An Analyzer is immutable and may analyze distinct statements from many
// goroutines. A DmlStmt must not be analyzed concurrently with itself.
package sem
