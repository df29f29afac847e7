// Package ir provides the foundational value, type and location types shared
// by every other cqlsem package.
//
// This package imports nothing internal. Predicate trees (ptree), table
// descriptors (schema) and the analyzer (sem) all build on it, which keeps
// ir at the bottom of the dependency graph.
//
// Key design constraints:
//   - Value is a sealed interface; only the constant kinds defined here
//     implement it
//   - NO float values (floats break canonical encoding); DOUBLE columns are
//     compared against Int constants
//   - MarshalCanonical is the only serialization used for plan fingerprints
package ir
