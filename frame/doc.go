// Package frame converts raw JSON tool payloads into typed columnar tables.
//
// Normalize is a pure function of a JSON value and a schema. It accepts two
// payload orientations: a JSON array of row objects (one cell per schema
// column per row) and a JSON object keyed by source field name (one array,
// scalar, or absent entry per column). Column-oriented payloads go through a
// reconciliation step: absent columns are null-filled, single-cell columns
// are broadcast to the table height, and every output column ends up
// rectangular. This lets a guest return sparse, partially vectorized or
// scalar-valued columns and still yield a well-formed table.
//
// Cell coercion is lenient by design: a value that cannot be coerced to the
// column's dtype becomes a null cell, never an error. Only a non-tabular
// payload shape or an unbuildable table (duplicate alias, ragged columns)
// fails.
package frame
