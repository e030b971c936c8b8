// Package sqlbuild renders the statements that replace a staging table's contents.
//
// Every table load is a TRUNCATE followed by one or more multi-row INSERT
// batches. INSERTs are positional (no column list) and carry their values as
// $n bind parameters. Each value is stringified and clipped to
// belaz.MaxValueLength characters before binding, so the database always
// receives text.
//
// Render produces the same statements with values inlined as quoted literals,
// for --dry-run output.
package sqlbuild
