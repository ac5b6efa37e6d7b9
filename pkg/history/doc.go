// Package history reads and writes the schema_versions table, the record of
// which migration scripts have been applied to a database.
//
// The table is append-only: a row is inserted after all statements of a
// script succeed and rows are never updated or deleted by chmigrate. When a
// cluster is configured the table is created ON CLUSTER with a
// ReplicatedMergeTree engine so every replica reports the same history.
package history
