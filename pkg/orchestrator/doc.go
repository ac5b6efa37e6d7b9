// Package orchestrator drives a migration run from start to finish.
//
// A run connects to ClickHouse, optionally creates the target database and
// checks the configured cluster, ensures the history table exists, reconciles
// the scripts on disk with the recorded history and then applies every
// outstanding script in version order. Each script's history row is written
// only after all of its statements succeed, and the run stops at the first
// failure.
//
// A run moves through these states:
//
//	Idle -> SchemaEnsured -> Reconciled -> Applying(v1) -> ... -> Applying(vn) -> Done
//
// Any failure ends the run in Failed. A dry run writes nothing, so it skips
// SchemaEnsured and stops at Reconciled.
package orchestrator
