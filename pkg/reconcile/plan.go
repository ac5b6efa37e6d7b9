package reconcile

import (
	"sort"

	"github.com/pseudomuto/chmigrate/pkg/history"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
)

const (
	// StateApplied is a script recorded in history with a matching checksum.
	StateApplied State = "applied"

	// StatePending is a script that will run on the next migrate.
	StatePending State = "pending"

	// StateModified is an applied script whose checksum no longer matches.
	StateModified State = "modified"

	// StateDeleted is a history row without a script on disk.
	StateDeleted State = "deleted"

	// StateMissing is an unapplied script older than the newest applied one.
	StateMissing State = "missing"
)

type (
	// State describes a single version in a Plan.
	State string

	// Entry is the status of one version. Script is nil for deleted
	// migrations and Record is nil for scripts that never ran.
	Entry struct {
		Version int
		State   State
		Script  *migrator.Script
		Record  *history.Record
	}

	// Plan is the full picture of a migrations directory against its history.
	Plan struct {
		Entries []Entry

		// Pending is what Reconcile returned, empty when Err is set.
		Pending []*migrator.Script

		// Err is the integrity error Reconcile reported, if any.
		Err error
	}
)

// NewPlan describes every version known to either side. Unlike Reconcile it
// never stops at the first problem, so callers can show all of them; Err
// still carries the error Reconcile would return.
func NewPlan(records []history.Record, scripts []*migrator.Script) *Plan {
	pending, err := Reconcile(records, scripts)
	plan := &Plan{Pending: pending, Err: err}

	byVersion := make(map[int]*migrator.Script, len(scripts))
	for _, s := range scripts {
		byVersion[s.Version] = s
	}

	recorded := make(map[int]*history.Record, len(records))
	maxApplied := 0
	for i := range records {
		rec := &records[i]
		maxApplied = max(maxApplied, rec.Version)

		// a mismatching duplicate wins so the entry reports the modification
		if _, seen := recorded[rec.Version]; !seen || rec.Checksum != byVersionChecksum(byVersion, rec.Version) {
			recorded[rec.Version] = rec
		}
	}

	versions := make([]int, 0, len(byVersion)+len(recorded))
	for v := range byVersion {
		versions = append(versions, v)
	}
	for v := range recorded {
		if _, ok := byVersion[v]; !ok {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)

	for _, v := range versions {
		entry := Entry{Version: v, Script: byVersion[v], Record: recorded[v]}

		switch {
		case entry.Script == nil:
			entry.State = StateDeleted
		case entry.Record == nil && v < maxApplied:
			entry.State = StateMissing
		case entry.Record == nil:
			entry.State = StatePending
		case entry.Record.Checksum != entry.Script.Checksum:
			entry.State = StateModified
		default:
			entry.State = StateApplied
		}

		plan.Entries = append(plan.Entries, entry)
	}

	return plan
}

// byVersionChecksum returns the on-disk checksum for version, or "".
func byVersionChecksum(scripts map[int]*migrator.Script, version int) string {
	if s, ok := scripts[version]; ok {
		return s.Checksum
	}
	return ""
}
