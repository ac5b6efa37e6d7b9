// Package reconcile compares the migration history recorded in the database
// with the scripts on disk and decides what still has to run.
//
// Reconciliation is a pure function of its two inputs. It refuses to make a
// plan when the two disagree about the past:
//
//   - every recorded version must still have a script (DeletedMigrationError)
//   - a recorded checksum must match the script's (ModifiedMigrationError)
//   - no unapplied script may sit below the newest applied one (MissingMigrationError)
//
// The checks run in that order and the first violation is returned.
package reconcile

import (
	"sort"

	"github.com/pseudomuto/chmigrate/pkg/history"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
)

// Reconcile returns the scripts that are not yet in history, ordered by
// version. Neither input is modified.
//
// An empty history yields every script. An empty set of scripts with a
// non-empty history fails because nothing recorded can be verified.
func Reconcile(records []history.Record, scripts []*migrator.Script) ([]*migrator.Script, error) {
	byVersion := make(map[int]*migrator.Script, len(scripts))
	for _, s := range scripts {
		byVersion[s.Version] = s
	}

	applied := make(map[int]bool, len(records))
	maxApplied := 0
	for _, rec := range records {
		applied[rec.Version] = true
		maxApplied = max(maxApplied, rec.Version)
	}

	ordered := sortedRecords(records)

	for _, rec := range ordered {
		if _, ok := byVersion[rec.Version]; !ok {
			return nil, &DeletedMigrationError{Version: rec.Version, Script: rec.Script}
		}
	}

	for _, rec := range ordered {
		if s := byVersion[rec.Version]; s.Checksum != rec.Checksum {
			return nil, &ModifiedMigrationError{
				Version:  rec.Version,
				Script:   s.Path,
				Recorded: rec.Checksum,
				Current:  s.Checksum,
			}
		}
	}

	var pending []*migrator.Script
	for _, s := range sortedScripts(scripts) {
		if applied[s.Version] {
			continue
		}

		if s.Version < maxApplied {
			return nil, &MissingMigrationError{Version: s.Version, Script: s.Path, MaxApplied: maxApplied}
		}

		pending = append(pending, s)
	}

	return pending, nil
}

func sortedRecords(records []history.Record) []history.Record {
	out := make([]history.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

func sortedScripts(scripts []*migrator.Script) []*migrator.Script {
	out := make([]*migrator.Script, len(scripts))
	copy(out, scripts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
