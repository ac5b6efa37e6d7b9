package reconcile

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrIntegrity is matched by every reconciliation failure. These errors mean
// the history table and the migrations directory disagree and nothing should
// be applied until a human has looked at it.
var ErrIntegrity = errors.New("migration history integrity violation")

type (
	// DeletedMigrationError means history records a version with no script on
	// disk.
	DeletedMigrationError struct {
		Version int
		Script  string
	}

	// ModifiedMigrationError means an applied script was edited afterwards.
	ModifiedMigrationError struct {
		Version  int
		Script   string
		Recorded string
		Current  string
	}

	// MissingMigrationError means a script was added below the highest
	// applied version.
	MissingMigrationError struct {
		Version    int
		Script     string
		MaxApplied int
	}
)

func (e *DeletedMigrationError) Error() string {
	return fmt.Sprintf("migration %d (%s) was applied but its script is missing", e.Version, e.Script)
}

func (e *DeletedMigrationError) Is(target error) bool {
	return target == ErrIntegrity
}

func (e *ModifiedMigrationError) Error() string {
	return fmt.Sprintf(
		"migration %d (%s) was modified after it was applied: recorded md5 %s, current md5 %s",
		e.Version, e.Script, e.Recorded, e.Current,
	)
}

func (e *ModifiedMigrationError) Is(target error) bool {
	return target == ErrIntegrity
}

func (e *MissingMigrationError) Error() string {
	return fmt.Sprintf(
		"migration %d (%s) has not been applied but migration %d already has",
		e.Version, e.Script, e.MaxApplied,
	)
}

func (e *MissingMigrationError) Is(target error) bool {
	return target == ErrIntegrity
}
