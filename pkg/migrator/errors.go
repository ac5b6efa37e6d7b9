package migrator

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidDir is matched by every error describing an unusable migrations
// directory.
var ErrInvalidDir = errors.New("invalid migrations directory")

type (
	// MalformedFilenameError is returned for .sql files whose name doesn't
	// start with a positive integer version.
	MalformedFilenameError struct {
		Filename string
		Reason   string
	}

	// DuplicateVersionError is returned when two files share the same
	// numeric version, e.g. 1_a.sql and 01_b.sql.
	DuplicateVersionError struct {
		Version int
		First   string
		Second  string
	}
)

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed migration filename %q: %s", e.Filename, e.Reason)
}

func (e *MalformedFilenameError) Is(target error) bool {
	return target == ErrInvalidDir
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate migration version %d: %s and %s", e.Version, e.First, e.Second)
}

func (e *DuplicateVersionError) Is(target error) bool {
	return target == ErrInvalidDir
}
