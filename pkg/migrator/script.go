package migrator

import (
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/ddl"
)

const (
	// SplitPlain splits scripts on every `;`, including ones inside string
	// literals and comments.
	SplitPlain SplitMode = "plain"

	// SplitLexer splits scripts on `;` tokens only, leaving semicolons in
	// strings, quoted identifiers and comments alone.
	SplitLexer SplitMode = "lexer"
)

type (
	// SplitMode selects how multi-statement scripts are broken into statements.
	SplitMode string

	// LoadOptions controls how script contents become statements.
	LoadOptions struct {
		// MultiStatement splits each file into statements. When false the
		// whole (trimmed) file is sent as a single statement.
		MultiStatement bool

		// SplitMode defaults to SplitPlain.
		SplitMode SplitMode
	}

	// Script is a single migration file.
	Script struct {
		// Version is the positive integer prefix of the filename.
		Version int

		// Name is the filename without the version prefix and extension.
		Name string

		// Path is the filename relative to the migrations directory. It is
		// recorded in the history table.
		Path string

		// Checksum is the hex encoded MD5 of the file bytes.
		Checksum string

		// Statements are executed in order.
		Statements []string
	}
)

// Valid reports whether m is a known split mode. The empty mode is valid.
func (m SplitMode) Valid() bool {
	switch m {
	case "", SplitPlain, SplitLexer:
		return true
	}

	return false
}

// LoadDir reads every <version>_<name>.sql file at the top level of dir and
// returns the scripts ordered by version.
//
// Subdirectories and files without the .sql extension are ignored. A .sql
// file with no usable version yields a *MalformedFilenameError, and two files
// with the same version yield a *DuplicateVersionError.
func LoadDir(dir fs.FS, opts LoadOptions) ([]*Script, error) {
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migrations directory")
	}

	var (
		scripts []*Script
		seen    = make(map[int]string)
	)

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != consts.MigrationExt {
			continue
		}

		version, label, err := ParseFilename(entry.Name())
		if err != nil {
			return nil, err
		}

		if other, ok := seen[version]; ok {
			return nil, &DuplicateVersionError{Version: version, First: other, Second: entry.Name()}
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(dir, entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration: %s", entry.Name())
		}

		stmts, err := splitContent(string(content), opts)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to split migration: %s", entry.Name())
		}

		scripts = append(scripts, &Script{
			Version:    version,
			Name:       label,
			Path:       entry.Name(),
			Checksum:   Checksum(content),
			Statements: stmts,
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Version < scripts[j].Version
	})

	return scripts, nil
}

// ParseFilename extracts the version and label from a migration filename.
//
//	ParseFilename("0002_add_email.sql") // 2, "add_email", nil
//	ParseFilename("7.sql")              // 7, "", nil
//	ParseFilename("init.sql")           // error
func ParseFilename(name string) (int, string, error) {
	base := strings.TrimSuffix(name, consts.MigrationExt)

	end := 0
	for end < len(base) && base[end] >= '0' && base[end] <= '9' {
		end++
	}

	if end == 0 {
		return 0, "", &MalformedFilenameError{Filename: name, Reason: "missing numeric version prefix"}
	}

	rest := base[end:]
	if rest != "" && rest[0] != '_' {
		return 0, "", &MalformedFilenameError{Filename: name, Reason: "version must be followed by '_'"}
	}

	n, err := strconv.ParseUint(base[:end], 10, 32)
	version := int(n)
	if err != nil || version < 0 {
		// version < 0 only when int is 32 bits wide.
		return 0, "", &MalformedFilenameError{Filename: name, Reason: "version is out of range"}
	}

	if version == 0 {
		return 0, "", &MalformedFilenameError{Filename: name, Reason: "version must be positive"}
	}

	return version, strings.TrimPrefix(rest, "_"), nil
}

// Checksum returns the hex encoded MD5 of content.
func Checksum(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func splitContent(content string, opts LoadOptions) ([]string, error) {
	if !opts.MultiStatement {
		if stmt := strings.TrimSpace(content); stmt != "" {
			return []string{stmt}, nil
		}
		return nil, nil
	}

	switch opts.SplitMode {
	case "", SplitPlain:
		return ddl.SplitStatements(content, consts.StatementDelimiter), nil
	case SplitLexer:
		return ddl.SplitStatementsLexer(content)
	}

	return nil, errors.Errorf("unknown split mode: %s", opts.SplitMode)
}
