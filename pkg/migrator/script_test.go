package migrator_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/stretchr/testify/require"
)

const (
	initSQL   = "CREATE TABLE users (id UInt64) ENGINE = MergeTree ORDER BY id;\n"
	alterSQL  = "ALTER TABLE users ADD COLUMN email String;\nALTER TABLE users ADD COLUMN name String;\n"
	initSum   = "caca7a7e18851f30da227af2b84818e7"
	alterSum  = "1a1193c25e09f12859302d96b3af9690"
	stringSQL = "INSERT INTO settings VALUES ('a;b');\nSELECT 1;\n"
)

func TestLoadDir(t *testing.T) {
	dir := fstest.MapFS{
		"0002_add_columns.sql":   {Data: []byte(alterSQL)},
		"1_init.sql":             {Data: []byte(initSQL)},
		"README.md":              {Data: []byte("# migrations")},
		"nested/3_ignored.sql":   {Data: []byte("SELECT 1")},
		"10_seed.sql":            {Data: []byte(stringSQL)},
		"notes.sql.bak":          {Data: []byte("garbage")},
		"nested/deeper/4_no.sql": {Data: []byte("SELECT 1")},
	}

	scripts, err := migrator.LoadDir(dir, migrator.LoadOptions{MultiStatement: true})
	require.NoError(t, err)
	require.Len(t, scripts, 3)

	require.Equal(t, &migrator.Script{
		Version:    1,
		Name:       "init",
		Path:       "1_init.sql",
		Checksum:   initSum,
		Statements: []string{"CREATE TABLE users (id UInt64) ENGINE = MergeTree ORDER BY id"},
	}, scripts[0])

	require.Equal(t, 2, scripts[1].Version)
	require.Equal(t, "add_columns", scripts[1].Name)
	require.Equal(t, "0002_add_columns.sql", scripts[1].Path)
	require.Equal(t, alterSum, scripts[1].Checksum)
	require.Equal(t, []string{
		"ALTER TABLE users ADD COLUMN email String",
		"ALTER TABLE users ADD COLUMN name String",
	}, scripts[1].Statements)

	// plain splitting breaks on the semicolon in the literal
	require.Equal(t, 10, scripts[2].Version)
	require.Equal(t, []string{"INSERT INTO settings VALUES ('a", "b')", "SELECT 1"}, scripts[2].Statements)
}

func TestLoadDirLexerSplit(t *testing.T) {
	dir := fstest.MapFS{
		"1_seed.sql": {Data: []byte(stringSQL)},
	}

	scripts, err := migrator.LoadDir(dir, migrator.LoadOptions{MultiStatement: true, SplitMode: migrator.SplitLexer})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	require.Equal(t, []string{"INSERT INTO settings VALUES ('a;b')", "SELECT 1"}, scripts[0].Statements)
}

func TestLoadDirSingleStatement(t *testing.T) {
	dir := fstest.MapFS{
		"1_add_columns.sql": {Data: []byte(alterSQL)},
		"2_empty.sql":       {Data: []byte("  \n")},
	}

	scripts, err := migrator.LoadDir(dir, migrator.LoadOptions{})
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	require.Equal(t, []string{
		"ALTER TABLE users ADD COLUMN email String;\nALTER TABLE users ADD COLUMN name String;",
	}, scripts[0].Statements)
	require.Empty(t, scripts[1].Statements)
}

func TestLoadDirEmpty(t *testing.T) {
	scripts, err := migrator.LoadDir(fstest.MapFS{}, migrator.LoadOptions{MultiStatement: true})
	require.NoError(t, err)
	require.Empty(t, scripts)
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("malformed filename", func(t *testing.T) {
		dir := fstest.MapFS{
			"1_init.sql": {Data: []byte(initSQL)},
			"init.sql":   {Data: []byte(initSQL)},
		}

		_, err := migrator.LoadDir(dir, migrator.LoadOptions{MultiStatement: true})
		require.Error(t, err)
		require.ErrorIs(t, err, migrator.ErrInvalidDir)

		var malformed *migrator.MalformedFilenameError
		require.True(t, errors.As(err, &malformed))
		require.Equal(t, "init.sql", malformed.Filename)
	})

	t.Run("duplicate version", func(t *testing.T) {
		dir := fstest.MapFS{
			"1_a.sql":  {Data: []byte(initSQL)},
			"01_b.sql": {Data: []byte(alterSQL)},
		}

		_, err := migrator.LoadDir(dir, migrator.LoadOptions{MultiStatement: true})
		require.Error(t, err)
		require.ErrorIs(t, err, migrator.ErrInvalidDir)

		var dup *migrator.DuplicateVersionError
		require.True(t, errors.As(err, &dup))
		require.Equal(t, 1, dup.Version)
		// ReadDir sorts by name so 01_b.sql is seen first
		require.Equal(t, "01_b.sql", dup.First)
		require.Equal(t, "1_a.sql", dup.Second)
		require.Contains(t, err.Error(), "01_b.sql and 1_a.sql")
	})

	t.Run("unknown split mode", func(t *testing.T) {
		dir := fstest.MapFS{"1_a.sql": {Data: []byte(initSQL)}}

		_, err := migrator.LoadDir(dir, migrator.LoadOptions{MultiStatement: true, SplitMode: "regex"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown split mode: regex")
	})
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		version  int
		label    string
		wantErr  bool
	}{
		{filename: "1_initial_schema.sql", version: 1, label: "initial_schema"},
		{filename: "0002_add_column.sql", version: 2, label: "add_column"},
		{filename: "4294967295_max.sql", version: 4294967295, label: "max"},
		{filename: "20240101120000_events.sql", wantErr: true},
		{filename: "7.sql", version: 7, label: ""},
		{filename: "42_.sql", version: 42, label: ""},
		{filename: "init.sql", wantErr: true},
		{filename: "_1_init.sql", wantErr: true},
		{filename: "1-init.sql", wantErr: true},
		{filename: "1a_init.sql", wantErr: true},
		{filename: "0_init.sql", wantErr: true},
		{filename: "000_init.sql", wantErr: true},
		{filename: "4294967296_over.sql", wantErr: true},
		{filename: "99999999999999999999_big.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, label, err := migrator.ParseFilename(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, migrator.ErrInvalidDir)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.version, version)
			require.Equal(t, tt.label, label)
		})
	}
}

func TestChecksum(t *testing.T) {
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", migrator.Checksum(nil))
	require.Equal(t, initSum, migrator.Checksum([]byte(initSQL)))
	require.NotEqual(t, initSum, migrator.Checksum([]byte(initSQL+" ")))
}

func TestSplitModeValid(t *testing.T) {
	require.True(t, migrator.SplitMode("").Valid())
	require.True(t, migrator.SplitPlain.Valid())
	require.True(t, migrator.SplitLexer.Valid())
	require.False(t, migrator.SplitMode("regex").Valid())
}
