package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/stretchr/testify/require"
)

// MigrationsDir writes files (name -> content) to a fresh temp directory and
// returns its path.
func MigrationsDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		WriteMigration(t, dir, name, content)
	}

	return dir
}

// WriteMigration writes a single file into dir, creating parent directories
// as needed.
func WriteMigration(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), consts.ModeDir), "Failed to create directory for %s", name)
	require.NoError(t, os.WriteFile(path, []byte(content), consts.ModeFile), "Failed to write %s", name)
}
