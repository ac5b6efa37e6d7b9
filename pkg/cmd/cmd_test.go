package cmd

import (
	"context"
	"testing"

	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/orchestrator"
	"github.com/pseudomuto/chmigrate/pkg/testutil"
)

const (
	initSQL = "CREATE TABLE users (id UInt64) ENGINE = MergeTree ORDER BY id;\n"
	addSQL  = "ALTER TABLE users ADD COLUMN email String;\n"
)

// fixture is a config pointing at a temp migrations directory plus a fake
// server every connection resolves to.
type fixture struct {
	cfg       *config.Config
	ch        *testutil.FakeClickHouse
	dir       string
	databases []string
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()

	f := &fixture{
		ch:  testutil.NewFakeClickHouse(),
		dir: testutil.MigrationsDir(t, files),
	}

	f.cfg = config.Default()
	f.cfg.ClickHouse.Database = "analytics"
	f.cfg.Migrations.Dir = f.dir

	return f
}

func (f *fixture) connect(_ context.Context, database string) (orchestrator.ClickHouse, error) {
	f.databases = append(f.databases, database)
	return f.ch, nil
}

func (f *fixture) migrateParams() migrateParams {
	return migrateParams{Config: f.cfg, Connect: f.connect}
}

func (f *fixture) statusParams() statusParams {
	return statusParams{Config: f.cfg, Connect: f.connect}
}
