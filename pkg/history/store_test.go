package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/history"
	"github.com/pseudomuto/chmigrate/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	t.Run("single node", func(t *testing.T) {
		ch := testutil.NewFakeClickHouse()
		store := history.New(history.Config{ClickHouse: ch})

		require.NoError(t, store.EnsureSchema(t.Context()))
		require.True(t, ch.HasHistoryTable())

		sql := ch.ExecSQL()
		require.Len(t, sql, 1)
		require.Contains(t, sql[0], "CREATE TABLE IF NOT EXISTS schema_versions (")
		require.Contains(t, sql[0], "version UInt32")
		require.Contains(t, sql[0], "md5 String")
		require.Contains(t, sql[0], "script String")
		require.Contains(t, sql[0], "created_at DateTime DEFAULT now()")
		require.Contains(t, sql[0], "ENGINE = MergeTree\nORDER BY tuple(created_at)")
		require.NotContains(t, sql[0], "ON CLUSTER")
	})

	t.Run("cluster", func(t *testing.T) {
		ch := testutil.NewFakeClickHouse()
		store := history.New(history.Config{ClickHouse: ch, Cluster: "prod"})

		require.NoError(t, store.EnsureSchema(t.Context()))

		sql := ch.ExecSQL()
		require.Len(t, sql, 1)
		require.Contains(t, sql[0], `CREATE TABLE IF NOT EXISTS schema_versions ON CLUSTER "prod" (`)
		require.Contains(t, sql[0], "ENGINE = ReplicatedMergeTree('/clickhouse/tables/{database}/schema_versions', '{replica}')")
	})

	t.Run("idempotent", func(t *testing.T) {
		ch := testutil.NewFakeClickHouse()
		store := history.New(history.Config{ClickHouse: ch})

		require.NoError(t, store.EnsureSchema(t.Context()))
		require.NoError(t, store.EnsureSchema(t.Context()))
		require.True(t, ch.HasHistoryTable())
	})

	t.Run("exec error", func(t *testing.T) {
		ch := testutil.NewFakeClickHouse()
		ch.ExecErr = func(string) error { return errors.New("readonly") }
		store := history.New(history.Config{ClickHouse: ch})

		err := store.EnsureSchema(t.Context())
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create schema_versions table: readonly")
	})
}

func TestReadAll(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		store := history.New(history.Config{ClickHouse: testutil.NewFakeClickHouse()})

		records, err := store.ReadAll(t.Context())
		require.NoError(t, err)
		require.NotNil(t, records)
		require.Empty(t, records)
	})

	t.Run("ordered by version", func(t *testing.T) {
		created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		ch := testutil.NewFakeClickHouse().SeedHistory(
			testutil.HistoryRow{Version: 2, MD5: "b", Script: "2_two.sql", CreatedAt: created.Add(time.Minute)},
			testutil.HistoryRow{Version: 1, MD5: "a", Script: "1_one.sql", CreatedAt: created},
		)
		store := history.New(history.Config{ClickHouse: ch})

		records, err := store.ReadAll(t.Context())
		require.NoError(t, err)
		require.Equal(t, []history.Record{
			{Version: 1, Script: "1_one.sql", Checksum: "a", CreatedAt: created},
			{Version: 2, Script: "2_two.sql", Checksum: "b", CreatedAt: created.Add(time.Minute)},
		}, records)
	})

	t.Run("query error", func(t *testing.T) {
		ch := testutil.NewFakeClickHouse()
		ch.QueryErr = func(string) error { return errors.New("connection reset") }
		store := history.New(history.Config{ClickHouse: ch})

		_, err := store.ReadAll(t.Context())
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to query migration history: connection reset")
	})

	t.Run("iteration error", func(t *testing.T) {
		store := history.New(history.Config{ClickHouse: &rowsClickHouse{
			rows: testutil.NewRows().WithErr(errors.New("broken pipe")),
		}})

		_, err := store.ReadAll(t.Context())
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to iterate history rows")
	})

	t.Run("scan error", func(t *testing.T) {
		store := history.New(history.Config{ClickHouse: &rowsClickHouse{
			rows: testutil.NewRows([]any{"not-a-version", "s", "m", time.Now()}),
		}})

		_, err := store.ReadAll(t.Context())
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to scan history row")
	})
}

func TestAppend(t *testing.T) {
	ch := testutil.NewFakeClickHouse()
	store := history.New(history.Config{ClickHouse: ch})

	require.NoError(t, store.EnsureSchema(t.Context()))
	require.NoError(t, store.Append(t.Context(), 1, "1_init.sql", "abc"))
	require.NoError(t, store.Append(t.Context(), 2, "2_next.sql", "def"))

	execs := ch.Execs()
	require.Len(t, execs, 3)
	require.Equal(t, "INSERT INTO schema_versions (version, md5, script) VALUES (?, ?, ?)", execs[1].SQL)
	require.Equal(t, []any{uint32(1), "abc", "1_init.sql"}, execs[1].Args)

	records, err := store.ReadAll(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1, records[0].Version)
	require.Equal(t, "abc", records[0].Checksum)
	require.Equal(t, "2_next.sql", records[1].Script)
	require.False(t, records[1].CreatedAt.IsZero())
}

func TestAppendError(t *testing.T) {
	ch := testutil.NewFakeClickHouse()
	store := history.New(history.Config{ClickHouse: ch})

	// no EnsureSchema, so the insert hits a missing table
	err := store.Append(t.Context(), 3, "3_x.sql", "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to record migration 3")
}

type rowsClickHouse struct {
	testutil.FakeClickHouse
	rows *testutil.Rows
}

func (r *rowsClickHouse) Query(context.Context, string, ...any) (driver.Rows, error) {
	return r.rows, nil
}
