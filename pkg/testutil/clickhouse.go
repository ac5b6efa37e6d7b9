package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/consts"
)

type (
	// FakeClickHouse is an in-memory stand-in for a ClickHouse connection. It
	// understands just enough SQL to back the history table, system.clusters
	// and version(); every other statement is recorded and succeeds.
	FakeClickHouse struct {
		// ExecErr, when set, is consulted before every Exec. A non-nil result
		// fails the statement without applying it.
		ExecErr func(sql string) error

		// QueryErr is the Query counterpart of ExecErr.
		QueryErr func(sql string) error

		// Clusters backs system.clusters lookups.
		Clusters map[string][]Replica

		// ServerVersion is returned by SELECT version().
		ServerVersion string

		mu           sync.Mutex
		execs        []Statement
		queries      []Statement
		historyTable bool
		history      []HistoryRow
		clock        time.Time
	}

	// Statement is a recorded Exec or Query call.
	Statement struct {
		SQL  string
		Args []any
	}

	// HistoryRow is a row of the fake schema_versions table.
	HistoryRow struct {
		Version   uint32
		MD5       string
		Script    string
		CreatedAt time.Time
	}

	// Replica is a row of the fake system.clusters table.
	Replica struct {
		Host    string
		Port    uint16
		Shard   uint32
		Replica uint32
	}
)

// NewFakeClickHouse returns an empty fake with no history table.
func NewFakeClickHouse() *FakeClickHouse {
	return &FakeClickHouse{
		ServerVersion: "25.7.1.1",
		clock:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SeedHistory creates the history table and inserts rows into it.
func (f *FakeClickHouse) SeedHistory(rows ...HistoryRow) *FakeClickHouse {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.historyTable = true
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = f.tick()
		}
		f.history = append(f.history, row)
	}

	return f
}

// HasHistoryTable reports whether schema_versions was created.
func (f *FakeClickHouse) HasHistoryTable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyTable
}

// History returns the rows of schema_versions in insertion order.
func (f *FakeClickHouse) History() []HistoryRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.history)
}

// Execs returns every Exec call in order.
func (f *FakeClickHouse) Execs() []Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.execs)
}

// ExecSQL returns the SQL of every Exec call in order.
func (f *FakeClickHouse) ExecSQL() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	sql := make([]string, len(f.execs))
	for i, e := range f.execs {
		sql[i] = e.SQL
	}
	return sql
}

// Queries returns every Query call in order.
func (f *FakeClickHouse) Queries() []Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

func (f *FakeClickHouse) Query(ctx context.Context, sql string, args ...any) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, Statement{SQL: sql, Args: args})
	if f.QueryErr != nil {
		if err := f.QueryErr(sql); err != nil {
			return nil, err
		}
	}

	switch {
	case strings.Contains(sql, "FROM "+consts.HistoryTable):
		if !f.historyTable {
			return nil, unknownTable()
		}
		return f.historyRows(), nil
	case strings.Contains(sql, "FROM system.clusters"):
		if len(args) == 0 {
			return nil, errors.New("system.clusters query needs a cluster argument")
		}
		name, _ := args[0].(string)
		values := make([][]any, 0, len(f.Clusters[name]))
		for _, r := range f.Clusters[name] {
			values = append(values, []any{r.Host, r.Port, r.Shard, r.Replica})
		}
		return NewRows(values...), nil
	case strings.HasPrefix(sql, "SELECT version()"):
		return NewRows([]any{f.ServerVersion}), nil
	}

	return NewRows(), nil
}

func (f *FakeClickHouse) Exec(ctx context.Context, sql string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.execs = append(f.execs, Statement{SQL: sql, Args: args})
	if f.ExecErr != nil {
		if err := f.ExecErr(sql); err != nil {
			return err
		}
	}

	switch {
	case strings.HasPrefix(sql, "CREATE TABLE IF NOT EXISTS "+consts.HistoryTable):
		f.historyTable = true
	case strings.HasPrefix(sql, "INSERT INTO "+consts.HistoryTable):
		if !f.historyTable {
			return unknownTable()
		}
		if len(args) != 3 {
			return errors.Errorf("history insert expects 3 arguments, got %d", len(args))
		}

		version, ok := args[0].(uint32)
		if !ok {
			return errors.Errorf("version must be a uint32, got %T", args[0])
		}
		md5, _ := args[1].(string)
		script, _ := args[2].(string)

		f.history = append(f.history, HistoryRow{
			Version:   version,
			MD5:       md5,
			Script:    script,
			CreatedAt: f.tick(),
		})
	}

	return nil
}

func (f *FakeClickHouse) Close() error {
	return nil
}

func (f *FakeClickHouse) historyRows() *Rows {
	rows := slices.Clone(f.history)
	slices.SortStableFunc(rows, func(a, b HistoryRow) int {
		if a.Version != b.Version {
			return int(a.Version) - int(b.Version)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{r.Version, r.Script, r.MD5, r.CreatedAt}
	}

	return NewRows(values...)
}

// tick returns a strictly increasing timestamp so ordering by created_at is
// deterministic.
func (f *FakeClickHouse) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func unknownTable() error {
	return &clickhouse.Exception{
		Code:    60,
		Name:    "DB::Exception",
		Message: "Table default." + consts.HistoryTable + " does not exist",
	}
}
