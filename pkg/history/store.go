package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/ddl"
)

// unknownTableCode is ClickHouse's UNKNOWN_TABLE error code.
const unknownTableCode = 60

type (
	// ClickHouse is the subset of a connection the Store needs.
	ClickHouse interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
		Exec(context.Context, string, ...any) error
	}

	// Config configures a Store.
	Config struct {
		ClickHouse ClickHouse

		// Cluster, when set, creates the table ON CLUSTER with a replicated
		// engine.
		Cluster string

		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Store provides access to the schema_versions table.
	Store struct {
		ch      ClickHouse
		cluster string
		logger  *slog.Logger
	}

	// Record is a single row of schema_versions.
	Record struct {
		Version   int
		Script    string
		Checksum  string
		CreatedAt time.Time
	}
)

// New returns a Store for the database the connection points at.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		ch:      cfg.ClickHouse,
		cluster: cfg.Cluster,
		logger:  logger,
	}
}

// EnsureSchema creates schema_versions if it doesn't exist. It is safe to call
// on every run.
func (s *Store) EnsureSchema(ctx context.Context) error {
	sql := s.createTableSQL()
	s.logger.DebugContext(ctx, "Ensuring history table", "sql", sql)

	if err := s.ch.Exec(ctx, sql); err != nil {
		return errors.Wrapf(err, "failed to create %s table", consts.HistoryTable)
	}

	return nil
}

// ReadAll returns every recorded row ordered by version. A database without
// the history table has no history, so a missing table yields no records.
func (s *Store) ReadAll(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf(
		"SELECT version, script, md5, created_at FROM %s ORDER BY version, created_at",
		consts.HistoryTable,
	)

	rows, err := s.ch.Query(ctx, query)
	if err != nil {
		if isUnknownTable(err) {
			return []Record{}, nil
		}
		return nil, errors.Wrap(err, "failed to query migration history")
	}
	defer func() { _ = rows.Close() }()

	records := []Record{}
	for rows.Next() {
		var (
			rec     Record
			version uint32
		)

		if err := rows.Scan(&version, &rec.Script, &rec.Checksum, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan history row")
		}

		rec.Version = int(version)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate history rows")
	}

	return records, nil
}

// Append records that version was applied from script with the given
// checksum. created_at is assigned by the server.
func (s *Store) Append(ctx context.Context, version int, script, checksum string) error {
	query := fmt.Sprintf("INSERT INTO %s (version, md5, script) VALUES (?, ?, ?)", consts.HistoryTable)

	if err := s.ch.Exec(ctx, query, uint32(version), checksum, script); err != nil {
		return errors.Wrapf(err, "failed to record migration %d", version)
	}

	s.logger.DebugContext(ctx, "Recorded migration", "version", version, "script", script, "md5", checksum)
	return nil
}

func (s *Store) createTableSQL() string {
	table := consts.HistoryTable
	if s.cluster == "" {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version UInt32,
    md5 String,
    script String,
    created_at DateTime DEFAULT now()
)
ENGINE = MergeTree
ORDER BY tuple(created_at)`, table)
	}

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s%s (
    version UInt32,
    md5 String,
    script String,
    created_at DateTime DEFAULT now()
)
ENGINE = ReplicatedMergeTree('/clickhouse/tables/{database}/%s', '{replica}')
ORDER BY tuple(created_at)`, table, ddl.OnClusterClause(s.cluster), table)
}

func isUnknownTable(err error) bool {
	var exception *clickhouse.Exception
	return errors.As(err, &exception) && exception.Code == unknownTableCode
}
