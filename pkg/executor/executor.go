package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/ddl"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
)

type (
	// ClickHouse is the connection statements are sent over.
	ClickHouse interface {
		Exec(context.Context, string, ...any) error
	}

	// Config configures an Executor.
	Config struct {
		ClickHouse ClickHouse

		// Cluster enables ON CLUSTER rewriting when set.
		Cluster string

		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Executor sends statements to ClickHouse sequentially.
	Executor struct {
		ch      ClickHouse
		cluster string
		logger  *slog.Logger
	}

	// StatementError identifies the statement that stopped execution.
	StatementError struct {
		// Version of the migration, 0 for statements outside a migration.
		Version int

		// Index is the zero based position of the statement.
		Index int

		// SQL is the statement as it was sent to the server.
		SQL string

		Err error
	}
)

// New returns an Executor. It fails when the cluster name can't be quoted.
func New(cfg Config) (*Executor, error) {
	if cfg.Cluster != "" {
		if err := ddl.ValidateCluster(cfg.Cluster); err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		ch:      cfg.ClickHouse,
		cluster: cfg.Cluster,
		logger:  logger,
	}, nil
}

// Cluster returns the configured cluster name, if any.
func (e *Executor) Cluster() string {
	return e.cluster
}

// Rewrite returns the statement that Execute would send for stmt.
func (e *Executor) Rewrite(stmt string) string {
	if e.cluster == "" {
		return stmt
	}

	sql, _ := ddl.InjectOnCluster(stmt, e.cluster)
	return sql
}

// warnUnhandled logs DDL statements that were sent without ON CLUSTER
// because they couldn't be parsed.
func (e *Executor) warnUnhandled(ctx context.Context, version int, stmt, sql string) {
	if e.cluster == "" || sql != stmt || !ddl.IsUnhandledDDL(stmt) {
		return
	}

	e.logger.WarnContext(
		ctx,
		"Statement is not distributed and will only run on the connected node",
		"cluster", e.cluster,
		"version", version,
		"sql", stmt,
	)
}

// Execute sends a single statement, rewritten for the cluster if one is
// configured.
func (e *Executor) Execute(ctx context.Context, stmt string) error {
	sql := e.Rewrite(stmt)
	if sql != stmt {
		e.logger.DebugContext(ctx, "Rewrote statement for cluster", "cluster", e.cluster, "sql", sql)
	}
	e.warnUnhandled(ctx, 0, stmt, sql)

	return e.ch.Exec(ctx, sql)
}

// ExecuteAll runs statements in order and stops at the first failure, which
// is returned as a *StatementError.
func (e *Executor) ExecuteAll(ctx context.Context, statements []string) error {
	return e.executeAll(ctx, 0, statements)
}

// ExecuteScript runs every statement of script. Failures are reported as a
// *StatementError carrying the script's version.
func (e *Executor) ExecuteScript(ctx context.Context, script *migrator.Script) error {
	return e.executeAll(ctx, script.Version, script.Statements)
}

func (e *Executor) executeAll(ctx context.Context, version int, statements []string) error {
	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "execution cancelled")
		}

		sql := e.Rewrite(stmt)
		e.warnUnhandled(ctx, version, stmt, sql)
		e.logger.DebugContext(ctx, "Executing statement", "version", version, "index", i, "sql", sql)

		if err := e.ch.Exec(ctx, sql); err != nil {
			return &StatementError{Version: version, Index: i, SQL: sql, Err: err}
		}
	}

	return nil
}

func (e *StatementError) Error() string {
	if e.Version == 0 {
		return fmt.Sprintf("failed to execute statement %d: %s: %v", e.Index+1, e.SQL, e.Err)
	}

	return fmt.Sprintf("migration %d: failed to execute statement %d: %s: %v", e.Version, e.Index+1, e.SQL, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}
