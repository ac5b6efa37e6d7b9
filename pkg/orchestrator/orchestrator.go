package orchestrator

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/ddl"
	"github.com/pseudomuto/chmigrate/pkg/executor"
	"github.com/pseudomuto/chmigrate/pkg/history"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/pseudomuto/chmigrate/pkg/reconcile"
)

type (
	// ClickHouse is a database connection. The Orchestrator closes every
	// connection it opens.
	ClickHouse interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
		Exec(context.Context, string, ...any) error
		Close() error
	}

	// ConnectFunc opens a connection to database.
	ConnectFunc func(ctx context.Context, database string) (ClickHouse, error)

	// Config configures an Orchestrator.
	Config struct {
		// Connect is called once for the target database, and once more for
		// the default database when CreateDatabase is set.
		Connect ConnectFunc

		// Database is the database migrations are applied to.
		Database string

		// CreateDatabase creates Database before connecting to it.
		CreateDatabase bool

		// Cluster distributes DDL and the history table to every replica.
		Cluster string

		// Migrations is the directory holding the scripts.
		Migrations  fs.FS
		LoadOptions migrator.LoadOptions

		// DryRun stops after reconciliation. It writes nothing: the database
		// and history table are not created either.
		DryRun bool

		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Orchestrator runs migrations.
	Orchestrator struct {
		cfg    Config
		logger *slog.Logger
	}

	// Planned is an outstanding script with the SQL that will be sent for it.
	Planned struct {
		Script *migrator.Script
		SQL    []string
	}

	// Result describes how far a run got.
	Result struct {
		// State is the final state of the run.
		State State

		// Transitions lists every state the run entered, in order.
		Transitions []Transition

		// Applied are the scripts that ran and were recorded.
		Applied []*migrator.Script

		// Pending are the outstanding scripts that did not run.
		Pending []*migrator.Script

		// Planned holds every outstanding script found by reconciliation.
		Planned []Planned

		// Failed is the script that stopped the run, if any.
		Failed *migrator.Script
	}
)

// New returns an Orchestrator for cfg.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{cfg: cfg, logger: logger}
}

// Run performs a migration run. The returned Result is never nil and tells
// how far the run got, even when an error is returned.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	o.enter(ctx, res, Transition{State: StateIdle})

	if err := o.run(ctx, res); err != nil {
		o.enter(ctx, res, Transition{State: StateFailed})
		return res, err
	}

	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, res *Result) error {
	if o.cfg.Cluster != "" {
		if err := ddl.ValidateCluster(o.cfg.Cluster); err != nil {
			return err
		}
	}

	// loading first keeps a bad directory from touching the server at all
	scripts, err := migrator.LoadDir(o.cfg.Migrations, o.cfg.LoadOptions)
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}
	o.logger.DebugContext(ctx, "Loaded migrations", "count", len(scripts))

	if o.cfg.CreateDatabase && !o.cfg.DryRun {
		if err := o.createDatabase(ctx); err != nil {
			return err
		}
	}

	ch, err := o.cfg.Connect(ctx, o.cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	o.logServerVersion(ctx, ch)

	if o.cfg.Cluster != "" {
		if err := o.checkCluster(ctx, ch); err != nil {
			return err
		}
	}

	exec, err := executor.New(executor.Config{ClickHouse: ch, Cluster: o.cfg.Cluster, Logger: o.logger})
	if err != nil {
		return err
	}

	store := history.New(history.Config{ClickHouse: ch, Cluster: o.cfg.Cluster, Logger: o.logger})
	if !o.cfg.DryRun {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		o.enter(ctx, res, Transition{State: StateSchemaEnsured})
	}

	records, err := store.ReadAll(ctx)
	if err != nil {
		return err
	}

	pending, err := reconcile.Reconcile(records, scripts)
	if err != nil {
		return err
	}

	res.Pending = pending
	for _, s := range pending {
		planned := Planned{Script: s, SQL: make([]string, len(s.Statements))}
		for i, stmt := range s.Statements {
			planned.SQL[i] = exec.Rewrite(stmt)
		}
		res.Planned = append(res.Planned, planned)
	}
	o.enter(ctx, res, Transition{State: StateReconciled})

	o.logger.InfoContext(ctx, "Reconciled migrations",
		"applied", len(records),
		"pending", len(pending),
		"dry_run", o.cfg.DryRun,
	)

	if o.cfg.DryRun {
		return nil
	}

	for len(res.Pending) > 0 {
		script := res.Pending[0]
		o.enter(ctx, res, Transition{State: StateApplying, Version: script.Version})
		o.logger.InfoContext(ctx, "Applying migration", "version", script.Version, "script", script.Path)

		if err := exec.ExecuteScript(ctx, script); err != nil {
			res.Failed = script
			return err
		}

		if err := store.Append(ctx, script.Version, script.Path, script.Checksum); err != nil {
			res.Failed = script
			return err
		}

		res.Applied = append(res.Applied, script)
		res.Pending = res.Pending[1:]
		o.logger.InfoContext(ctx, "Applied migration", "version", script.Version, "script", script.Path)
	}

	o.enter(ctx, res, Transition{State: StateDone})
	return nil
}

func (o *Orchestrator) createDatabase(ctx context.Context) error {
	admin, err := o.cfg.Connect(ctx, consts.DefaultDBName)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	o.logger.InfoContext(ctx, "Creating database", "database", o.cfg.Database, "cluster", o.cfg.Cluster)
	return clickhouse.CreateDatabase(ctx, admin, o.cfg.Database, o.cfg.Cluster)
}

func (o *Orchestrator) checkCluster(ctx context.Context, ch ClickHouse) error {
	replicas, err := clickhouse.ClusterReplicas(ctx, ch, o.cfg.Cluster)
	if err != nil {
		return err
	}

	for _, r := range replicas {
		o.logger.InfoContext(ctx, "Cluster replica",
			"cluster", o.cfg.Cluster,
			"host", r.Host,
			"port", r.Port,
			"shard", r.Shard,
			"replica", r.Replica,
		)
	}

	return nil
}

func (o *Orchestrator) logServerVersion(ctx context.Context, ch ClickHouse) {
	version, err := clickhouse.ServerVersion(ctx, ch)
	if err != nil {
		o.logger.WarnContext(ctx, "Unable to determine server version", "error", err)
		return
	}

	o.logger.InfoContext(ctx, "Connected to ClickHouse", "version", version.String(), "database", o.cfg.Database)
}

func (o *Orchestrator) enter(ctx context.Context, res *Result, t Transition) {
	res.State = t.State
	res.Transitions = append(res.Transitions, t)
	o.logger.DebugContext(ctx, "Migration run state", "state", t.String())
}
