package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/history"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/pseudomuto/chmigrate/pkg/orchestrator"
	"github.com/pseudomuto/chmigrate/pkg/reconcile"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

const timeFormat = "2006-01-02 15:04:05"

type statusParams struct {
	fx.In

	Config  *config.Config
	Connect orchestrator.ConnectFunc
}

var stateIcons = map[reconcile.State]string{
	reconcile.StateApplied:  "✅",
	reconcile.StatePending:  "⏳",
	reconcile.StateModified: "❗",
	reconcile.StateDeleted:  "❗",
	reconcile.StateMissing:  "❗",
}

// status creates the status command. It never writes to the server: a
// missing schema_versions table reads as an empty history.
//
// Example usage:
//
//	chmigrate status --database analytics
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show migration status",
		Description: `Display every migration known to the directory or the history table.

Each version is shown as applied, pending, modified (edited after it was
applied), deleted (applied but the script is gone) or missing (not applied
but older than the newest applied version). The command exits non-zero when
any migration is modified, deleted or missing.`,
		Before: requireValidConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

func runStatus(ctx context.Context, cmd *cli.Command, p statusParams) error {
	cfg := p.Config

	scripts, err := migrator.LoadDir(os.DirFS(cfg.Migrations.Dir), cfg.LoadOptions())
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}

	ch, err := p.Connect(ctx, cfg.ClickHouse.Database)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	records, err := history.New(history.Config{
		ClickHouse: ch,
		Cluster:    cfg.ClickHouse.Cluster,
	}).ReadAll(ctx)
	if err != nil {
		return err
	}

	plan := reconcile.NewPlan(records, scripts)

	out := writer(cmd)
	fmt.Fprintf(out, "Migration directory: %s\n", cfg.Migrations.Dir)
	fmt.Fprintf(out, "Database: %s\n", cfg.ClickHouse.Database)
	fmt.Fprintln(out)

	if err := writePlan(out, plan); err != nil {
		return errors.Wrap(err, "failed to write status")
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d, applied: %d, pending: %d\n",
		len(plan.Entries),
		countState(plan, reconcile.StateApplied),
		len(plan.Pending),
	)

	return plan.Err
}

func writePlan(w io.Writer, plan *reconcile.Plan) error {
	if len(plan.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No migrations found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  \tVERSION\tSCRIPT\tSTATE\tAPPLIED AT")

	for _, e := range plan.Entries {
		script, appliedAt := "", ""
		if e.Script != nil {
			script = e.Script.Path
		}
		if e.Record != nil {
			if script == "" {
				script = e.Record.Script
			}
			appliedAt = e.Record.CreatedAt.UTC().Format(timeFormat)
		}

		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%s\n", stateIcons[e.State], e.Version, script, e.State, appliedAt)
	}

	return tw.Flush()
}

func countState(plan *reconcile.Plan, state reconcile.State) int {
	n := 0
	for _, e := range plan.Entries {
		if e.State == state {
			n++
		}
	}
	return n
}
