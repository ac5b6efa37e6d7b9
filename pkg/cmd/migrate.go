package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/orchestrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type migrateParams struct {
	fx.In

	Config  *config.Config
	Connect orchestrator.ConnectFunc
}

// migrate creates the migrate command for applying pending migrations.
//
// Command flags:
//   - --dry-run: Show what would be executed without applying changes
//
// Example usage:
//
//	# Apply all pending migrations
//	chmigrate migrate --host localhost --database analytics
//
//	# Show the SQL that would run, including ON CLUSTER rewrites
//	chmigrate migrate --cluster production --dry-run
func migrate(p migrateParams) *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"apply"},
		Usage:   "Apply pending migrations to ClickHouse",
		Description: `Apply every migration that is not yet recorded in schema_versions.

Scripts run in version order and each one is recorded after all of its
statements succeed. A failing statement stops the run: earlier scripts stay
recorded, the failing one is not, and the next run starts with it again.`,
		Before: requireValidConfig(p.Config),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would be executed without applying changes",
				Value: false,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMigrate(ctx, cmd, p)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command, p migrateParams) error {
	cfg := p.Config
	dryRun := cmd.Bool("dry-run")

	slog.Info("Starting migration execution",
		"database", cfg.ClickHouse.Database,
		"cluster", cfg.ClickHouse.Cluster,
		"dir", cfg.Migrations.Dir,
		"dry_run", dryRun,
	)

	res, err := orchestrator.New(orchestrator.Config{
		Connect:        p.Connect,
		Database:       cfg.ClickHouse.Database,
		CreateDatabase: cfg.ClickHouse.CreateDatabase,
		Cluster:        cfg.ClickHouse.Cluster,
		Migrations:     os.DirFS(cfg.Migrations.Dir),
		LoadOptions:    cfg.LoadOptions(),
		DryRun:         dryRun,
	}).Run(ctx)

	out := writer(cmd)
	if dryRun && err == nil {
		reportDryRun(out, res)
		return nil
	}

	reportResults(out, res)
	return err
}

func reportDryRun(w io.Writer, res *orchestrator.Result) {
	if len(res.Planned) == 0 {
		fmt.Fprintln(w, "All migrations are up to date.")
		return
	}

	fmt.Fprintln(w, "Dry run: showing migrations that would be executed")
	fmt.Fprintln(w)

	for _, planned := range res.Planned {
		fmt.Fprintf(w, "  ▶  %d %s (%d statements)\n",
			planned.Script.Version,
			planned.Script.Path,
			len(planned.SQL),
		)

		for _, sql := range planned.SQL {
			fmt.Fprintf(w, "     %s;\n", sql)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d migrations would be executed\n", len(res.Planned))
}

func reportResults(w io.Writer, res *orchestrator.Result) {
	for _, script := range res.Applied {
		fmt.Fprintf(w, "  ✅ %d %s\n", script.Version, script.Path)
	}

	if res.Failed != nil {
		fmt.Fprintf(w, "  ❌ %d %s\n", res.Failed.Version, res.Failed.Path)
	}

	if res.State == orchestrator.StateFailed {
		if len(res.Applied) > 0 || res.Failed != nil {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Summary: %d applied, %d not applied\n", len(res.Applied), len(res.Pending))
		}
		return
	}

	if len(res.Applied) == 0 {
		fmt.Fprintln(w, "All migrations are up to date.")
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d applied\n", len(res.Applied))
}
