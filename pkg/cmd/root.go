package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/orchestrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	// Params are the dependencies Run pulls from the fx container.
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Config     *config.Config
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	// Version describes the build and is printed by --version.
	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run registers the CLI application with the fx lifecycle. The application
// runs once the container has started, and the process exits with status 1
// when the command fails.
//
// Global flags configure the connection and the migrations directory; see
// the package documentation for the full list and their environment
// variables. With no command given, migrate runs.
func Run(p Params) {
	app := NewApp(p.Version, p.Config, p.Commands)

	p.Lifecycle.Append(fx.StartHook(func() {
		// run outside the start hook so long migrations aren't bound by
		// fx's start timeout
		go func() {
			code := 0
			if err := app.Run(p.Ctx, p.Args); err != nil {
				slog.Error("Error running command", "err", err)
				code = 1
			}

			_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
		}()
	}))
}

// NewApp builds the root command. Flags are resolved into cfg before any
// subcommand runs.
func NewApp(version *Version, cfg *config.Config, commands []*cli.Command) *cli.Command {
	if version == nil {
		version = &Version{Version: "dev"}
	}

	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", version.Timestamp)
	}

	return &cli.Command{
		Name:  "chmigrate",
		Usage: "Apply versioned SQL migrations to ClickHouse",
		Description: `chmigrate applies numbered SQL scripts from a migrations directory to a
ClickHouse database, recording each one in the schema_versions table.

Scripts that were applied and then edited or removed, or that are older than
the newest applied script, stop the run before anything is executed. When a
cluster is configured, DDL runs ON CLUSTER and the history table is
replicated.`,
		Version:        version.Version,
		DefaultCommand: "migrate",
		Flags:          globalFlags(),
		Before:         configure(cfg),
		Commands:       commands,
	}
}

// connector opens clients with whatever the configuration holds when the
// connection is made, so flag overrides applied after fx wiring still count.
func connector(cfg *config.Config) orchestrator.ConnectFunc {
	return func(ctx context.Context, database string) (orchestrator.ClickHouse, error) {
		client, err := clickhouse.NewClient(ctx, cfg.ClientOptions().WithDatabase(database))
		if err != nil {
			return nil, err
		}

		return client, nil
	}
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
