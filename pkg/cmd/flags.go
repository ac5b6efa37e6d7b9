package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	trim := cli.StringConfig{TrimSpace: true}

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "the chmigrate config file",
			Sources: cli.EnvVars(config.EnvConfigFile),
			Value:   consts.DefaultConfigFile,
			Config:  trim,
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "ClickHouse host",
			Sources: cli.EnvVars("DB_HOST"),
			Config:  trim,
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "ClickHouse native protocol port",
			Sources: cli.EnvVars("DB_PORT"),
		},
		&cli.StringFlag{
			Name:    "user",
			Usage:   "ClickHouse user",
			Sources: cli.EnvVars("DB_USER"),
			Config:  trim,
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "ClickHouse password",
			Sources: cli.EnvVars("DB_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"db"},
			Usage:   "database to migrate",
			Sources: cli.EnvVars("DB_NAME"),
			Config:  trim,
		},
		&cli.StringFlag{
			Name:    "cluster",
			Usage:   "ClickHouse cluster name for distributed deployments",
			Sources: cli.EnvVars("CLUSTER"),
			Config:  trim,
		},
		&cli.BoolFlag{
			Name:  "create-database",
			Usage: "create the database before migrating",
		},
		&cli.StringFlag{
			Name:    "migrations-dir",
			Aliases: []string{"d"},
			Usage:   "directory holding <version>_<name>.sql scripts",
			Sources: cli.EnvVars("MIGRATIONS_DIR"),
			Config:  trim,
		},
		&cli.StringFlag{
			Name:    "multi-statement",
			Usage:   "split scripts into statements on ';' (1, true, yes or y)",
			Sources: cli.EnvVars("MULTI_STATEMENT"),
			Config:  trim,
		},
		&cli.StringFlag{
			Name:   "split-mode",
			Usage:  "statement splitting: plain or lexer",
			Config: trim,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Config:  trim,
		},
		&cli.BoolFlag{
			Name:  "secure",
			Usage: "connect using TLS",
		},
		&cli.StringFlag{
			Name:   "cafile",
			Usage:  "Certificate authority pem",
			Config: trim,
		},
		&cli.StringFlag{
			Name:   "certfile",
			Usage:  "Certificate public key file",
			Config: trim,
		},
		&cli.StringFlag{
			Name:   "keyfile",
			Usage:  "Certificate private key file",
			Config: trim,
		},
	}
}

// configure loads the file named by --config when one was given, layers
// flags and environment variables on top of it and installs the logger.
func configure(cfg *config.Config) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cmd.IsSet("config") {
			loaded, err := loadConfigFile(cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			*cfg = *loaded
		}

		applyFlags(cmd, cfg)

		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return ctx, err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(errWriter(cmd), &slog.HandlerOptions{Level: level})))
		slog.Debug("Loaded configuration", "config", cfg)
		return ctx, nil
	}
}

// loadConfigFile tolerates a missing default file since every setting can
// also come from flags.
func loadConfigFile(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == consts.DefaultConfigFile {
		return config.Default(), nil
	}

	return config.LoadConfigFile(path)
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	ch := &cfg.ClickHouse

	setString := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}

	setBool := func(name string, dst *bool) {
		if cmd.IsSet(name) {
			*dst = cmd.Bool(name)
		}
	}

	setString("host", &ch.Host)
	setString("user", &ch.User)
	setString("password", &ch.Password)
	setString("database", &ch.Database)
	setString("cluster", &ch.Cluster)
	setString("cafile", &ch.TLS.CAFile)
	setString("certfile", &ch.TLS.CertFile)
	setString("keyfile", &ch.TLS.KeyFile)
	setString("migrations-dir", &cfg.Migrations.Dir)
	setString("log-level", &cfg.LogLevel)
	setBool("create-database", &ch.CreateDatabase)
	setBool("secure", &ch.Secure)

	if cmd.IsSet("port") {
		ch.Port = int(cmd.Int("port"))
	}

	if cmd.IsSet("multi-statement") {
		cfg.SetMultiStatement(config.ParseBool(cmd.String("multi-statement")))
	}

	if cmd.IsSet("split-mode") {
		cfg.Migrations.SplitMode = migrator.SplitMode(cmd.String("split-mode"))
	}
}

// requireValidConfig stops a command before it touches the server when the
// configuration can't work.
func requireValidConfig(cfg *config.Config) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if err := cfg.Validate(); err != nil {
			return ctx, errors.Wrap(err, "invalid configuration")
		}

		return ctx, nil
	}
}
