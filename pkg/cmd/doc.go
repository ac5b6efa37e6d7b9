// Package cmd provides the chmigrate command line interface.
//
// Commands are built as *cli.Command values (urfave/cli/v3) and registered
// through fx so they can share the loaded configuration and a connection
// factory.
//
// # Available Commands
//
//   - migrate: Apply every pending migration (default when no command is given)
//   - status: Show applied, pending and problem migrations
//
// # Configuration
//
// Settings come from chmigrate.yaml (or the file named by --config or
// CHMIGRATE_CONFIG), then environment variables, then flags:
//
//	chmigrate --host ch.internal --database analytics migrate
//	DB_HOST=ch.internal DB_NAME=analytics chmigrate
//	chmigrate --cluster prod --dry-run
//
// Flags are inherited by subcommands, so they may be given before or after
// the command name.
package cmd
