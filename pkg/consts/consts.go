package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the config file looked up when --config isn't given
	DefaultConfigFile = "chmigrate.yaml"

	// DefaultDBHost is the ClickHouse host used when none is configured
	DefaultDBHost = "localhost"

	// DefaultDBPort is the ClickHouse native protocol port
	DefaultDBPort = 9000

	// DefaultDBUser is the ClickHouse user used when none is configured
	DefaultDBUser = "default"

	// DefaultDBName is the database migrations are applied to when none is configured
	DefaultDBName = "default"

	// DefaultMigrationsDir is the directory scanned for migration scripts
	DefaultMigrationsDir = "./migrations"

	// DefaultLogLevel matches the quiet default of the migrate command
	DefaultLogLevel = "warn"

	// DefaultClickHouseVersion is the server image used for integration tests
	DefaultClickHouseVersion = "25.7"

	// HistoryTable is the table recording applied migrations
	HistoryTable = "schema_versions"

	// StatementDelimiter separates statements in multi-statement scripts
	StatementDelimiter = ";"

	// MigrationExt is the extension of migration scripts
	MigrationExt = ".sql"
)
