package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/ddl"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"gopkg.in/yaml.v3"
)

const redacted = "******"

type (
	// ClickHouse describes the server migrations are applied to.
	ClickHouse struct {
		Host     string `yaml:"host,omitempty"`
		Port     int    `yaml:"port,omitempty"`
		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`
		Database string `yaml:"database,omitempty"`

		// Cluster enables ON CLUSTER execution and a replicated history table.
		Cluster string `yaml:"cluster,omitempty"`

		// CreateDatabase creates Database before migrating when it's missing.
		CreateDatabase bool `yaml:"create_database,omitempty"`

		Secure      bool          `yaml:"secure,omitempty"`
		TLS         TLS           `yaml:"tls,omitempty"`
		DialTimeout time.Duration `yaml:"dial_timeout,omitempty"`
	}

	// TLS holds paths to PEM files used for mTLS.
	TLS struct {
		CAFile   string `yaml:"ca_file,omitempty"`
		CertFile string `yaml:"cert_file,omitempty"`
		KeyFile  string `yaml:"key_file,omitempty"`
	}

	// Migrations describes where scripts live and how they are split.
	Migrations struct {
		Dir string `yaml:"dir,omitempty"`

		// MultiStatement defaults to true when unset.
		MultiStatement *bool `yaml:"multi_statement,omitempty"`

		// SplitMode is "plain" (default) or "lexer".
		SplitMode migrator.SplitMode `yaml:"split_mode,omitempty"`
	}

	// Config is the complete chmigrate configuration.
	Config struct {
		ClickHouse ClickHouse `yaml:"clickhouse"`
		Migrations Migrations `yaml:"migrations"`
		LogLevel   string     `yaml:"log_level,omitempty"`
	}
)

// Default returns a config populated entirely with defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig parses a configuration from the provided io.Reader. Missing or
// empty values fall back to the defaults in pkg/consts, and an empty document
// yields the default config.
//
// Example:
//
//	yamlData := `
//	clickhouse:
//	  host: ch.internal
//	  database: analytics
//	  cluster: prod
//	migrations:
//	  dir: db/migrations
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		return err
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadConfigFile loads a configuration from the file at path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

func (c *Config) applyDefaults() {
	if c.ClickHouse.Host == "" {
		c.ClickHouse.Host = consts.DefaultDBHost
	}
	if c.ClickHouse.Port == 0 {
		c.ClickHouse.Port = consts.DefaultDBPort
	}
	if c.ClickHouse.User == "" {
		c.ClickHouse.User = consts.DefaultDBUser
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = consts.DefaultDBName
	}
	if c.Migrations.Dir == "" {
		c.Migrations.Dir = consts.DefaultMigrationsDir
	}
	if c.Migrations.MultiStatement == nil {
		multi := true
		c.Migrations.MultiStatement = &multi
	}
	if c.Migrations.SplitMode == "" {
		c.Migrations.SplitMode = migrator.SplitPlain
	}
	if c.LogLevel == "" {
		c.LogLevel = consts.DefaultLogLevel
	}
}

// SetMultiStatement overrides the multi-statement mode.
func (c *Config) SetMultiStatement(enabled bool) {
	c.Migrations.MultiStatement = &enabled
}

// LoadOptions returns the script loading options for the migrations section.
func (c *Config) LoadOptions() migrator.LoadOptions {
	return migrator.LoadOptions{
		MultiStatement: c.Migrations.MultiStatement == nil || *c.Migrations.MultiStatement,
		SplitMode:      c.Migrations.SplitMode,
	}
}

// ClientOptions returns the connection options for the clickhouse section.
func (c *Config) ClientOptions() clickhouse.Options {
	ch := c.ClickHouse
	return clickhouse.Options{
		Host:     ch.Host,
		Port:     ch.Port,
		User:     ch.User,
		Password: ch.Password,
		Database: ch.Database,
		Secure:   ch.Secure,
		TLSSettings: clickhouse.TLSSettings{
			CAFile:   ch.TLS.CAFile,
			CertFile: ch.TLS.CertFile,
			KeyFile:  ch.TLS.KeyFile,
		},
		DialTimeout: ch.DialTimeout,
	}
}

// Validate reports the first problem that would stop a migration run.
func (c *Config) Validate() error {
	ch := c.ClickHouse
	if strings.TrimSpace(ch.Host) == "" {
		return errors.New("clickhouse host is required")
	}

	if ch.Port < 1 || ch.Port > 65535 {
		return errors.Errorf("clickhouse port %d is out of range", ch.Port)
	}

	if strings.TrimSpace(ch.Database) == "" {
		return errors.New("clickhouse database is required")
	}

	if strings.Contains(ch.Database, `"`) {
		return errors.Errorf("clickhouse database %q contains a double quote", ch.Database)
	}

	if ch.Cluster != "" {
		if err := ddl.ValidateCluster(ch.Cluster); err != nil {
			return err
		}
	}

	if !c.Migrations.SplitMode.Valid() {
		return errors.Errorf("unknown split mode %q, expected plain or lexer", c.Migrations.SplitMode)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	info, err := os.Stat(c.Migrations.Dir)
	if err != nil {
		return errors.Wrapf(err, "migrations directory %s is not accessible", c.Migrations.Dir)
	}
	if !info.IsDir() {
		return errors.Errorf("migrations directory %s is not a directory", c.Migrations.Dir)
	}

	return nil
}

// Redacted returns a copy of c that is safe to log.
func (c *Config) Redacted() *Config {
	out := *c
	if out.ClickHouse.Password != "" {
		out.ClickHouse.Password = redacted
	}
	if c.Migrations.MultiStatement != nil {
		multi := *c.Migrations.MultiStatement
		out.Migrations.MultiStatement = &multi
	}
	return &out
}

// LogValue implements slog.LogValuer so a Config can be logged directly
// without leaking the password.
func (c *Config) LogValue() slog.Value {
	r := c.Redacted()
	return slog.GroupValue(
		slog.String("host", r.ClickHouse.Host),
		slog.Int("port", r.ClickHouse.Port),
		slog.String("user", r.ClickHouse.User),
		slog.String("password", r.ClickHouse.Password),
		slog.String("database", r.ClickHouse.Database),
		slog.String("cluster", r.ClickHouse.Cluster),
		slog.Bool("secure", r.ClickHouse.Secure),
		slog.String("migrations_dir", r.Migrations.Dir),
		slog.Bool("multi_statement", r.LoadOptions().MultiStatement),
		slog.String("split_mode", string(r.Migrations.SplitMode)),
	)
}

// ParseBool reports whether s is one of 1, true, yes or y, ignoring case.
// Anything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}

	return false
}

// ParseLogLevel maps a level name to a slog.Level. It accepts the slog names
// as well as "warning" and "critical".
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "critical":
		return slog.LevelError, nil
	}

	return 0, errors.Errorf("unknown log level %q", level)
}
