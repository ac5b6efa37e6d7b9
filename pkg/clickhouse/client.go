package clickhouse

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

const defaultDialTimeout = 10 * time.Second

type (
	// Client represents a ClickHouse database connection
	Client struct {
		conn    driver.Conn
		options Options
	}

	// Options describe how to reach the server.
	Options struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string

		// Secure enables TLS. It is implied when any TLSSettings file is set.
		Secure bool
		TLSSettings

		// DialTimeout defaults to 10s.
		DialTimeout time.Duration
	}

	// TLSSettings configures mTLS with the server.
	TLSSettings struct {
		CAFile   string
		CertFile string
		KeyFile  string
	}
)

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// WithDatabase returns a copy of o connected to database instead.
func (o Options) WithDatabase(database string) Options {
	o.Database = database
	return o
}

func (o Options) driverOptions() (*clickhouse.Options, error) {
	timeout := o.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	opts := &clickhouse.Options{
		Addr: []string{o.Addr()},
		Auth: clickhouse.Auth{
			Database: o.Database,
			Username: o.User,
			Password: o.Password,
		},
		DialTimeout: timeout,
	}

	switch {
	case o.TLSSettings != (TLSSettings{}):
		cfg, err := GetTLSConfig(o.TLSSettings)
		if err != nil {
			return nil, err
		}
		opts.TLS = cfg
	case o.Secure:
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return opts, nil
}

// NewClient opens a connection and pings the server.
//
// Example:
//
//	client, err := clickhouse.NewClient(ctx, clickhouse.Options{Host: "localhost", Port: 9000})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	driverOpts, err := opts.driverOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure ClickHouse connection")
	}

	conn, err := clickhouse.Open(driverOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to ClickHouse at %s", opts.Addr())
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "failed to connect to ClickHouse at %s", opts.Addr())
	}

	return &Client{conn: conn, options: opts}, nil
}

// Options returns the options the client was opened with.
func (c *Client) Options() Options {
	return c.options
}

func (c *Client) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	return c.conn.Exec(ctx, query, args...)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
