package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	chclient "github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultClickHousePort is the default port for ClickHouse server
	DefaultClickHousePort = 9000

	// DefaultClickHouseHTTPPort is the default HTTP port for ClickHouse server
	DefaultClickHouseHTTPPort = 8123

	defaultUser = "default"
)

type (
	// DockerOptions represents options for running ClickHouse in Docker
	DockerOptions struct {
		// Version is the ClickHouse version to run (default: consts.DefaultClickHouseVersion)
		Version string

		// Cluster, when set, configures the server as a single-node cluster
		// with that name, an embedded keeper and {shard}/{replica} macros.
		Cluster string

		// Password for the default user.
		Password string
	}

	// Container manages a ClickHouse Docker container
	Container struct {
		options   DockerOptions
		container *clickhouse.ClickHouseContainer
		configDir string
	}
)

// New creates a new Docker container with default options
func New() *Container {
	return NewWithOptions(DockerOptions{})
}

// NewWithOptions creates a new Docker container with custom options
//
// Example:
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version: "25.7",
//		Cluster: "test_cluster",
//	})
func NewWithOptions(opts DockerOptions) *Container {
	return &Container{options: opts}
}

// Start starts the ClickHouse container and waits until it answers HTTP
// requests.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = consts.DefaultClickHouseVersion
	}

	customizers := []testcontainers.ContainerCustomizer{
		clickhouse.WithUsername(defaultUser),
		clickhouse.WithPassword(c.options.Password),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.
				NewHTTPStrategy("/").
				WithPort(nat.Port(fmt.Sprintf("%d/tcp", DefaultClickHouseHTTPPort))).
				WithStatusCodeMatcher(func(status int) bool {
					return status == 200
				}),
		),
	}

	if c.options.Cluster != "" {
		dir, err := os.MkdirTemp("", "chmigrate-clickhouse-")
		if err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
		c.configDir = dir

		path, err := writeClusterConfig(dir, c.options.Cluster)
		if err != nil {
			c.cleanup()
			return err
		}

		customizers = append(customizers, clickhouse.WithConfigFile(path))
	}

	container, err := clickhouse.Run(ctx,
		fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", version),
		customizers...,
	)
	if err != nil {
		c.cleanup()
		if container != nil {
			_ = container.Terminate(ctx)
		}
		return errors.Wrap(err, "failed to start ClickHouse container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the ClickHouse Docker container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil
	c.cleanup()

	if err != nil {
		return errors.Wrap(err, "failed to stop ClickHouse container")
	}

	return nil
}

// ClientOptions returns connection options for the container's native port,
// pointing at the default database.
func (c *Container) ClientOptions(ctx context.Context) (chclient.Options, error) {
	if c.container == nil {
		return chclient.Options{}, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return chclient.Options{}, errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, nat.Port(fmt.Sprintf("%d/tcp", DefaultClickHousePort)))
	if err != nil {
		return chclient.Options{}, errors.Wrap(err, "failed to get container port")
	}

	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		return chclient.Options{}, errors.Wrapf(err, "invalid mapped port: %s", port.Port())
	}

	return chclient.Options{
		Host:     host,
		Port:     portNum,
		User:     defaultUser,
		Password: c.options.Password,
		Database: consts.DefaultDBName,
	}, nil
}

// Cluster returns the name of the configured cluster, if any.
func (c *Container) Cluster() string {
	return c.options.Cluster
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}

func (c *Container) cleanup() {
	if c.configDir != "" {
		_ = os.RemoveAll(filepath.Clean(c.configDir))
		c.configDir = ""
	}
}
