package docker_test

import (
	"context"
	"testing"
	"time"

	chclient "github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/docker"
	"github.com/pseudomuto/chmigrate/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestDockerContainer_NotRunning(t *testing.T) {
	container := docker.New()
	require.False(t, container.IsRunning())
	require.Empty(t, container.Cluster())

	_, err := container.ClientOptions(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "container is not running")

	// Stopping a container that never started is a no-op
	require.NoError(t, container.Stop(context.Background()))
}

func TestDockerContainer_InvalidCluster(t *testing.T) {
	container := docker.NewWithOptions(docker.DockerOptions{Cluster: "bad-name"})

	err := container.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "valid XML element name")
	require.False(t, container.IsRunning())
}

func TestDockerContainer_StartStop(t *testing.T) {
	testutil.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container := docker.NewWithOptions(docker.DockerOptions{Version: "25.7"})
	require.NoError(t, container.Start(ctx))
	defer func() { _ = container.Stop(ctx) }()

	require.True(t, container.IsRunning())
	require.Error(t, container.Start(ctx), "starting twice should fail")

	opts, err := container.ClientOptions(ctx)
	require.NoError(t, err)
	require.Equal(t, "default", opts.User)
	require.Equal(t, "default", opts.Database)
	require.NotZero(t, opts.Port)

	client, err := chclient.NewClient(ctx, opts)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	version, err := chclient.ServerVersion(ctx, client)
	require.NoError(t, err)
	require.True(t, version.IsAtLeast(25, 7))

	require.NoError(t, container.Stop(ctx))
	require.False(t, container.IsRunning())
}

func TestDockerContainer_Cluster(t *testing.T) {
	testutil.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container := docker.NewWithOptions(docker.DockerOptions{Cluster: "test_cluster"})
	require.NoError(t, container.Start(ctx))
	defer func() { _ = container.Stop(ctx) }()

	require.Equal(t, "test_cluster", container.Cluster())

	opts, err := container.ClientOptions(ctx)
	require.NoError(t, err)

	client, err := chclient.NewClient(ctx, opts)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	replicas, err := chclient.ClusterReplicas(ctx, client, "test_cluster")
	require.NoError(t, err)
	require.Len(t, replicas, 1)
	require.Equal(t, uint32(1), replicas[0].Shard)
	require.Equal(t, uint16(9000), replicas[0].Port)
}
