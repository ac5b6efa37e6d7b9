// Package docker runs throwaway ClickHouse servers for integration tests.
//
// A container can optionally be configured as a single-node cluster with
// an embedded keeper, which is enough for ON CLUSTER DDL and
// ReplicatedMergeTree tables to work the way they do in production.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version: "25.7",
//		Cluster: "test_cluster",
//	})
//
//	if err := container.Start(ctx); err != nil {
//		return err
//	}
//	defer container.Stop(ctx)
//
//	opts, err := container.ClientOptions(ctx)
//	if err != nil {
//		return err
//	}
//
//	client, err := clickhouse.NewClient(ctx, opts)
package docker
