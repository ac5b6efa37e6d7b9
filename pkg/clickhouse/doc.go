// Package clickhouse connects chmigrate to a ClickHouse server over the native
// protocol.
//
// Besides the Client itself the package has a few helpers that run against
// anything with Query or Exec: creating the target database, looking up a
// cluster's replicas in system.clusters and reading the server version.
//
// Example usage:
//
//	client, err := clickhouse.NewClient(ctx, clickhouse.Options{
//		Host:     "localhost",
//		Port:     9000,
//		User:     "default",
//		Database: "analytics",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	replicas, err := clickhouse.ClusterReplicas(ctx, client, "prod")
package clickhouse
