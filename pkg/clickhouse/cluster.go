package clickhouse

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/ddl"
)

// ErrUnknownCluster is returned when system.clusters has no rows for a
// cluster.
var ErrUnknownCluster = errors.New("cluster is not defined on the server")

// Replica is a node of a cluster as reported by system.clusters.
type Replica struct {
	Host    string
	Port    uint16
	Shard   uint32
	Replica uint32
}

// ClusterReplicas lists the nodes of cluster. An unknown cluster yields
// ErrUnknownCluster.
func ClusterReplicas(ctx context.Context, ch Querier, cluster string) ([]Replica, error) {
	rows, err := ch.Query(ctx, `
SELECT host_name, port, shard_num, replica_num
FROM system.clusters
WHERE cluster = ?
ORDER BY shard_num, replica_num`, cluster)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up cluster %s", cluster)
	}
	defer func() { _ = rows.Close() }()

	var replicas []Replica
	for rows.Next() {
		var r Replica
		if err := rows.Scan(&r.Host, &r.Port, &r.Shard, &r.Replica); err != nil {
			return nil, errors.Wrap(err, "failed to scan cluster replica")
		}
		replicas = append(replicas, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate cluster replicas")
	}

	if len(replicas) == 0 {
		return nil, errors.Wrapf(ErrUnknownCluster, "cluster %q", cluster)
	}

	return replicas, nil
}

// Execer is the write half of a ClickHouse connection.
type Execer interface {
	Exec(context.Context, string, ...any) error
}

// CreateDatabaseSQL returns the statement creating database, distributed to
// cluster when one is given.
func CreateDatabaseSQL(database, cluster string) string {
	sql := "CREATE DATABASE IF NOT EXISTS " + ddl.QuoteIdentifier(database)
	if cluster != "" {
		sql += ddl.OnClusterClause(cluster)
	}
	return sql
}

// CreateDatabase creates database unless it exists. The connection must not
// point at database itself, as the server rejects connections to unknown
// databases.
func CreateDatabase(ctx context.Context, ch Execer, database, cluster string) error {
	if strings.TrimSpace(database) == "" || strings.Contains(database, `"`) {
		return errors.Errorf("invalid database name %q", database)
	}

	if err := ch.Exec(ctx, CreateDatabaseSQL(database, cluster)); err != nil {
		return errors.Wrapf(err, "failed to create database %s", database)
	}

	return nil
}
