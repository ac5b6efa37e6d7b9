package clickhouse_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestClusterReplicas(t *testing.T) {
	ch := testutil.NewFakeClickHouse()
	ch.Clusters = map[string][]testutil.Replica{
		"prod": {
			{Host: "ch-1", Port: 9000, Shard: 1, Replica: 1},
			{Host: "ch-2", Port: 9000, Shard: 1, Replica: 2},
		},
	}

	replicas, err := clickhouse.ClusterReplicas(t.Context(), ch, "prod")
	require.NoError(t, err)
	require.Equal(t, []clickhouse.Replica{
		{Host: "ch-1", Port: 9000, Shard: 1, Replica: 1},
		{Host: "ch-2", Port: 9000, Shard: 1, Replica: 2},
	}, replicas)

	queries := ch.Queries()
	require.Len(t, queries, 1)
	require.Contains(t, queries[0].SQL, "FROM system.clusters")
	require.Equal(t, []any{"prod"}, queries[0].Args)

	_, err = clickhouse.ClusterReplicas(t.Context(), ch, "staging")
	require.ErrorIs(t, err, clickhouse.ErrUnknownCluster)
	require.Contains(t, err.Error(), `cluster "staging"`)
}

func TestClusterReplicasQueryError(t *testing.T) {
	ch := testutil.NewFakeClickHouse()
	ch.QueryErr = func(string) error { return errors.New("timeout") }

	_, err := clickhouse.ClusterReplicas(t.Context(), ch, "prod")
	require.EqualError(t, err, "failed to look up cluster prod: timeout")
}

func TestCreateDatabase(t *testing.T) {
	tests := []struct {
		name     string
		database string
		cluster  string
		want     string
	}{
		{name: "single node", database: "analytics", want: `CREATE DATABASE IF NOT EXISTS "analytics"`},
		{name: "cluster", database: "analytics", cluster: "prod", want: `CREATE DATABASE IF NOT EXISTS "analytics" ON CLUSTER "prod"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := testutil.NewFakeClickHouse()
			require.NoError(t, clickhouse.CreateDatabase(t.Context(), ch, tt.database, tt.cluster))
			require.Equal(t, []string{tt.want}, ch.ExecSQL())
			require.Equal(t, tt.want, clickhouse.CreateDatabaseSQL(tt.database, tt.cluster))
		})
	}
}

func TestCreateDatabaseErrors(t *testing.T) {
	ch := testutil.NewFakeClickHouse()
	require.Error(t, clickhouse.CreateDatabase(t.Context(), ch, `bad"db`, ""))
	require.Error(t, clickhouse.CreateDatabase(t.Context(), ch, " ", ""))
	require.Empty(t, ch.ExecSQL())

	ch.ExecErr = func(string) error { return errors.New("access denied") }
	err := clickhouse.CreateDatabase(t.Context(), ch, "analytics", "")
	require.EqualError(t, err, "failed to create database analytics: access denied")
}
