// Package executor runs migration statements against ClickHouse.
//
// Statements run one at a time, in order, and the first failure stops
// execution. Nothing is retried. When a cluster is configured each DDL
// statement is rewritten with an ON CLUSTER clause before it is sent, so a
// single connection reaches every node of the cluster:
//
//	exec, err := executor.New(executor.Config{
//		ClickHouse: client,
//		Cluster:    "prod",
//	})
//	if err != nil {
//		return err
//	}
//
//	// runs: ALTER TABLE users ON CLUSTER "prod" ADD COLUMN email String
//	err = exec.Execute(ctx, "ALTER TABLE users ADD COLUMN email String")
//
// Statements ClickHouse can't distribute (INSERT, SELECT, SYSTEM...) are
// sent verbatim to the connected node. A statement that starts with a DDL
// verb but isn't understood is also sent verbatim, with a warning logged.
package executor
