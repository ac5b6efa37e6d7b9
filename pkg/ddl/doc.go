// Package ddl holds the small amount of SQL awareness chmigrate needs: splitting
// scripts into statements and rewriting DDL so it runs ON CLUSTER.
//
// It does not validate SQL. Anything it doesn't recognise is passed to the
// server verbatim and ClickHouse decides whether it is valid.
package ddl
