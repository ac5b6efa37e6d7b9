// Package testutil contains helpers shared by chmigrate's tests: an in-memory
// ClickHouse fake, migration directory fixtures, Docker detection and CLI
// runners.
package testutil
