package ddl

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidCluster is returned for cluster names that can't be safely
// interpolated into a double-quoted identifier.
var ErrInvalidCluster = errors.New("invalid cluster name")

// ValidateCluster ensures name can be written as "name" in SQL. This keeps a
// typo from producing broken statements on every node; it is not meant to
// stop hostile input.
func ValidateCluster(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidCluster, "cluster name is empty")
	}

	if strings.Contains(name, `"`) {
		return errors.Wrapf(ErrInvalidCluster, "cluster name %q contains a double quote", name)
	}

	return nil
}

// QuoteIdentifier wraps a validated identifier in double quotes.
func QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

// OnClusterClause returns ` ON CLUSTER "cluster"`.
func OnClusterClause(cluster string) string {
	return " ON CLUSTER " + QuoteIdentifier(cluster)
}

// InjectOnCluster rewrites sql so that it runs on every node of cluster.
//
// The clause is inserted right after the object name for CREATE, ALTER, DROP,
// TRUNCATE, ATTACH, DETACH and OPTIMIZE statements, after the last name pair
// for RENAME and EXCHANGE, and right after the verb for GRANT and REVOKE. The
// second return value reports whether sql was changed. Statements that
// already name a cluster, temporary tables and anything that isn't
// distributable DDL (INSERT, SELECT, SYSTEM...) are returned untouched.
//
// Example:
//
//	sql, changed := ddl.InjectOnCluster("CREATE TABLE events (id UInt64) ENGINE = MergeTree ORDER BY id", "prod")
//	// sql == `CREATE TABLE events ON CLUSTER "prod" (id UInt64) ENGINE = MergeTree ORDER BY id`
//	// changed == true
func InjectOnCluster(sql, cluster string) (string, bool) {
	if cluster == "" {
		return sql, false
	}

	stmt, err := ParseHead(sql)
	if err != nil {
		return sql, false
	}

	if stmt.HasOnCluster() || !stmt.Distributable() {
		return sql, false
	}

	offset := stmt.insertOffset()
	if offset < 0 || offset > len(sql) {
		return sql, false
	}

	return sql[:offset] + OnClusterClause(cluster) + sql[offset:], true
}

// ddlVerbs start statements that change schema or access control.
var ddlVerbs = map[string]bool{
	"ALTER":    true,
	"ATTACH":   true,
	"CREATE":   true,
	"DETACH":   true,
	"DROP":     true,
	"EXCHANGE": true,
	"GRANT":    true,
	"OPTIMIZE": true,
	"RENAME":   true,
	"REVOKE":   true,
	"TRUNCATE": true,
	"UNDROP":   true,
}

// IsUnhandledDDL reports whether sql starts with a DDL verb but has a form
// InjectOnCluster can't place an ON CLUSTER clause in. On a cluster such a
// statement only reaches the connected node.
func IsUnhandledDDL(sql string) bool {
	tokens, err := tokenize(sql)
	if err != nil {
		return false
	}

	for _, tok := range tokens {
		if isElided(tok) {
			continue
		}

		if !ddlVerbs[strings.ToUpper(tok.Value)] {
			return false
		}

		_, err := ParseHead(sql)
		return err != nil
	}

	return false
}

// IsDistributable reports whether InjectOnCluster would rewrite sql, or sql
// already carries its own ON CLUSTER clause.
func IsDistributable(sql string) bool {
	stmt, err := ParseHead(sql)
	if err != nil {
		return false
	}

	return stmt.Distributable()
}
