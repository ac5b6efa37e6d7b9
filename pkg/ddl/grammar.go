package ddl

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// headParser recognises the leading part of DDL statements that ClickHouse
// can distribute with ON CLUSTER. Everything after the object name (column
// lists, engines, SELECT bodies) is left to the server.
var headParser = participle.MustBuild[Statement](
	participle.Lexer(clickhouseLexer),
	participle.Elide("Comment", "MultilineComment", "Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

type (
	// Statement is a distributable DDL statement head.
	Statement struct {
		Rename   *RenameStmt   `parser:"@@"`
		Grant    *GrantStmt    `parser:"| @@"`
		Truncate *TruncateStmt `parser:"| @@"`
		Object   *ObjectStmt   `parser:"| @@"`
	}

	// ObjectStmt covers statements of the form
	//   VERB [OR REPLACE] [TEMPORARY] [MATERIALIZED|LIVE|WINDOW] KIND [IF [NOT] EXISTS] name[, name...] [ON CLUSTER c] ...
	ObjectStmt struct {
		Verb      string        `parser:"@('CREATE' | 'ALTER' | 'DROP' | 'ATTACH' | 'DETACH' | 'OPTIMIZE')"`
		OrReplace bool          `parser:"@('OR' 'REPLACE')?"`
		Temporary bool          `parser:"@'TEMPORARY'?"`
		Modifier  string        `parser:"@('MATERIALIZED' | 'LIVE' | 'WINDOW')?"`
		Kind      []string      `parser:"@('TABLE' | 'DATABASE' | 'DICTIONARY' | 'VIEW' | 'FUNCTION' | 'USER' | 'ROLE' | 'QUOTA' | 'NAMED' 'COLLECTION' | 'ROW'? 'POLICY' | 'SETTINGS'? 'PROFILE')"`
		IfExists  bool          `parser:"@('IF' 'NOT'? 'EXISTS')?"`
		Names     []*ObjectName `parser:"@@ (',' @@)*"`
		OnCluster *string       `parser:"('ON' 'CLUSTER' @(Ident | BacktickIdent | QuotedIdent | String))?"`
	}

	// TruncateStmt covers TRUNCATE, where the object kind is optional.
	//   TRUNCATE [TEMPORARY] [TABLE|DATABASE] [IF EXISTS] name [ON CLUSTER c] ...
	TruncateStmt struct {
		Verb      string      `parser:"@'TRUNCATE'"`
		Temporary bool        `parser:"@'TEMPORARY'?"`
		Kind      string      `parser:"@('TABLE' | 'DATABASE')?"`
		IfExists  bool        `parser:"@('IF' 'EXISTS')?"`
		Name      *ObjectName `parser:"@@"`
		OnCluster *string     `parser:"('ON' 'CLUSTER' @(Ident | BacktickIdent | QuotedIdent | String))?"`
	}

	// GrantStmt covers GRANT and REVOKE, where ON CLUSTER directly follows the verb.
	//   GRANT [ON CLUSTER c] privileges ON db.table TO grantee
	GrantStmt struct {
		Tokens []lexer.Token

		Verb      string  `parser:"@('GRANT' | 'REVOKE')"`
		OnCluster *string `parser:"('ON' 'CLUSTER' @(Ident | BacktickIdent | QuotedIdent | String))?"`
	}

	// RenameStmt covers RENAME and EXCHANGE, where ON CLUSTER trails the name pairs.
	//   RENAME TABLE a TO b[, c TO d] [ON CLUSTER c]
	//   EXCHANGE TABLES a AND b [ON CLUSTER c]
	RenameStmt struct {
		Verb      string          `parser:"@('RENAME' | 'EXCHANGE')"`
		Kind      string          `parser:"@('TABLE' | 'TABLES' | 'DATABASE' | 'DICTIONARY' | 'DICTIONARIES')"`
		Pairs     []*RenamedNames `parser:"@@ (',' @@)*"`
		OnCluster *string         `parser:"('ON' 'CLUSTER' @(Ident | BacktickIdent | QuotedIdent | String))?"`
	}

	// RenamedNames is a single `from TO to` (or `a AND b`) pair.
	RenamedNames struct {
		From *ObjectName `parser:"@@"`
		To   *ObjectName `parser:"('TO' | 'AND') @@"`
	}

	// ObjectName is an optionally database-qualified identifier.
	ObjectName struct {
		Tokens []lexer.Token

		Database *string `parser:"(@(Ident | BacktickIdent | QuotedIdent) '.')?"`
		Name     string  `parser:"@(Ident | BacktickIdent | QuotedIdent)"`
	}
)

// ParseHead parses the head of sql. Statements that are not distributable DDL
// return an error.
func ParseHead(sql string) (*Statement, error) {
	stmt, err := headParser.ParseString("", sql, participle.AllowTrailing(true))
	if err != nil {
		return nil, errors.Wrap(err, "not a distributable DDL statement")
	}

	// TRUNCATE ALL TABLES FROM db takes its clause at the end
	if t := stmt.Truncate; t != nil && t.Kind == "" && t.Name.Database == nil && strings.EqualFold(t.Name.Name, "ALL") {
		return nil, errors.New("not a distributable DDL statement: TRUNCATE ALL TABLES")
	}

	return stmt, nil
}

// HasOnCluster reports whether the statement already names a cluster.
func (s *Statement) HasOnCluster() bool {
	switch {
	case s.Rename != nil:
		return s.Rename.OnCluster != nil
	case s.Grant != nil:
		return s.Grant.OnCluster != nil
	case s.Truncate != nil:
		return s.Truncate.OnCluster != nil
	case s.Object != nil:
		return s.Object.OnCluster != nil
	}

	return false
}

// Distributable reports whether ClickHouse accepts ON CLUSTER for the statement.
// Temporary tables are session local and never distributed.
func (s *Statement) Distributable() bool {
	switch {
	case s.Rename != nil, s.Grant != nil:
		return true
	case s.Truncate != nil:
		return !s.Truncate.Temporary
	case s.Object != nil:
		return !s.Object.Temporary
	}

	return false
}

// Describe returns a short human label such as "CREATE TABLE db.events".
func (s *Statement) Describe() string {
	switch {
	case s.Rename != nil:
		return strings.ToUpper(s.Rename.Verb + " " + s.Rename.Kind)
	case s.Grant != nil:
		return strings.ToUpper(s.Grant.Verb)
	case s.Truncate != nil:
		parts := []string{"TRUNCATE"}
		if s.Truncate.Kind != "" {
			parts = append(parts, strings.ToUpper(s.Truncate.Kind))
		}
		return strings.Join(append(parts, s.Truncate.Name.String()), " ")
	case s.Object != nil:
		parts := []string{strings.ToUpper(s.Object.Verb)}
		if s.Object.Modifier != "" {
			parts = append(parts, strings.ToUpper(s.Object.Modifier))
		}
		parts = append(parts, strings.ToUpper(strings.Join(s.Object.Kind, " ")))
		if len(s.Object.Names) > 0 {
			parts = append(parts, s.Object.Names[0].String())
		}
		return strings.Join(parts, " ")
	}

	return ""
}

// insertOffset is the byte offset at which ` ON CLUSTER ...` is spliced in.
func (s *Statement) insertOffset() int {
	switch {
	case s.Rename != nil:
		return s.Rename.Pairs[len(s.Rename.Pairs)-1].To.endOffset()
	case s.Grant != nil:
		return s.Grant.verbEndOffset()
	case s.Truncate != nil:
		return s.Truncate.Name.endOffset()
	case s.Object != nil:
		return s.Object.Names[len(s.Object.Names)-1].endOffset()
	}

	return -1
}

// String returns the name as written, e.g. `db`.`events`.
func (n *ObjectName) String() string {
	if n.Database != nil {
		return *n.Database + "." + n.Name
	}
	return n.Name
}

// verbEndOffset is the offset just past GRANT or REVOKE.
func (g *GrantStmt) verbEndOffset() int {
	for _, tok := range g.Tokens {
		if !isElided(tok) {
			return tok.Pos.Offset + len(tok.Value)
		}
	}

	return -1
}

func (n *ObjectName) endOffset() int {
	return endOffset(n.Tokens)
}

// endOffset returns the offset just past the last meaningful token.
func endOffset(tokens []lexer.Token) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		if isElided(tok) {
			continue
		}
		return tok.Pos.Offset + len(tok.Value)
	}

	return -1
}
