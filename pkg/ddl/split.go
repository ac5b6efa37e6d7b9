package ddl

import (
	"strings"
)

// SplitStatements splits content on delimiter, trims each fragment and drops
// the empty ones.
//
// This is a plain text split: a delimiter inside a string literal or a
// comment also ends a statement. Use SplitStatementsLexer when scripts need
// literal semicolons.
//
// Example:
//
//	stmts := ddl.SplitStatements("CREATE TABLE a (x UInt8) ENGINE = Log;\n\nDROP TABLE b;\n", ";")
//	// []string{"CREATE TABLE a (x UInt8) ENGINE = Log", "DROP TABLE b"}
func SplitStatements(content, delimiter string) []string {
	var statements []string
	for _, fragment := range strings.Split(content, delimiter) {
		if stmt := strings.TrimSpace(fragment); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// SplitStatementsLexer splits content on `;` tokens produced by the
// ClickHouse lexer, so semicolons inside quoted strings, quoted identifiers
// and comments are preserved. Fragments that contain nothing but
// whitespace and comments are dropped since the server rejects empty
// queries.
func SplitStatementsLexer(content string) ([]string, error) {
	tokens, err := tokenize(content)
	if err != nil {
		return nil, err
	}

	var (
		statements []string
		start      int
		meaningful bool
	)

	flush := func(end int) {
		if meaningful {
			statements = append(statements, strings.TrimSpace(content[start:end]))
		}
		meaningful = false
	}

	for _, tok := range tokens {
		if tok.EOF() {
			break
		}

		if tok.Type == punctType && tok.Value == ";" {
			flush(tok.Pos.Offset)
			start = tok.Pos.Offset + len(tok.Value)
			continue
		}

		if !isElided(tok) {
			meaningful = true
		}
	}

	flush(len(content))
	return statements, nil
}
