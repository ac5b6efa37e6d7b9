package ddl

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// clickhouseLexer tokenizes arbitrary ClickHouse SQL. The trailing Other rule
// guarantees that lexing never fails, so unknown syntax only ever surfaces as
// a grammar mismatch.
var clickhouseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\r\n]*|#[^\r\n]*`},
	{Name: "MultilineComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
	{Name: "String", Pattern: `'([^'\\]|\\.|'')*'`},
	{Name: "QuotedIdent", Pattern: `"([^"\\]|\\.|"")*"`},
	{Name: "BacktickIdent", Pattern: "`([^`\\\\]|\\\\.)*`"},
	{Name: "Number", Pattern: `\d+(\.\d*)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[;.,()]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var (
	punctType   = clickhouseLexer.Symbols()["Punct"]
	elidedTypes = map[lexer.TokenType]bool{
		clickhouseLexer.Symbols()["Comment"]:          true,
		clickhouseLexer.Symbols()["MultilineComment"]: true,
		clickhouseLexer.Symbols()["Whitespace"]:       true,
	}
)

// tokenize returns every token in sql, including whitespace and comments.
func tokenize(sql string) ([]lexer.Token, error) {
	lex, err := clickhouseLexer.LexString("", sql)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lex SQL")
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lex SQL")
	}

	return tokens, nil
}

// isElided reports whether the token carries no meaning for execution.
func isElided(tok lexer.Token) bool {
	return elidedTypes[tok.Type] || tok.EOF()
}
