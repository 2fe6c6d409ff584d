package portref

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// refLexer tokenizes port references. Block identifiers start with a letter
// or underscore and may contain digits, underscores and hyphens.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_-]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
})

type refAST struct {
	Block string `parser:"@Ident"`
	Side  string `parser:"Dot @('in' | 'out')"`
	Index *int   `parser:"( LBracket @Int RBracket )?"`
}

type blockIDAST struct {
	ID string `parser:"@Ident"`
}

var (
	refParser = participle.MustBuild[refAST](
		participle.Lexer(refLexer),
		participle.Elide("Whitespace"),
	)
	blockIDParser = participle.MustBuild[blockIDAST](
		participle.Lexer(refLexer),
	)
)
