package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/styles"
	"github.com/fatih/color"

	"github.com/ajkachnic/lox/core"
)

func highlight(line []rune) string {
	tokens, _ := core.NewTokenizer(string(line)).Tokenize()

	builder := strings.Builder{}

	i := 0
	for _, token := range tokens {
		if token.Kind == core.EOF {
			break
		}
		// whitespace, comments and bad characters produce no token
		if token.Offset > i {
			builder.WriteString(string(line[i:token.Offset]))
		}

		switch {
		case token.Kind == core.STRING:
			builder.WriteString(color.GreenString("%s", token.Lexeme))
		case token.Kind == core.NUMBER:
			builder.WriteString(color.MagentaString("%s", token.Lexeme))
		case token.Kind == core.TRUE, token.Kind == core.FALSE, token.Kind == core.NIL:
			builder.WriteString(color.CyanString("%s", token.Lexeme))
		case token.Kind.IsKeyword():
			builder.WriteString(color.BlueString("%s", token.Lexeme))
		default:
			builder.WriteString(token.Lexeme)
		}

		i = token.Offset + token.Length
	}

	if i < len(line) {
		builder.WriteString(string(line[i:]))
	}

	return builder.String()
}

var sourceLexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:      "Lox",
		Aliases:   []string{"lox"},
		Filenames: []string{"*.lox"},
	},
	chroma.Rules{
		"root": {
			{Pattern: `\s+`, Type: chroma.Text},
			{Pattern: `//[^\n]*`, Type: chroma.CommentSingle},
			{Pattern: `"[^"]*"?`, Type: chroma.LiteralString},
			{Pattern: `[0-9]+(\.[0-9]+)?`, Type: chroma.LiteralNumber},
			{Pattern: `(true|false|nil)\b`, Type: chroma.KeywordConstant},
			{Pattern: `(this|super)\b`, Type: chroma.NameBuiltinPseudo},
			{Pattern: chroma.Words(``, `\b`, "and", "class", "else", "for", "fun", "if",
				"or", "print", "return", "var", "while"), Type: chroma.Keyword},
			{Pattern: `[A-Za-z_][A-Za-z0-9_]*`, Type: chroma.Name},
			{Pattern: `[!=<>]=?|[-+*/]`, Type: chroma.Operator},
			{Pattern: `[(){},.;]`, Type: chroma.Punctuation},
			{Pattern: `.`, Type: chroma.Error},
		},
	},
)

// renderContext writes source line number line with a gutter, highlighted
// with the named chroma style when colorize is set.
func renderContext(w io.Writer, source string, line int, style string, colorize bool) error {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return nil
	}

	iterator, err := sourceLexer.Tokenise(nil, lines[line-1]+"\n")
	if err != nil {
		return fmt.Errorf("highlight line %d: %w", line, err)
	}

	formatter := formatters.NoOp
	if colorize {
		formatter = formatters.TTY256
	}

	fmt.Fprintf(w, "%5d | ", line)
	return formatter.Format(w, styles.Get(style), iterator)
}
