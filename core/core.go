package core

import "log/slog"

func Scan(source string) ([]Token, *Diagnostics) {
	tokenizer := NewTokenizer(source)
	return tokenizer.Tokenize()
}

func Parse(tokens []Token) ([]Stmt, *Diagnostics) {
	parser := NewParser(tokens)
	return parser.parse()
}

func Resolve(stmts []Stmt) (Bindings, *Diagnostics) {
	r := newResolver()
	r.resolveStmts(stmts)
	return r.bindings, r.diag
}

// Program is source text that has been scanned and parsed. Lexical and
// syntax errors are both collected in Diagnostics, since parsing goes on
// after a lexical error.
type Program struct {
	Stmts       []Stmt
	Diagnostics *Diagnostics
}

func Compile(source string) Program {
	tokens, diag := Scan(source)
	stmts, parseDiag := Parse(tokens)
	diag.Merge(parseDiag)

	slog.Debug("parsed", slog.Int("tokens", len(tokens)), slog.Int("statements", len(stmts)),
		slog.Int("errors", len(diag.Errors)))

	return Program{Stmts: stmts, Diagnostics: diag}
}

// Run takes source through the whole pipeline against in's persistent
// globals. Static errors stop the pipeline before anything runs and are
// returned as diagnostics; a runtime error is returned as err.
func Run(in *Interpreter, source string) (*Diagnostics, error) {
	program := Compile(source)
	return RunProgram(in, program)
}

// RunProgram resolves and interprets an already compiled program.
func RunProgram(in *Interpreter, program Program) (*Diagnostics, error) {
	if program.Diagnostics.HasErrors() {
		return program.Diagnostics, nil
	}

	bindings, diag := Resolve(program.Stmts)
	if diag.HasErrors() {
		return diag, nil
	}

	in.Resolve(bindings)
	return diag, in.Interpret(program.Stmts)
}
