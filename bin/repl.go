package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	plainline "github.com/chzyer/readline"
	"github.com/reeflective/readline"

	"github.com/ajkachnic/lox/core"
)

type lineReader interface {
	Readline() (string, error)
	Close() error
}

type shellReader struct {
	rl *readline.Shell
}

func (s shellReader) Readline() (string, error) {
	return s.rl.Readline()
}

func (s shellReader) Close() error {
	return nil
}

// newLineReader picks the highlighting shell on interactive terminals and
// the plain editor otherwise.
func newLineReader(cfg config) (lineReader, error) {
	if *plain || !isTerminal(os.Stdin) {
		return plainline.NewEx(&plainline.Config{
			Prompt:      cfg.Prompt,
			HistoryFile: cfg.HistoryFile,
		})
	}

	rl := readline.NewShell()
	rl.Prompt.Primary(func() string { return cfg.Prompt })
	if cfg.Highlight {
		rl.SyntaxHighlighter = highlight
	}
	return shellReader{rl: rl}, nil
}

func repl(cfg config) {
	rl, err := newLineReader(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		os.Exit(exitIOErr)
	}
	defer rl.Close()

	if isTerminal(os.Stdin) {
		fmt.Printf("lox %s, :quit to exit\n", version)
	}

	in := newInterpreter("<stdin>", os.Stdout)

	for {
		text, err := rl.Readline()

		if err == io.EOF {
			break
		} else if errors.Is(err, plainline.ErrInterrupt) {
			continue
		} else if err != nil {
			fmt.Fprintln(stderr, err)
			break
		}

		if quit := runLine(in, text, cfg, os.Stdout); quit {
			break
		}
	}
}

// runLine handles one line of REPL input and reports whether the session
// should end. Each line goes through the whole pipeline on its own; globals
// persist in the interpreter.
func runLine(in *core.Interpreter, text string, cfg config, out io.Writer) bool {
	switch strings.TrimSpace(text) {
	case "":
		return false
	case ":quit":
		return true
	case ":globals":
		globals := in.Globals()
		for _, name := range globals.Names() {
			value, _ := globals.Get(core.Token{Kind: core.IDENTIFIER, Lexeme: name})
			fmt.Fprintf(out, "%s = %s\n", name, value)
		}
		return false
	}

	program := core.Compile(text)
	if *debugAst {
		for _, stmt := range program.Stmts {
			fmt.Fprintln(out, stmt)
		}
	}

	rep := newReporter(stderr, text, cfg)

	diag, err := core.RunProgram(in, program)
	if diag.HasErrors() {
		rep.static(diag)
		return false
	}
	if err != nil {
		slog.Debug("runtime error", slog.String("line", text))
		rep.runtime(err)
	}
	return false
}
