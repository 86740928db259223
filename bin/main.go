package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/ajkachnic/lox/core"
	"github.com/ajkachnic/lox/modules"
)

const version = "0.1.0"

const helpMessage = `lox is a small scripting language with closures and classes.

Usage:
  lox [flags] [script]
`

// exit statuses, following sysexits.h
const (
	exitUsage    = 64
	exitDataErr  = 65
	exitSoftware = 70
	exitIOErr    = 74
)

var debugAst = flag.Bool("debug-ast", false, "print AST")
var showContext = flag.Bool("context", false, "print the source line under each error")
var configPath = flag.String("config", "", "REPL config file (default ~/.loxrc.yaml)")
var plain = flag.Bool("plain", false, "use the plain line editor in the REPL")
var verbose = flag.Bool("v", false, "log pipeline stages and calls")

var stderr = colorable.NewColorableStderr()

var errorBanner = color.New(color.FgRed, color.Bold)

func main() {
	flag.Usage = func() {
		fmt.Printf(helpMessage)
		flag.PrintDefaults()
	}

	flag.Parse()
	setupLogging(*verbose)

	if !isTerminal(os.Stderr) {
		errorBanner.DisableColor()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		os.Exit(exitUsage)
	}

	args := flag.Args()

	switch len(args) {
	case 0:
		repl(cfg)
	case 1:
		os.Exit(runFile(args[0], cfg))
	default:
		flag.Usage()
		os.Exit(exitUsage)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newInterpreter(rootPath string, out io.Writer) *core.Interpreter {
	context := core.NewContext(rootPath)
	modules.Initialize(&context)

	return core.NewInterpreter(&context, out)
}

// runFile runs a whole script and returns the process exit status.
func runFile(path string, cfg config) int {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("read script: %w", err))
		return exitIOErr
	}

	slog.Debug("run file", slog.String("path", path), slog.Int("bytes", len(content)))

	in := newInterpreter(path, os.Stdout)
	program := core.Compile(string(content))

	if *debugAst {
		for _, stmt := range program.Stmts {
			fmt.Println(stmt)
		}
	}

	rep := newReporter(stderr, string(content), cfg)

	diag, err := core.RunProgram(in, program)
	if diag.HasErrors() {
		rep.static(diag)
		return exitDataErr
	}
	if err != nil {
		rep.runtime(err)
		return exitSoftware
	}

	return 0
}

// reporter prints diagnostics for one piece of source text.
type reporter struct {
	w       io.Writer
	source  string
	context bool
	style   string
}

func newReporter(w io.Writer, source string, cfg config) *reporter {
	return &reporter{
		w:       w,
		source:  source,
		context: *showContext,
		style:   cfg.Style,
	}
}

func (r *reporter) static(diag *core.Diagnostics) {
	for _, e := range diag.Errors {
		fmt.Fprintf(r.w, "[line %d] %s%s: %s\n", e.Line, errorBanner.Sprint("Error"), e.Where, e.Message)
		r.printContext(e.Line)
	}
}

func (r *reporter) runtime(err error) {
	var rerr *core.RuntimeError
	if !errors.As(err, &rerr) {
		fmt.Fprintln(r.w, errorBanner.Sprint(err.Error()))
		return
	}

	fmt.Fprintf(r.w, "%s\n[line %d]\n", errorBanner.Sprint(rerr.Reason), rerr.Token.Line)
	r.printContext(rerr.Token.Line)

	if trace := rerr.Trace(); trace != "" {
		slog.Debug("stack trace\n" + trace)
	}
}

func (r *reporter) printContext(line int) {
	if !r.context {
		return
	}
	if err := renderContext(r.w, r.source, line, r.style, isTerminal(os.Stderr)); err != nil {
		slog.Debug("render context", slog.Any("err", err))
	}
}
