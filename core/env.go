package core

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type stackEntry struct {
	name string
	line int
}

func (e stackEntry) String() string {
	if e.name != "" {
		return fmt.Sprintf("  in fn %s [line %d]", e.name, e.line)
	}
	return fmt.Sprintf("  in script [line %d]", e.line)
}

type RuntimeError struct {
	Token  Token
	Reason string

	stackTrace []stackEntry
}

func NewRuntimeError(tok Token, reason string) *RuntimeError {
	return &RuntimeError{Token: tok, Reason: reason}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Reason, e.Token.Line)
}

// Trace lists the calls that were active when the error was raised,
// innermost first.
func (e *RuntimeError) Trace() string {
	trace := make([]string, len(e.stackTrace))
	for i, entry := range e.stackTrace {
		trace[i] = entry.String()
	}
	return strings.Join(trace, "\n")
}

// Environment is one scope frame. Frames are shared by pointer: closures,
// nested frames and active calls all keep their enclosing chain alive.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

func NewEnclosedEnvironment(enclosing *Environment) *Environment {
	env := NewEnvironment()
	env.enclosing = enclosing
	return env
}

func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this frame, replacing any previous binding here.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

func (e *Environment) Get(name Token) (Value, *RuntimeError) {
	for env := e; env != nil; env = env.enclosing {
		if value, ok := env.values[name.Lexeme]; ok {
			return value, nil
		}
	}
	return nil, NewRuntimeError(name, fmt.Sprintf("Undefined variable '%s'.", name.Lexeme))
}

func (e *Environment) Assign(name Token, value Value) *RuntimeError {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = value
			return nil
		}
	}
	return NewRuntimeError(name, fmt.Sprintf("Undefined variable '%s'.", name.Lexeme))
}

func (e *Environment) ancestor(hops int) *Environment {
	env := e
	for i := 0; i < hops; i++ {
		if env.enclosing == nil {
			panic(fmt.Sprintf("invariant: no scope %d hops out", hops))
		}
		env = env.enclosing
	}
	return env
}

// GetAt reads name from the frame hops links out. The resolver guarantees
// the binding exists; a miss is a bug, not a user error.
func (e *Environment) GetAt(hops int, name string) Value {
	value, ok := e.ancestor(hops).values[name]
	if !ok {
		panic(fmt.Sprintf("invariant: %s not bound %d scopes out", name, hops))
	}
	return value
}

func (e *Environment) AssignAt(hops int, name string, value Value) {
	env := e.ancestor(hops)
	if _, ok := env.values[name]; !ok {
		panic(fmt.Sprintf("invariant: %s not bound %d scopes out", name, hops))
	}
	env.values[name] = value
}

// Names returns the names bound in this frame, sorted.
func (e *Environment) Names() []string {
	names := maps.Keys(e.values)
	slices.Sort(names)
	return names
}

type Context struct {
	// path of the script being run, or "<stdin>" for the REPL
	RootPath string

	Builtins []*NativeFnValue
}

func NewContext(rootPath string) Context {
	return Context{
		RootPath: rootPath,
		Builtins: []*NativeFnValue{},
	}
}

// LoadFunc registers a native function. Arity is enforced by the
// interpreter before fn runs.
func (c *Context) LoadFunc(name string, arity int, fn builtinFn) {
	c.Builtins = append(c.Builtins, &NativeFnValue{
		Name:      name,
		NumParams: arity,
		Fn:        fn,
	})
}
