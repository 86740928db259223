package core

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func newTestInterpreter(out *bytes.Buffer) *Interpreter {
	ctx := NewContext("<test>")
	return NewInterpreter(&ctx, out)
}

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	diag, err := Run(newTestInterpreter(&out), source)
	if diag.HasErrors() {
		t.Fatalf("unexpected static errors: %v", diag.Err())
	}
	return out.String(), err
}

func wantOutput(t *testing.T, source string, want string) {
	t.Helper()
	got, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got != want {
		t.Errorf("output mismatch\n got: %q\nwant: %q", got, want)
	}
}

func wantRuntimeError(t *testing.T, source string, reason string, line int) *RuntimeError {
	t.Helper()
	_, err := run(t, source)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want a runtime error", err)
	}
	if rerr.Reason != reason || rerr.Token.Line != line {
		t.Errorf("got %q on line %d, want %q on line %d", rerr.Reason, rerr.Token.Line, reason, line)
	}
	return rerr
}

func TestInterpretExpressions(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`print 1 + 2 * 3;`, "7"},
		{`print 10 / 4;`, "2.5"},
		{`print -3;`, "-3"},
		{`print --3;`, "3"},
		{`print 1 / 0;`, "Infinity"},
		{`print -0;`, "0"},
		{`print 0 * -1;`, "0"},
		{`print 1` + strings.Repeat("0", 400) + `;`, "Infinity"},
		{`print 0.1 + 0.2;`, "0.30000000000000004"},
		{`print "con" + "cat";`, "concat"},
		{`print 1 < 2;`, "true"},
		{`print 2 <= 1;`, "false"},
		{`print 3 >= 3;`, "true"},
		{`print nil == nil;`, "true"},
		{`print 1 == "1";`, "false"},
		{`print "a" == "a";`, "true"},
		{`print nil == false;`, "false"},
		{`print (0 / 0) == (0 / 0);`, "false"},
		{`print 1 != 2;`, "true"},
		{`print !nil;`, "true"},
		{`print !0;`, "false"},
		{`print nil or "x";`, "x"},
		{`print 1 and 2;`, "2"},
		{`print false and undefinedName;`, "false"},
		{`print "yes" or undefinedName;`, "yes"},
		{`var a; print a;`, "nil"},
		{`var a = 1; a = a + 1; print a;`, "2"},
		{`var a; var b; a = b = 3; print a + b;`, "6"},
	}

	for _, tt := range tests {
		wantOutput(t, tt.source, tt.want+"\n")
	}
}

func TestInterpretTruthiness(t *testing.T) {
	wantOutput(t, `
if (0) print "zero";
if ("") print "empty";
if (nil) print "nil"; else print "falsy";
if (false) print "false"; else print "falsy";
`, "zero\nempty\nfalsy\nfalsy\n")
}

func TestInterpretScopes(t *testing.T) {
	wantOutput(t, `
var a = "outer";
{
  var a = "inner";
  print a;
}
print a;
`, "inner\nouter\n")

	wantOutput(t, `
var a = "global";
{
  fun showA() { print a; }
  showA();
  var a = "block";
  showA();
  print a;
}
`, "global\nglobal\nblock\n")
}

// Every local read must find the binding the resolver chose, however deep.
func TestInterpretNestedScopes(t *testing.T) {
	for depth := 1; depth <= 24; depth++ {
		var source, want strings.Builder
		for i := 0; i < depth; i++ {
			fmt.Fprintf(&source, "{ var v%d = %d;\n", i, i)
		}
		fmt.Fprintf(&source, "print v0 + v%d;\n", depth-1)
		for i := 0; i < depth; i++ {
			fmt.Fprintf(&source, "print v%d;\n}\n", depth-1-i)
		}

		fmt.Fprintf(&want, "%d\n", depth-1)
		for i := 0; i < depth; i++ {
			fmt.Fprintf(&want, "%d\n", depth-1-i)
		}

		wantOutput(t, source.String(), want.String())
	}
}

func TestInterpretControlFlow(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`for (var i = 0; i < 3; i = i + 1) print i;`, "0\n1\n2\n"},
		{`var i = 0; while (i < 2) { print i; i = i + 1; }`, "0\n1\n"},
		{`var i = 5; while (i < 2) print i; print "done";`, "done\n"},
		{`for (var i = 0; i < 2; i = i + 1) { var i = "shadow"; print i; }`, "shadow\nshadow\n"},
		{`if (1 > 2) print "no"; else if (2 > 1) print "yes";`, "yes\n"},
	}

	for _, tt := range tests {
		wantOutput(t, tt.source, tt.want)
	}
}

func TestInterpretFunctions(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{
			`fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); } print fib(15);`,
			"610\n",
		},
		{`fun f() {} print f();`, "nil\n"},
		{`fun f() { return; } print f();`, "nil\n"},
		{`fun f() {} print f;`, "<fn f>\n"},
		{`fun f() { while (true) { return "out"; } } print f();`, "out\n"},
		{`fun f() { for (var i = 0; ; i = i + 1) if (i == 4) return i; } print f();`, "4\n"},
		{`fun f(a, b, c) { return a + b + c; } print f(1, 2, 3);`, "6\n"},
		{`fun f() { print "side"; return 1; } f();`, "side\n"},
	}

	for _, tt := range tests {
		wantOutput(t, tt.source, tt.want)
	}
}

func TestInterpretClosures(t *testing.T) {
	wantOutput(t, `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    return i;
  }
  return count;
}
var c = makeCounter();
print c();
print c();
var d = makeCounter();
print d();
`, "1\n2\n1\n")

	// two closures over the same variable share its cell
	wantOutput(t, `
var inc;
var get;
fun make() {
  var n = 0;
  fun i() { n = n + 1; }
  fun g() { return n; }
  inc = i;
  get = g;
}
make();
inc();
inc();
print get();
`, "2\n")

	// closures made in a loop body each capture that iteration's frame
	wantOutput(t, `
var fns1; var fns2;
for (var i = 1; i <= 2; i = i + 1) {
  var j = i;
  fun show() { print j; }
  if (i == 1) fns1 = show; else fns2 = show;
}
fns1();
fns2();
`, "1\n2\n")
}

func TestInterpretClasses(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"print class and instance", `class A {} print A; print A();`, "A\nA instance\n"},
		{
			"fields and methods",
			`class P { init(x) { this.x = x; } get() { return this.x; } }
var p = P(3); print p.get(); p.x = 4; print p.get();`,
			"3\n4\n",
		},
		{"initializer", `class C { init(v) { this.v = v; } } print C(5).v;`, "5\n"},
		{"init returns this", `class C { init() { this.n = 1; } } var c = C(); print c.init();`, "C instance\n"},
		{
			"early return in init",
			`class C { init() { this.a = 1; return; this.a = 2; } } print C().a;`,
			"1\n",
		},
		{
			"super dispatch",
			`class A { m() { print "A"; } }
class B < A { m() { super.m(); print "B"; } }
B().m();`,
			"A\nB\n",
		},
		{
			"super is static",
			`class A { m() { print "A.m"; } }
class B < A { m() { print "B.m"; } test() { super.m(); } }
class C < B {}
C().test();`,
			"A.m\n",
		},
		{"inherited method", `class A { hi() { print "hi"; } } class B < A {} B().hi();`, "hi\n"},
		{"inherited init", `class A { init(n) { this.n = n; } } class B < A {} print B(7).n;`, "7\n"},
		{
			"bound method keeps this",
			`class A { init() { this.n = "a"; } say() { print this.n; } }
var f = A().say; f();`,
			"a\n",
		},
		{"field shadows method", `class A { m() { return 1; } } var a = A(); a.m = 2; print a.m;`, "2\n"},
		{"fields are per instance", `class A {} var a = A(); var b = A(); a.x = 1; b.x = 2; print a.x; print b.x;`, "1\n2\n"},
		{
			"superclass captured at declaration",
			`class A { m() { print "old"; } }
class B < A {}
A = nil;
B().m();`,
			"old\n",
		},
		{
			"method closes over class scope",
			`{ var greeting = "hi"; class A { say() { print greeting; } } A().say(); }`,
			"hi\n",
		},
		{"instance identity", `class A {} var a = A(); print a == a; print a == A();`, "true\nfalse\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantOutput(t, tt.source, tt.want)
		})
	}
}

func TestInterpretRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		reason string
		line   int
	}{
		{`print -"a";`, "Operand must be a number.", 1},
		{`print 1 < "a";`, "Operands must be numbers.", 1},
		{`print "a" * 2;`, "Operands must be numbers.", 1},
		{`print 1 + "a";`, "Operands must be two numbers or two strings.", 1},
		{`print nil + nil;`, "Operands must be two numbers or two strings.", 1},
		{`print x;`, "Undefined variable 'x'.", 1},
		{`x = 1;`, "Undefined variable 'x'.", 1},
		{`"a"();`, "Can only call functions and classes.", 1},
		{`fun f(a, b) {} f(1);`, "Expected 2 arguments but got 1.", 1},
		{`fun f(a, b) {} f(1, 2, 3);`, "Expected 2 arguments but got 3.", 1},
		{`class P { init(a, b) {} } P(1);`, "Expected 2 arguments but got 1.", 1},
		{`class P {} P(1);`, "Expected 0 arguments but got 1.", 1},
		{`var a = 1; print a.x;`, "Only instances have properties.", 1},
		{`var a = "s"; a.x = 2;`, "Only instances have fields.", 1},
		{`class A {} print A().x;`, "Undefined property 'x'.", 1},
		{`var NotClass = 1; class B < NotClass {}`, "Superclass must be a class.", 1},
		{`class A {} class B < A { m() { return super.nope; } } B().m();`, "Undefined property 'nope'.", 1},
		{"\n\nprint nope;", "Undefined variable 'nope'.", 3},
		{"fun f() {\n  return 1 + nil;\n}\nf();", "Operands must be two numbers or two strings.", 2},
	}

	for _, tt := range tests {
		wantRuntimeError(t, tt.source, tt.reason, tt.line)
	}
}

func TestInterpretErrorStopsProgram(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(&out)

	_, err := Run(in, `var a = 1; print a; print b; print 2;`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if out.String() != "1\n" {
		t.Errorf("output %q, want only the statements before the error", out.String())
	}

	// globals defined before the error survive into the next run
	out.Reset()
	if _, err := Run(in, `print a;`); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1\n" {
		t.Errorf("output %q, want 1", out.String())
	}
}

func TestInterpretRestoresEnvironment(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(&out)

	sources := []string{
		`{ var a = 1; { print nope; } }`,
		`fun f() { { return nope; } } { f(); }`,
		`class A { init() { this.x = missing; } } { A(); }`,
	}
	for _, source := range sources {
		if _, err := Run(in, source); err == nil {
			t.Fatalf("%q: expected a runtime error", source)
		}
		if in.env != in.globals {
			t.Errorf("%q: current environment left pointing into a block", source)
		}
	}
}

func TestInterpretStackTrace(t *testing.T) {
	rerr := wantRuntimeError(t, `
fun inner() { return nope; }
fun outer() { return inner(); }
outer();`, "Undefined variable 'nope'.", 2)

	want := "  in fn inner [line 3]\n  in fn outer [line 4]"
	if got := rerr.Trace(); got != want {
		t.Errorf("trace\n got: %q\nwant: %q", got, want)
	}
}

func TestInterpretDeterministic(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(&out)

	program := Compile(`var x = 2; print x * 3 + 1; { var y = x; print y; }`)
	bindings, diag := Resolve(program.Stmts)
	if diag.HasErrors() {
		t.Fatal(diag.Err())
	}
	in.Resolve(bindings)

	for i := 0; i < 3; i++ {
		if err := in.Interpret(program.Stmts); err != nil {
			t.Fatal(err)
		}
	}
	if want := strings.Repeat("7\n2\n", 3); out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestInterpretStaticErrorsSkipExecution(t *testing.T) {
	tests := []string{
		`print "before"; print this;`,
		`print "before"; var = 1;`,
		`print "before"; { var a = 1; var a = 2; }`,
	}

	for _, source := range tests {
		var out bytes.Buffer
		diag, err := Run(newTestInterpreter(&out), source)
		if !diag.HasErrors() {
			t.Errorf("%q: expected static errors", source)
		}
		if err != nil {
			t.Errorf("%q: unexpected runtime error %v", source, err)
		}
		if out.Len() != 0 {
			t.Errorf("%q: printed %q before a static error", source, out.String())
		}
	}
}

func TestInterpretNativeFunctions(t *testing.T) {
	var out bytes.Buffer
	ctx := NewContext("<test>")
	ctx.LoadFunc("two", 0, func(args []Value) (Value, *RuntimeError) {
		return NumberValue(2), nil
	})
	ctx.LoadFunc("twice", 1, func(args []Value) (Value, *RuntimeError) {
		n, ok := args[0].(NumberValue)
		if !ok {
			return nil, NewRuntimeError(Token{}, "twice expects a number.")
		}
		return n * 2, nil
	})
	in := NewInterpreter(&ctx, &out)

	if _, err := Run(in, `print two(); print two; print twice(two());`); err != nil {
		t.Fatal(err)
	}
	if want := "2\n<native fn>\n4\n"; out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}

	_, err := Run(in, `two(1);`)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Reason != "Expected 0 arguments but got 1." {
		t.Errorf("got %v", err)
	}

	_, err = Run(in, `twice("x");`)
	if !errors.As(err, &rerr) || rerr.Reason != "twice expects a number." {
		t.Fatalf("got %v", err)
	}
	if rerr.Trace() != "  in fn twice [line 1]" {
		t.Errorf("trace %q", rerr.Trace())
	}
}

func TestInterpretLogsScriptPath(t *testing.T) {
	var logs bytes.Buffer
	saved := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(saved) })

	var out bytes.Buffer
	ctx := NewContext("scripts/main.lox")
	in := NewInterpreter(&ctx, &out)
	if _, err := Run(in, `fun f() {} f();`); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"msg=interpret path=scripts/main.lox",
		"msg=call path=scripts/main.lox fn=f",
	} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %q:\n%s", want, logs.String())
		}
	}
}
