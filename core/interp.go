package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// outcome is how a statement finished: normally, or by a `return` that is
// still travelling up to the nearest call boundary.
type outcome struct {
	returning bool
	value     Value
}

var completed = outcome{}

type Interpreter struct {
	ctx     *Context
	globals *Environment
	env     *Environment
	locals  Bindings
	out     io.Writer

	// number of active calls, for tracing
	depth int
}

// NewInterpreter creates an interpreter whose global scope holds the
// context's native functions. `print` writes to out.
func NewInterpreter(ctx *Context, out io.Writer) *Interpreter {
	globals := NewEnvironment()
	for _, builtin := range ctx.Builtins {
		globals.Define(builtin.Name, builtin)
	}

	return &Interpreter{
		ctx:     ctx,
		globals: globals,
		env:     globals,
		locals:  make(Bindings),
		out:     out,
	}
}

func (in *Interpreter) Globals() *Environment {
	return in.globals
}

// Resolve adds the resolver's bindings. Tables from earlier runs stay valid
// because their keys are nodes of earlier programs.
func (in *Interpreter) Resolve(bindings Bindings) {
	for expr, hops := range bindings {
		in.locals[expr] = hops
	}
}

// Interpret executes a resolved program. The first runtime error abandons
// the remaining statements and is returned; global state built so far is
// kept.
func (in *Interpreter) Interpret(stmts []Stmt) error {
	slog.Debug("interpret", slog.String("path", in.ctx.RootPath), slog.Int("statements", len(stmts)))

	for _, stmt := range stmts {
		if _, err := in.execute(stmt); err != nil {
			in.env = in.globals
			return err
		}
	}
	return nil
}

func (in *Interpreter) execute(stmt Stmt) (outcome, error) {
	switch stmt := stmt.(type) {
	case *ExpressionStmt:
		_, err := in.evaluate(stmt.Expr)
		return completed, err
	case *PrintStmt:
		value, err := in.evaluate(stmt.Expr)
		if err != nil {
			return completed, err
		}
		fmt.Fprintln(in.out, value.String())
		return completed, nil
	case *VarStmt:
		var value Value = Nil
		if stmt.Init != nil {
			v, err := in.evaluate(stmt.Init)
			if err != nil {
				return completed, err
			}
			value = v
		}
		in.env.Define(stmt.Name.Lexeme, value)
		return completed, nil
	case *BlockStmt:
		return in.executeBlock(stmt.Stmts, NewEnclosedEnvironment(in.env))
	case *IfStmt:
		cond, err := in.evaluate(stmt.Cond)
		if err != nil {
			return completed, err
		}
		if cond.Truthy() {
			return in.execute(stmt.Then)
		} else if stmt.Else != nil {
			return in.execute(stmt.Else)
		}
		return completed, nil
	case *WhileStmt:
		for {
			cond, err := in.evaluate(stmt.Cond)
			if err != nil {
				return completed, err
			}
			if !cond.Truthy() {
				return completed, nil
			}

			result, err := in.execute(stmt.Body)
			if err != nil || result.returning {
				return result, err
			}
		}
	case *FunctionStmt:
		in.env.Define(stmt.Name.Lexeme, NewFunction(stmt, in.env, false))
		return completed, nil
	case *ReturnStmt:
		var value Value = Nil
		if stmt.Value != nil {
			v, err := in.evaluate(stmt.Value)
			if err != nil {
				return completed, err
			}
			value = v
		}
		return outcome{returning: true, value: value}, nil
	case *ClassStmt:
		return completed, in.executeClass(stmt)
	}

	panic("Unreachable: unknown statement node")
}

// executeBlock runs stmts in env and restores the previous environment on
// every exit path.
func (in *Interpreter) executeBlock(stmts []Stmt, env *Environment) (outcome, error) {
	previous := in.env
	in.env = env
	defer func() { in.env = previous }()

	for _, stmt := range stmts {
		result, err := in.execute(stmt)
		if err != nil || result.returning {
			return result, err
		}
	}
	return completed, nil
}

func (in *Interpreter) executeClass(stmt *ClassStmt) error {
	var superclass *ClassValue
	if stmt.Superclass != nil {
		value, err := in.evaluate(stmt.Superclass)
		if err != nil {
			return err
		}
		class, ok := value.(*ClassValue)
		if !ok {
			return NewRuntimeError(stmt.Superclass.Name, "Superclass must be a class.")
		}
		superclass = class
	}

	in.env.Define(stmt.Name.Lexeme, Nil)

	closure := in.env
	if superclass != nil {
		closure = NewEnclosedEnvironment(in.env)
		closure.Define("super", superclass)
	}

	methods := make(map[string]*FunctionValue, len(stmt.Methods))
	for _, method := range stmt.Methods {
		methods[method.Name.Lexeme] = NewFunction(method, closure, method.Name.Lexeme == "init")
	}

	class := NewClass(stmt.Name.Lexeme, superclass, methods)
	if err := in.env.Assign(stmt.Name, class); err != nil {
		return err
	}
	return nil
}

func (in *Interpreter) evaluate(expr Expr) (Value, error) {
	switch expr := expr.(type) {
	case *LiteralExpr:
		return expr.Value, nil
	case *GroupingExpr:
		return in.evaluate(expr.Inner)
	case *UnaryExpr:
		return in.evaluateUnary(expr)
	case *BinaryExpr:
		return in.evaluateBinary(expr)
	case *LogicalExpr:
		left, err := in.evaluate(expr.Left)
		if err != nil {
			return nil, err
		}
		if expr.Op.Kind == OR {
			if left.Truthy() {
				return left, nil
			}
		} else if !left.Truthy() {
			return left, nil
		}
		return in.evaluate(expr.Right)
	case *VariableExpr:
		return in.lookUpVariable(expr.Name, expr)
	case *AssignExpr:
		value, err := in.evaluate(expr.Value)
		if err != nil {
			return nil, err
		}
		if hops, ok := in.locals[expr]; ok {
			in.env.AssignAt(hops, expr.Name.Lexeme, value)
		} else if err := in.globals.Assign(expr.Name, value); err != nil {
			return nil, err
		}
		return value, nil
	case *CallExpr:
		return in.evaluateCall(expr)
	case *GetExpr:
		object, err := in.evaluate(expr.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*InstanceValue)
		if !ok {
			return nil, NewRuntimeError(expr.Name, "Only instances have properties.")
		}
		value, rerr := instance.Get(expr.Name)
		if rerr != nil {
			return nil, rerr
		}
		return value, nil
	case *SetExpr:
		object, err := in.evaluate(expr.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*InstanceValue)
		if !ok {
			return nil, NewRuntimeError(expr.Name, "Only instances have fields.")
		}
		value, err := in.evaluate(expr.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(expr.Name, value)
		return value, nil
	case *ThisExpr:
		return in.lookUpVariable(expr.Keyword, expr)
	case *SuperExpr:
		return in.evaluateSuper(expr)
	}

	panic("Unreachable: unknown expression node")
}

func (in *Interpreter) lookUpVariable(name Token, expr Expr) (Value, error) {
	if hops, ok := in.locals[expr]; ok {
		return in.env.GetAt(hops, name.Lexeme), nil
	}

	value, err := in.globals.Get(name)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (in *Interpreter) evaluateUnary(expr *UnaryExpr) (Value, error) {
	right, err := in.evaluate(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Op.Kind {
	case BANG:
		return BoolValue(!right.Truthy()), nil
	case MINUS:
		n, ok := right.(NumberValue)
		if !ok {
			return nil, NewRuntimeError(expr.Op, "Operand must be a number.")
		}
		return -n, nil
	}

	return nil, fmt.Errorf("invariant: invalid unary operator %s", expr.Op.Kind)
}

func (in *Interpreter) evaluateBinary(expr *BinaryExpr) (Value, error) {
	left, err := in.evaluate(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evaluate(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Op.Kind {
	case EQUAL_EQUAL:
		return BoolValue(left.Eq(right)), nil
	case BANG_EQUAL:
		return BoolValue(!left.Eq(right)), nil
	case PLUS:
		switch a := left.(type) {
		case NumberValue:
			if b, ok := right.(NumberValue); ok {
				return a + b, nil
			}
		case StringValue:
			if b, ok := right.(StringValue); ok {
				return a + b, nil
			}
		}
		return nil, NewRuntimeError(expr.Op, "Operands must be two numbers or two strings.")
	}

	a, aok := left.(NumberValue)
	b, bok := right.(NumberValue)
	if !aok || !bok {
		return nil, NewRuntimeError(expr.Op, "Operands must be numbers.")
	}

	switch expr.Op.Kind {
	case MINUS:
		return a - b, nil
	case STAR:
		return a * b, nil
	case SLASH:
		return a / b, nil
	case GREATER:
		return BoolValue(a > b), nil
	case GREATER_EQUAL:
		return BoolValue(a >= b), nil
	case LESS:
		return BoolValue(a < b), nil
	case LESS_EQUAL:
		return BoolValue(a <= b), nil
	}

	return nil, fmt.Errorf("invariant: invalid binary operator %s", expr.Op.Kind)
}

func (in *Interpreter) evaluateCall(expr *CallExpr) (Value, error) {
	callee, err := in.evaluate(expr.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, 0, len(expr.Args))
	for _, arg := range expr.Args {
		value, err := in.evaluate(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, NewRuntimeError(expr.Paren, "Can only call functions and classes.")
	}

	if len(args) != fn.Arity() {
		return nil, NewRuntimeError(expr.Paren,
			fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity(), len(args)))
	}

	return in.call(fn, args, expr.Paren)
}

// call invokes fn, adding this call to the trace of any runtime error that
// escapes it.
func (in *Interpreter) call(fn Callable, args []Value, paren Token) (Value, error) {
	name := calleeName(fn)

	in.depth++
	slog.Debug("call", slog.String("path", in.ctx.RootPath), slog.String("fn", name),
		slog.Int("line", paren.Line), slog.Int("depth", in.depth))
	result, err := fn.Call(in, args)
	in.depth--

	if err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			rerr.stackTrace = append(rerr.stackTrace, stackEntry{name: name, line: paren.Line})
		}
		return nil, err
	}
	return result, nil
}

func calleeName(fn Callable) string {
	switch fn := fn.(type) {
	case *FunctionValue:
		return fn.decl.Name.Lexeme
	case *ClassValue:
		return fn.Name
	case *NativeFnValue:
		return fn.Name
	}
	return ""
}

func (in *Interpreter) evaluateSuper(expr *SuperExpr) (Value, error) {
	hops, ok := in.locals[expr]
	if !ok {
		panic("invariant: unresolved 'super'")
	}

	superclass := in.env.GetAt(hops, "super").(*ClassValue)
	// `this` is always bound one scope inside `super`
	instance := in.env.GetAt(hops-1, "this").(*InstanceValue)

	method, ok := superclass.FindMethod(expr.Method.Lexeme)
	if !ok {
		return nil, NewRuntimeError(expr.Method,
			fmt.Sprintf("Undefined property '%s'.", expr.Method.Lexeme))
	}
	return method.Bind(instance), nil
}
