package core

import (
	"fmt"
	"math"
	"strconv"
)

type Value interface {
	String() string
	Eq(v Value) bool
	Truthy() bool
}

// Callable is implemented by every value that can appear before `(`.
type Callable interface {
	Value
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
}

type NilValue struct{}

func (v NilValue) String() string {
	return "nil"
}

func (v NilValue) Eq(other Value) bool {
	_, ok := other.(NilValue)
	return ok
}

func (v NilValue) Truthy() bool {
	return false
}

var Nil = NilValue{}

type BoolValue bool

func (v BoolValue) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v BoolValue) Eq(u Value) bool {
	if w, ok := u.(BoolValue); ok {
		return v == w
	}
	return false
}

func (v BoolValue) Truthy() bool {
	return bool(v)
}

type NumberValue float64

func (v NumberValue) String() string {
	f := float64(v)
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		// negative zero prints without its sign
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Eq follows IEEE comparison, so NaN is not equal to itself.
func (v NumberValue) Eq(u Value) bool {
	if w, ok := u.(NumberValue); ok {
		return v == w
	}
	return false
}

func (v NumberValue) Truthy() bool {
	return true
}

type StringValue string

func (v StringValue) String() string {
	return string(v)
}

func (v StringValue) Eq(u Value) bool {
	if w, ok := u.(StringValue); ok {
		return v == w
	}
	return false
}

func (v StringValue) Truthy() bool {
	return true
}

type builtinFn func(args []Value) (Value, *RuntimeError)

// NativeFnValue is a function implemented in Go and registered through a
// Context.
type NativeFnValue struct {
	Name      string
	NumParams int
	Fn        builtinFn
}

func (v *NativeFnValue) String() string {
	return "<native fn>"
}

func (v *NativeFnValue) Eq(u Value) bool {
	w, ok := u.(*NativeFnValue)
	return ok && v == w
}

func (v *NativeFnValue) Truthy() bool {
	return true
}

func (v *NativeFnValue) Arity() int {
	return v.NumParams
}

func (v *NativeFnValue) Call(in *Interpreter, args []Value) (Value, error) {
	result, err := v.Fn(args)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FunctionValue is a user-defined function closed over the environment it
// was declared in.
type FunctionValue struct {
	decl          *FunctionStmt
	closure       *Environment
	isInitializer bool
}

func NewFunction(decl *FunctionStmt, closure *Environment, isInitializer bool) *FunctionValue {
	return &FunctionValue{decl: decl, closure: closure, isInitializer: isInitializer}
}

func (v *FunctionValue) String() string {
	return fmt.Sprintf("<fn %s>", v.decl.Name.Lexeme)
}

func (v *FunctionValue) Eq(u Value) bool {
	w, ok := u.(*FunctionValue)
	return ok && v == w
}

func (v *FunctionValue) Truthy() bool {
	return true
}

func (v *FunctionValue) Arity() int {
	return len(v.decl.Params)
}

// Bind returns a copy of the method whose closure defines `this` as
// instance. The declaration is shared with the receiver.
func (v *FunctionValue) Bind(instance *InstanceValue) *FunctionValue {
	env := NewEnclosedEnvironment(v.closure)
	env.Define("this", instance)
	return &FunctionValue{decl: v.decl, closure: env, isInitializer: v.isInitializer}
}

func (v *FunctionValue) Call(in *Interpreter, args []Value) (Value, error) {
	env := NewEnclosedEnvironment(v.closure)
	for i, param := range v.decl.Params {
		env.Define(param.Lexeme, args[i])
	}

	result, err := in.executeBlock(v.decl.Body, env)
	if err != nil {
		return nil, err
	}

	if v.isInitializer {
		return v.closure.GetAt(0, "this"), nil
	}
	if result.returning {
		return result.value, nil
	}
	return Nil, nil
}

type ClassValue struct {
	Name       string
	methods    map[string]*FunctionValue
	superclass *ClassValue
}

func NewClass(name string, superclass *ClassValue, methods map[string]*FunctionValue) *ClassValue {
	return &ClassValue{Name: name, methods: methods, superclass: superclass}
}

func (v *ClassValue) String() string {
	return v.Name
}

func (v *ClassValue) Eq(u Value) bool {
	w, ok := u.(*ClassValue)
	return ok && v == w
}

func (v *ClassValue) Truthy() bool {
	return true
}

func (v *ClassValue) Superclass() *ClassValue {
	return v.superclass
}

// FindMethod looks name up in the class and then its ancestors; the nearest
// definition wins.
func (v *ClassValue) FindMethod(name string) (*FunctionValue, bool) {
	for class := v; class != nil; class = class.superclass {
		if method, ok := class.methods[name]; ok {
			return method, true
		}
	}
	return nil, false
}

func (v *ClassValue) Arity() int {
	if init, ok := v.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// Call instantiates the class. The result is the new instance whatever the
// initializer returns.
func (v *ClassValue) Call(in *Interpreter, args []Value) (Value, error) {
	instance := NewInstance(v)
	if init, ok := v.FindMethod("init"); ok {
		if _, err := init.Bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

type InstanceValue struct {
	class  *ClassValue
	fields map[string]Value
}

func NewInstance(class *ClassValue) *InstanceValue {
	return &InstanceValue{class: class, fields: make(map[string]Value)}
}

func (v *InstanceValue) String() string {
	return v.class.Name + " instance"
}

func (v *InstanceValue) Eq(u Value) bool {
	w, ok := u.(*InstanceValue)
	return ok && v == w
}

func (v *InstanceValue) Truthy() bool {
	return true
}

func (v *InstanceValue) Class() *ClassValue {
	return v.class
}

// Get reads a field, falling back to a method bound to the instance.
func (v *InstanceValue) Get(name Token) (Value, *RuntimeError) {
	if value, ok := v.fields[name.Lexeme]; ok {
		return value, nil
	}

	if method, ok := v.class.FindMethod(name.Lexeme); ok {
		return method.Bind(v), nil
	}

	return nil, NewRuntimeError(name, fmt.Sprintf("Undefined property '%s'.", name.Lexeme))
}

func (v *InstanceValue) Set(name Token, value Value) {
	v.fields[name.Lexeme] = value
}
