package core

import (
	"strconv"
	"strings"
)

// Expr is one of the expression node types below. The set is closed: only
// types in this package implement it, and each pass switches over them.
type Expr interface {
	String() string
	exprNode()
}

// Stmt is one of the statement node types below.
type Stmt interface {
	String() string
	stmtNode()
}

type LiteralExpr struct {
	Value Value
}

type GroupingExpr struct {
	Inner Expr
}

type UnaryExpr struct {
	Op    Token
	Right Expr
}

type BinaryExpr struct {
	Left  Expr
	Op    Token
	Right Expr
}

// LogicalExpr is a short-circuiting `and` / `or`.
type LogicalExpr struct {
	Left  Expr
	Op    Token
	Right Expr
}

type VariableExpr struct {
	Name Token
}

type AssignExpr struct {
	Name  Token
	Value Expr
}

type CallExpr struct {
	Callee Expr
	Paren  Token
	Args   []Expr
}

type GetExpr struct {
	Object Expr
	Name   Token
}

type SetExpr struct {
	Object Expr
	Name   Token
	Value  Expr
}

type ThisExpr struct {
	Keyword Token
}

type SuperExpr struct {
	Keyword Token
	Method  Token
}

func (*LiteralExpr) exprNode()  {}
func (*GroupingExpr) exprNode() {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*LogicalExpr) exprNode()  {}
func (*VariableExpr) exprNode() {}
func (*AssignExpr) exprNode()   {}
func (*CallExpr) exprNode()     {}
func (*GetExpr) exprNode()      {}
func (*SetExpr) exprNode()      {}
func (*ThisExpr) exprNode()     {}
func (*SuperExpr) exprNode()    {}

type ExpressionStmt struct {
	Expr Expr
}

type PrintStmt struct {
	Expr Expr
}

type VarStmt struct {
	Name Token
	// Init is nil when the declaration has no initializer.
	Init Expr
}

type BlockStmt struct {
	Stmts []Stmt
}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStmt struct {
	Cond Expr
	Body Stmt
}

// FunctionStmt is a named function or a method. The declaration is shared
// by every closure created from it.
type FunctionStmt struct {
	Name   Token
	Params []Token
	Body   []Stmt
}

type ReturnStmt struct {
	Keyword Token
	Value   Expr
}

type ClassStmt struct {
	Name       Token
	Superclass *VariableExpr
	Methods    []*FunctionStmt
}

func (*ExpressionStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*VarStmt) stmtNode()        {}
func (*BlockStmt) stmtNode()      {}
func (*IfStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()      {}
func (*FunctionStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()     {}
func (*ClassStmt) stmtNode()      {}

// parenthesize renders a node in the s-expression form used by -debug-ast.
func parenthesize(name string, parts ...string) string {
	return "(" + name + " " + strings.Join(parts, " ") + ")"
}

func (n *LiteralExpr) String() string {
	if s, ok := n.Value.(StringValue); ok {
		return strconv.Quote(string(s))
	}
	return n.Value.String()
}

func (n *GroupingExpr) String() string {
	return parenthesize("group", n.Inner.String())
}

func (n *UnaryExpr) String() string {
	return parenthesize(n.Op.Lexeme, n.Right.String())
}

func (n *BinaryExpr) String() string {
	return parenthesize(n.Op.Lexeme, n.Left.String(), n.Right.String())
}

func (n *LogicalExpr) String() string {
	return parenthesize(n.Op.Lexeme, n.Left.String(), n.Right.String())
}

func (n *VariableExpr) String() string {
	return n.Name.Lexeme
}

func (n *AssignExpr) String() string {
	return parenthesize("=", n.Name.Lexeme, n.Value.String())
}

func (n *CallExpr) String() string {
	parts := []string{n.Callee.String()}
	for _, arg := range n.Args {
		parts = append(parts, arg.String())
	}
	return parenthesize("call", parts...)
}

func (n *GetExpr) String() string {
	return parenthesize(".", n.Object.String(), n.Name.Lexeme)
}

func (n *SetExpr) String() string {
	return parenthesize("=", n.Object.String()+"."+n.Name.Lexeme, n.Value.String())
}

func (n *ThisExpr) String() string {
	return "this"
}

func (n *SuperExpr) String() string {
	return "super." + n.Method.Lexeme
}

func (n *ExpressionStmt) String() string {
	return parenthesize(";", n.Expr.String())
}

func (n *PrintStmt) String() string {
	return parenthesize("print", n.Expr.String())
}

func (n *VarStmt) String() string {
	if n.Init == nil {
		return parenthesize("var", n.Name.Lexeme)
	}
	return parenthesize("var", n.Name.Lexeme, "=", n.Init.String())
}

func stmtStrings(stmts []Stmt) []string {
	parts := make([]string, len(stmts))
	for i, stmt := range stmts {
		parts[i] = stmt.String()
	}
	return parts
}

func (n *BlockStmt) String() string {
	if len(n.Stmts) == 0 {
		return "(block)"
	}
	return parenthesize("block", stmtStrings(n.Stmts)...)
}

func (n *IfStmt) String() string {
	if n.Else == nil {
		return parenthesize("if", n.Cond.String(), n.Then.String())
	}
	return parenthesize("if-else", n.Cond.String(), n.Then.String(), n.Else.String())
}

func (n *WhileStmt) String() string {
	return parenthesize("while", n.Cond.String(), n.Body.String())
}

func (n *FunctionStmt) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Lexeme
	}
	parts := append([]string{n.Name.Lexeme + "(" + strings.Join(params, " ") + ")"}, stmtStrings(n.Body)...)
	return parenthesize("fun", parts...)
}

func (n *ReturnStmt) String() string {
	if n.Value == nil {
		return "(return)"
	}
	return parenthesize("return", n.Value.String())
}

func (n *ClassStmt) String() string {
	parts := []string{n.Name.Lexeme}
	if n.Superclass != nil {
		parts = append(parts, "<", n.Superclass.Name.Lexeme)
	}
	for _, m := range n.Methods {
		parts = append(parts, m.String())
	}
	return parenthesize("class", parts...)
}
