package core

import (
	"fmt"
)

const maxArgs = 255

type parser struct {
	tokens []Token
	index  int
	diag   *Diagnostics
}

// parseError unwinds the parser to the enclosing declaration, which then
// synchronizes. The message is reported when the error is created.
type parseError struct {
	reason string
	tok    Token
}

func (e parseError) Error() string {
	return fmt.Sprintf("Parse error at line %d: %s", e.tok.Line, e.reason)
}

func NewParser(tokens []Token) *parser {
	return &parser{
		tokens: tokens,
		diag:   &Diagnostics{},
	}
}

func (p *parser) isEOF() bool {
	return p.peek().Kind == EOF
}

func (p *parser) peek() Token {
	return p.tokens[p.index]
}

func (p *parser) previous() Token {
	return p.tokens[p.index-1]
}

func (p *parser) next() Token {
	if !p.isEOF() {
		p.index++
	}
	return p.previous()
}

func (p *parser) check(kind TokenKind) bool {
	if p.isEOF() {
		return false
	}
	return p.peek().Kind == kind
}

// match consumes the next token if it has one of the given kinds.
func (p *parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.next()
			return true
		}
	}
	return false
}

func (p *parser) expect(kind TokenKind, reason string) (Token, error) {
	if p.check(kind) {
		return p.next(), nil
	}
	return Token{}, p.errorAt(p.peek(), reason)
}

func (p *parser) errorAt(tok Token, reason string) parseError {
	p.diag.errorAt(tok, reason)
	return parseError{reason: reason, tok: tok}
}

// synchronize discards tokens until a statement boundary.
func (p *parser) synchronize() {
	p.next()

	for !p.isEOF() {
		if p.previous().Kind == SEMICOLON {
			return
		}

		switch p.peek().Kind {
		case CLASS, FUN, VAR, FOR, IF, WHILE, PRINT, RETURN:
			return
		}

		p.next()
	}
}

func (p *parser) parse() ([]Stmt, *Diagnostics) {
	stmts := []Stmt{}

	for !p.isEOF() {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	return stmts, p.diag
}

// parseDeclaration is the recovery point: a failed declaration is dropped
// and parsing resumes at the next statement boundary.
func (p *parser) parseDeclaration() Stmt {
	var (
		stmt Stmt
		err  error
	)

	switch {
	case p.match(CLASS):
		stmt, err = p.parseClass()
	case p.match(FUN):
		stmt, err = p.parseFunction("function")
	case p.match(VAR):
		stmt, err = p.parseVar()
	default:
		stmt, err = p.parseStatement()
	}

	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *parser) parseClass() (Stmt, error) {
	name, err := p.expect(IDENTIFIER, "Expect class name.")
	if err != nil {
		return nil, err
	}

	var superclass *VariableExpr
	if p.match(LESS) {
		superName, err := p.expect(IDENTIFIER, "Expect superclass name.")
		if err != nil {
			return nil, err
		}
		superclass = &VariableExpr{Name: superName}
	}

	if _, err := p.expect(LEFT_BRACE, "Expect '{' before class body."); err != nil {
		return nil, err
	}

	methods := []*FunctionStmt{}
	for !p.check(RIGHT_BRACE) && !p.isEOF() {
		method, err := p.parseFunction("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	if _, err := p.expect(RIGHT_BRACE, "Expect '}' after class body."); err != nil {
		return nil, err
	}

	return &ClassStmt{Name: name, Superclass: superclass, Methods: methods}, nil
}

// parseFunction parses a function or method after its introducing keyword;
// kind is used in error messages.
func (p *parser) parseFunction(kind string) (*FunctionStmt, error) {
	name, err := p.expect(IDENTIFIER, fmt.Sprintf("Expect %s name.", kind))
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LEFT_PAREN, fmt.Sprintf("Expect '(' after %s name.", kind)); err != nil {
		return nil, err
	}

	params := []Token{}
	if !p.check(RIGHT_PAREN) {
		for {
			if len(params) >= maxArgs {
				p.errorAt(p.peek(), "Can't have more than 255 parameters.")
			}

			param, err := p.expect(IDENTIFIER, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)

			if !p.match(COMMA) {
				break
			}
		}
	}

	if _, err := p.expect(RIGHT_PAREN, "Expect ')' after parameters."); err != nil {
		return nil, err
	}

	if _, err := p.expect(LEFT_BRACE, fmt.Sprintf("Expect '{' before %s body.", kind)); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &FunctionStmt{Name: name, Params: params, Body: body}, nil
}

func (p *parser) parseVar() (Stmt, error) {
	name, err := p.expect(IDENTIFIER, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var init Expr
	if p.match(EQUAL) {
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}

	return &VarStmt{Name: name, Init: init}, nil
}

func (p *parser) parseStatement() (Stmt, error) {
	switch {
	case p.match(FOR):
		return p.parseFor()
	case p.match(IF):
		return p.parseIf()
	case p.match(PRINT):
		return p.parsePrint()
	case p.match(RETURN):
		return p.parseReturn()
	case p.match(WHILE):
		return p.parseWhile()
	case p.match(LEFT_BRACE):
		stmts, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &BlockStmt{Stmts: stmts}, nil
	}

	return p.parseExpressionStmt()
}

// parseFor desugars a for loop into a while loop:
//
//	{ init; while (cond) { body; incr; } }
func (p *parser) parseFor() (Stmt, error) {
	if _, err := p.expect(LEFT_PAREN, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var (
		init Stmt
		err  error
	)
	switch {
	case p.match(SEMICOLON):
	case p.match(VAR):
		init, err = p.parseVar()
	default:
		init, err = p.parseExpressionStmt()
	}
	if err != nil {
		return nil, err
	}

	var cond Expr
	if !p.check(SEMICOLON) {
		if cond, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var incr Expr
	if !p.check(RIGHT_PAREN) {
		if incr, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RIGHT_PAREN, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if incr != nil {
		body = &BlockStmt{Stmts: []Stmt{body, &ExpressionStmt{Expr: incr}}}
	}
	if cond == nil {
		cond = &LiteralExpr{Value: BoolValue(true)}
	}
	body = &WhileStmt{Cond: cond, Body: body}
	if init != nil {
		body = &BlockStmt{Stmts: []Stmt{init, body}}
	}

	return body, nil
}

func (p *parser) parseIf() (Stmt, error) {
	if _, err := p.expect(LEFT_PAREN, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	// a dangling else binds to the nearest if
	var else_ Stmt
	if p.match(ELSE) {
		if else_, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}

	return &IfStmt{Cond: cond, Then: then, Else: else_}, nil
}

func (p *parser) parsePrint() (Stmt, error) {
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &PrintStmt{Expr: value}, nil
}

func (p *parser) parseReturn() (Stmt, error) {
	keyword := p.previous()

	var (
		value Expr
		err   error
	)
	if !p.check(SEMICOLON) {
		if value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(SEMICOLON, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	if _, err := p.expect(LEFT_PAREN, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN, "Expect ')' after condition."); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

// parseBlock parses declarations up to the closing brace; the opening brace
// has already been consumed.
func (p *parser) parseBlock() ([]Stmt, error) {
	stmts := []Stmt{}

	for !p.check(RIGHT_BRACE) && !p.isEOF() {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if _, err := p.expect(RIGHT_BRACE, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) parseExpressionStmt() (Stmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ExpressionStmt{Expr: expr}, nil
}

func (p *parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() (Expr, error) {
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.match(EQUAL) {
		return expr, nil
	}

	equals := p.previous()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	switch target := expr.(type) {
	case *VariableExpr:
		return &AssignExpr{Name: target.Name, Value: value}, nil
	case *GetExpr:
		return &SetExpr{Object: target.Object, Name: target.Name, Value: value}, nil
	}

	// reported, but the statement itself is still well formed
	p.errorAt(equals, "Invalid assignment target.")
	return expr, nil
}

func (p *parser) parseOr() (Expr, error) {
	expr, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(OR) {
		op := p.previous()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *parser) parseAnd() (Expr, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	for p.match(AND) {
		op := p.previous()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

// parseBinary parses a left-associative chain of operand (op operand)*.
func (p *parser) parseBinary(operand func() (Expr, error), ops ...TokenKind) (Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}

	for p.match(ops...) {
		op := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *parser) parseEquality() (Expr, error) {
	return p.parseBinary(p.parseComparison, BANG_EQUAL, EQUAL_EQUAL)
}

func (p *parser) parseComparison() (Expr, error) {
	return p.parseBinary(p.parseTerm, GREATER, GREATER_EQUAL, LESS, LESS_EQUAL)
}

func (p *parser) parseTerm() (Expr, error) {
	return p.parseBinary(p.parseFactor, MINUS, PLUS)
}

func (p *parser) parseFactor() (Expr, error) {
	return p.parseBinary(p.parseUnary, SLASH, STAR)
}

func (p *parser) parseUnary() (Expr, error) {
	if p.match(BANG, MINUS) {
		op := p.previous()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Right: right}, nil
	}

	return p.parseCall()
}

func (p *parser) parseCall() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(LEFT_PAREN):
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case p.match(DOT):
			name, err := p.expect(IDENTIFIER, "Expect property name after '.'.")
			if err != nil {
				return nil, err
			}
			expr = &GetExpr{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *parser) finishCall(callee Expr) (Expr, error) {
	args := []Expr{}

	if !p.check(RIGHT_PAREN) {
		for {
			if len(args) >= maxArgs {
				p.errorAt(p.peek(), "Can't have more than 255 arguments.")
			}

			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if !p.match(COMMA) {
				break
			}
		}
	}

	paren, err := p.expect(RIGHT_PAREN, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}

	return &CallExpr{Callee: callee, Paren: paren, Args: args}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case FALSE:
		p.next()
		return &LiteralExpr{Value: BoolValue(false)}, nil
	case TRUE:
		p.next()
		return &LiteralExpr{Value: BoolValue(true)}, nil
	case NIL:
		p.next()
		return &LiteralExpr{Value: Nil}, nil
	case NUMBER, STRING:
		p.next()
		return &LiteralExpr{Value: tok.Literal}, nil
	case THIS:
		p.next()
		return &ThisExpr{Keyword: tok}, nil
	case SUPER:
		p.next()
		if _, err := p.expect(DOT, "Expect '.' after 'super'."); err != nil {
			return nil, err
		}
		method, err := p.expect(IDENTIFIER, "Expect superclass method name.")
		if err != nil {
			return nil, err
		}
		return &SuperExpr{Keyword: tok, Method: method}, nil
	case IDENTIFIER:
		p.next()
		return &VariableExpr{Name: tok}, nil
	case LEFT_PAREN:
		p.next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_PAREN, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &GroupingExpr{Inner: inner}, nil
	}

	return nil, p.errorAt(tok, "Expect expression.")
}
