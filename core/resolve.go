package core

// Bindings maps each resolved local reference to the number of scopes
// between its use and its definition. References missing from the table
// are globals.
type Bindings map[Expr]int

type functionKind int

const (
	noFunction functionKind = iota
	plainFunction
	initializerFunction
	methodFunction
)

type classKind int

const (
	noClass classKind = iota
	plainClass
	subclass
)

// scope tracks, per name, whether its initializer has finished.
type scope map[string]bool

type resolver struct {
	scopes []scope

	currentFunction functionKind
	currentClass    classKind

	bindings Bindings
	diag     *Diagnostics
}

func newResolver() *resolver {
	return &resolver{
		bindings: make(Bindings),
		diag:     &Diagnostics{},
	}
}

func (r *resolver) enterScope() {
	r.scopes = append(r.scopes, make(scope))
}

func (r *resolver) leaveScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) innermost() scope {
	return r.scopes[len(r.scopes)-1]
}

func (r *resolver) declare(name Token) {
	if len(r.scopes) == 0 {
		return
	}

	s := r.innermost()
	if _, ok := s[name.Lexeme]; ok {
		r.diag.errorAt(name, "Already a variable with this name in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *resolver) define(name Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.innermost()[name.Lexeme] = true
}

// resolveLocal records how many scopes out name is bound. Names not found
// in any scope are left for global lookup.
func (r *resolver) resolveLocal(expr Expr, name Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.bindings[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *resolver) resolveStmts(stmts []Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveFunction(fn *FunctionStmt, kind functionKind) {
	enclosing := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosing }()

	r.enterScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	// the body shares the parameters' scope
	r.resolveStmts(fn.Body)
	r.leaveScope()
}

func (r *resolver) resolveStmt(stmt Stmt) {
	switch stmt := stmt.(type) {
	case *BlockStmt:
		r.enterScope()
		r.resolveStmts(stmt.Stmts)
		r.leaveScope()
	case *ClassStmt:
		r.resolveClass(stmt)
	case *ExpressionStmt:
		r.resolveExpr(stmt.Expr)
	case *FunctionStmt:
		// defined before the body so the function can recurse
		r.declare(stmt.Name)
		r.define(stmt.Name)
		r.resolveFunction(stmt, plainFunction)
	case *IfStmt:
		r.resolveExpr(stmt.Cond)
		r.resolveStmt(stmt.Then)
		if stmt.Else != nil {
			r.resolveStmt(stmt.Else)
		}
	case *PrintStmt:
		r.resolveExpr(stmt.Expr)
	case *ReturnStmt:
		if r.currentFunction == noFunction {
			r.diag.errorAt(stmt.Keyword, "Can't return from top-level code.")
		}
		if stmt.Value != nil {
			if r.currentFunction == initializerFunction {
				r.diag.errorAt(stmt.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpr(stmt.Value)
		}
	case *VarStmt:
		r.declare(stmt.Name)
		if stmt.Init != nil {
			r.resolveExpr(stmt.Init)
		}
		r.define(stmt.Name)
	case *WhileStmt:
		r.resolveExpr(stmt.Cond)
		r.resolveStmt(stmt.Body)
	default:
		panic("Unreachable: unknown statement node")
	}
}

func (r *resolver) resolveClass(stmt *ClassStmt) {
	enclosing := r.currentClass
	r.currentClass = plainClass
	defer func() { r.currentClass = enclosing }()

	r.declare(stmt.Name)
	r.define(stmt.Name)

	if stmt.Superclass != nil {
		if stmt.Superclass.Name.Lexeme == stmt.Name.Lexeme {
			r.diag.errorAt(stmt.Superclass.Name, "A class can't inherit from itself.")
		}

		r.currentClass = subclass
		r.resolveExpr(stmt.Superclass)

		r.enterScope()
		r.innermost()["super"] = true
		defer r.leaveScope()
	}

	r.enterScope()
	r.innermost()["this"] = true

	for _, method := range stmt.Methods {
		kind := methodFunction
		if method.Name.Lexeme == "init" {
			kind = initializerFunction
		}
		r.resolveFunction(method, kind)
	}

	r.leaveScope()
}

func (r *resolver) resolveExpr(expr Expr) {
	switch expr := expr.(type) {
	case *AssignExpr:
		r.resolveExpr(expr.Value)
		r.resolveLocal(expr, expr.Name)
	case *BinaryExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *CallExpr:
		r.resolveExpr(expr.Callee)
		for _, arg := range expr.Args {
			r.resolveExpr(arg)
		}
	case *GetExpr:
		// properties are looked up dynamically
		r.resolveExpr(expr.Object)
	case *GroupingExpr:
		r.resolveExpr(expr.Inner)
	case *LiteralExpr:
	case *LogicalExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *SetExpr:
		r.resolveExpr(expr.Value)
		r.resolveExpr(expr.Object)
	case *SuperExpr:
		switch r.currentClass {
		case noClass:
			r.diag.errorAt(expr.Keyword, "Can't use 'super' outside of a class.")
		case plainClass:
			r.diag.errorAt(expr.Keyword, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(expr, expr.Keyword)
	case *ThisExpr:
		if r.currentClass == noClass {
			r.diag.errorAt(expr.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(expr, expr.Keyword)
	case *UnaryExpr:
		r.resolveExpr(expr.Right)
	case *VariableExpr:
		if len(r.scopes) > 0 {
			if ready, ok := r.innermost()[expr.Name.Lexeme]; ok && !ready {
				r.diag.errorAt(expr.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(expr, expr.Name)
	default:
		panic("Unreachable: unknown expression node")
	}
}
