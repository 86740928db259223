package core

import (
	"errors"
	"fmt"
	"strconv"
)

type TokenKind int

const (
	UNKNOWN TokenKind = iota

	// single-character tokens
	LEFT_PAREN
	RIGHT_PAREN
	LEFT_BRACE
	RIGHT_BRACE
	COMMA
	DOT
	MINUS
	PLUS
	SEMICOLON
	SLASH
	STAR

	// one or two character tokens
	BANG
	BANG_EQUAL
	EQUAL
	EQUAL_EQUAL
	GREATER
	GREATER_EQUAL
	LESS
	LESS_EQUAL

	// literals
	IDENTIFIER
	STRING
	NUMBER

	// keywords
	AND
	CLASS
	ELSE
	FALSE
	FUN
	FOR
	IF
	NIL
	OR
	PRINT
	RETURN
	SUPER
	THIS
	TRUE
	VAR
	WHILE

	EOF
)

var keywords = map[string]TokenKind{
	"and":    AND,
	"class":  CLASS,
	"else":   ELSE,
	"false":  FALSE,
	"for":    FOR,
	"fun":    FUN,
	"if":     IF,
	"nil":    NIL,
	"or":     OR,
	"print":  PRINT,
	"return": RETURN,
	"super":  SUPER,
	"this":   THIS,
	"true":   TRUE,
	"var":    VAR,
	"while":  WHILE,
}

var kindNames = [...]string{
	UNKNOWN:       "UNKNOWN",
	LEFT_PAREN:    "LEFT_PAREN",
	RIGHT_PAREN:   "RIGHT_PAREN",
	LEFT_BRACE:    "LEFT_BRACE",
	RIGHT_BRACE:   "RIGHT_BRACE",
	COMMA:         "COMMA",
	DOT:           "DOT",
	MINUS:         "MINUS",
	PLUS:          "PLUS",
	SEMICOLON:     "SEMICOLON",
	SLASH:         "SLASH",
	STAR:          "STAR",
	BANG:          "BANG",
	BANG_EQUAL:    "BANG_EQUAL",
	EQUAL:         "EQUAL",
	EQUAL_EQUAL:   "EQUAL_EQUAL",
	GREATER:       "GREATER",
	GREATER_EQUAL: "GREATER_EQUAL",
	LESS:          "LESS",
	LESS_EQUAL:    "LESS_EQUAL",
	IDENTIFIER:    "IDENTIFIER",
	STRING:        "STRING",
	NUMBER:        "NUMBER",
	AND:           "AND",
	CLASS:         "CLASS",
	ELSE:          "ELSE",
	FALSE:         "FALSE",
	FUN:           "FUN",
	FOR:           "FOR",
	IF:            "IF",
	NIL:           "NIL",
	OR:            "OR",
	PRINT:         "PRINT",
	RETURN:        "RETURN",
	SUPER:         "SUPER",
	THIS:          "THIS",
	TRUE:          "TRUE",
	VAR:           "VAR",
	WHILE:         "WHILE",
	EOF:           "EOF",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "<unknown>"
}

// IsKeyword reports whether the kind is one of the reserved words.
func (k TokenKind) IsKeyword() bool {
	return k >= AND && k <= WHILE
}

type Token struct {
	Kind   TokenKind
	Lexeme string
	// Literal holds the NumberValue or StringValue of a literal token, and is
	// nil for every other kind.
	Literal Value
	Line    int

	// rune offset and length of the lexeme within the scanned source
	Offset int
	Length int
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %s %s", t.Kind, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("%s %s", t.Kind, t.Lexeme)
}

type Tokenizer struct {
	source []rune
	start  int
	index  int
	line   int

	tokens []Token
	diag   *Diagnostics
}

func NewTokenizer(source string) *Tokenizer {
	return &Tokenizer{
		source: []rune(source),
		line:   1,
		diag:   &Diagnostics{},
	}
}

func (t *Tokenizer) isEOF() bool {
	return t.index >= len(t.source)
}

func (t *Tokenizer) next() rune {
	ch := t.source[t.index]
	t.index++
	return ch
}

func (t *Tokenizer) peek() rune {
	if t.isEOF() {
		return 0
	}
	return t.source[t.index]
}

func (t *Tokenizer) peekAhead(n int) rune {
	if t.index+n >= len(t.source) {
		return 0
	}
	return t.source[t.index+n]
}

// match consumes the next rune only if it is ch.
func (t *Tokenizer) match(ch rune) bool {
	if t.isEOF() || t.source[t.index] != ch {
		return false
	}
	t.index++
	return true
}

func (t *Tokenizer) addToken(kind TokenKind, literal Value) {
	t.tokens = append(t.tokens, Token{
		Kind:    kind,
		Lexeme:  string(t.source[t.start:t.index]),
		Literal: literal,
		Line:    t.line,
		Offset:  t.start,
		Length:  t.index - t.start,
	})
}

func (t *Tokenizer) either(ch rune, matched, otherwise TokenKind) {
	if t.match(ch) {
		t.addToken(matched, nil)
	} else {
		t.addToken(otherwise, nil)
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func (t *Tokenizer) readString() {
	for !t.isEOF() && t.peek() != '"' {
		if t.peek() == '\n' {
			t.line++
		}
		t.next()
	}

	if t.isEOF() {
		t.diag.report(t.line, "", "Unterminated string.")
		return
	}

	t.next() // closing quote
	value := string(t.source[t.start+1 : t.index-1])
	t.addToken(STRING, StringValue(value))
}

func (t *Tokenizer) readNumber() {
	for isDigit(t.peek()) {
		t.next()
	}

	// a trailing dot is not part of the number
	if t.peek() == '.' && isDigit(t.peekAhead(1)) {
		t.next()
		for isDigit(t.peek()) {
			t.next()
		}
	}

	lexeme := string(t.source[t.start:t.index])
	// out of range literals keep ParseFloat's ±Inf
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		t.diag.report(t.line, "", fmt.Sprintf("Invalid number %s.", lexeme))
		return
	}
	t.addToken(NUMBER, NumberValue(n))
}

func (t *Tokenizer) readIdentifier() {
	for isAlpha(t.peek()) || isDigit(t.peek()) {
		t.next()
	}

	text := string(t.source[t.start:t.index])
	if kind, ok := keywords[text]; ok {
		t.addToken(kind, nil)
		return
	}
	t.addToken(IDENTIFIER, nil)
}

func (t *Tokenizer) nextToken() {
	ch := t.next()

	switch ch {
	case '(':
		t.addToken(LEFT_PAREN, nil)
	case ')':
		t.addToken(RIGHT_PAREN, nil)
	case '{':
		t.addToken(LEFT_BRACE, nil)
	case '}':
		t.addToken(RIGHT_BRACE, nil)
	case ',':
		t.addToken(COMMA, nil)
	case '.':
		t.addToken(DOT, nil)
	case '-':
		t.addToken(MINUS, nil)
	case '+':
		t.addToken(PLUS, nil)
	case ';':
		t.addToken(SEMICOLON, nil)
	case '*':
		t.addToken(STAR, nil)
	case '!':
		t.either('=', BANG_EQUAL, BANG)
	case '=':
		t.either('=', EQUAL_EQUAL, EQUAL)
	case '<':
		t.either('=', LESS_EQUAL, LESS)
	case '>':
		t.either('=', GREATER_EQUAL, GREATER)
	case '/':
		if t.match('/') {
			for !t.isEOF() && t.peek() != '\n' {
				t.next()
			}
			return
		}
		t.addToken(SLASH, nil)
	case ' ', '\r', '\t':
	case '\n':
		t.line++
	case '"':
		t.readString()
	default:
		if isDigit(ch) {
			t.readNumber()
		} else if isAlpha(ch) {
			t.readIdentifier()
		} else {
			t.diag.report(t.line, "", "Unexpected character.")
		}
	}
}

// Tokenize scans the whole source. Lexical errors are collected in the
// returned diagnostics and never stop the scan; the token slice always ends
// with an EOF token.
func (t *Tokenizer) Tokenize() ([]Token, *Diagnostics) {
	// check for shebang and skip
	if t.peek() == '#' && t.peekAhead(1) == '!' {
		for !t.isEOF() && t.peek() != '\n' {
			t.next()
		}
	}

	for !t.isEOF() {
		t.start = t.index
		t.nextToken()
	}

	t.tokens = append(t.tokens, Token{
		Kind:   EOF,
		Line:   t.line,
		Offset: t.index,
	})

	return t.tokens, t.diag
}
