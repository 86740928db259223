package core

import (
	"errors"
	"fmt"
)

// StaticError is a lexical, syntax or resolution error. It is reported
// before any code runs.
type StaticError struct {
	Line    int
	Where   string
	Message string
}

func (e *StaticError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// Diagnostics collects the static errors of one pipeline stage. Every stage
// returns its own value and the caller decides whether to continue.
type Diagnostics struct {
	Errors []*StaticError
}

func (d *Diagnostics) report(line int, where string, message string) {
	d.Errors = append(d.Errors, &StaticError{Line: line, Where: where, Message: message})
}

// errorAt reports a message located at tok.
func (d *Diagnostics) errorAt(tok Token, message string) {
	if tok.Kind == EOF {
		d.report(tok.Line, " at end ", message)
		return
	}
	d.report(tok.Line, fmt.Sprintf(" at '%s'", tok.Lexeme), message)
}

func (d *Diagnostics) HasErrors() bool {
	return d != nil && len(d.Errors) > 0
}

// Merge appends the errors of other, in order.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Errors = append(d.Errors, other.Errors...)
}

// Err joins all collected errors, or returns nil when there are none.
func (d *Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}
	errs := make([]error, len(d.Errors))
	for i, e := range d.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
