// Package expression parses and evaluates formulas used in
// substitution model files. The language has numbers, variables
// (optionally subscripted, e.g. freq(2) or freq(row+1)), the unary
// functions exp and ln, and the infix operators
//
//	^  * /  + -  =  < >  == !=  &&  ||  :  ?
//
// in order of decreasing precedence. Comparisons give 1 or 0. ':'
// builds a list which evaluates to its last entry, '?' selects from a
// list.
package expression

import (
	"fmt"
)

// Environment resolves variables. Variable names are checked with
// HasVariable while parsing, values are read when the expression is
// evaluated.
type Environment interface {
	HasVariable(name string) bool
	Value(name string) float64
	Assign(name string, value float64) error
}

// Error is returned for any problem with an expression: unknown
// characters and variables, malformed expressions and wrong list
// selections.
type Error struct {
	// Expr is the expression text, empty if not known.
	Expr string
	Msg  string
}

func (e *Error) Error() string {
	if e.Expr == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (in expression \"%s\")", e.Msg, e.Expr)
}

func errorf(format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Expression is a parsed formula bound to an environment.
type Expression struct {
	Text string
	Root *Node
	env  Environment
}

// Parse parses text. Every variable with a constant subscript must be
// known to env.
func Parse(text string, env Environment) (*Expression, error) {
	p := &parser{lex: lexer{text: text}, env: env}
	root, err := p.parse()
	if err != nil {
		if e, ok := err.(*Error); ok && e.Expr == "" {
			e.Expr = text
		}
		return nil, err
	}
	return &Expression{Text: text, Root: root, env: env}, nil
}

// Eval evaluates the expression using the current values of the
// variables.
func (e *Expression) Eval() (float64, error) {
	v, err := e.Root.Eval(e.env)
	if err != nil {
		if ee, ok := err.(*Error); ok && ee.Expr == "" {
			ee.Expr = e.Text
		}
	}
	return v, err
}

// IsAssignment tests whether the top level operation is an
// assignment.
func (e *Expression) IsAssignment() bool {
	return e.Root.Kind == Assign
}

// Target returns the name of the variable assigned by an assignment
// expression.
func (e *Expression) Target() (string, error) {
	if !e.IsAssignment() {
		return "", &Error{Expr: e.Text, Msg: "not an assignment"}
	}
	return e.Root.Args[0].VariableName(e.env)
}

// Eval parses and evaluates text.
func Eval(text string, env Environment) (float64, error) {
	e, err := Parse(text, env)
	if err != nil {
		return 0, err
	}
	return e.Eval()
}

// Variables is a simple map based environment.
type Variables map[string]float64

// HasVariable tests if the variable is defined.
func (v Variables) HasVariable(name string) bool {
	_, ok := v[name]
	return ok
}

// Value returns the variable value, 0 for unknown variables.
func (v Variables) Value(name string) float64 {
	return v[name]
}

// Assign sets a variable, defining it if needed.
func (v Variables) Assign(name string, value float64) error {
	v[name] = value
	return nil
}
