package model

import (
	"fmt"
)

// Error is returned when a model file cannot be loaded. Err is set when
// the problem is in a formula (an *expression.Error).
type Error struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Msg
	if e.File != "" {
		if e.Line > 0 {
			s = fmt.Sprintf("%s:%d: %s", e.File, e.Line, s)
		} else {
			s = e.File + ": " + s
		}
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}
