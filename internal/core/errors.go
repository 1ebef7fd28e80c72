package core

import "fmt"

// PreconditionError reports a caller bug: a nil collaborator, an invalid
// dimension or a call made in the wrong lifecycle state. It is raised with
// panic, never returned, and is not meant to be recovered outside the loader.
type PreconditionError struct {
	Op  string // Operation that rejected the call
	Msg string // What was wrong
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Require panics with a PreconditionError when cond is false.
func Require(cond bool, op, format string, args ...any) {
	if cond {
		return
	}
	panic(&PreconditionError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
