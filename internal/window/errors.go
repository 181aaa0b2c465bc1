package window

import "fmt"

// Error reports a failure of the host windowing subsystem to create or
// destroy the auxiliary window. It is never retried by the controller.
type Error struct {
	Op    string // "create" or "close"
	Label string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s window %q: %v", e.Op, e.Label, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
