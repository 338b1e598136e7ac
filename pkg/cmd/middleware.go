package cmd

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Middleware wraps a command (logging, permission checks, recovery).
type Middleware func(Command) Command

// Apply applies middlewares in order; the last in the list is the outermost.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// PanicError is returned by WithRecover when a command panics.
type PanicError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %s panicked: %v", e.Command, e.Value)
}

// WithRecover turns a panic inside Run into a *PanicError.
func WithRecover() Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Command: c.Name(), Value: r, Stack: debug.Stack()}
				}
			}()
			return c.Run(ctx, inv)
		})
	}
}
