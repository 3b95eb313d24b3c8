package logging

import "context"

// nop discards all log output. Useful as a constructor default and in tests
// that do not assert on logging.
type nop struct{}

// NewNop returns a Logger that discards everything.
func NewNop() Logger { return nop{} }

func (nop) Debug(context.Context, string, ...any) {}
func (nop) Info(context.Context, string, ...any)  {}
func (nop) Warn(context.Context, string, ...any)  {}
func (nop) Error(context.Context, string, ...any) {}
func (nop) With(...any) Logger                    { return nop{} }
