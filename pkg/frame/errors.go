package frame

import "errors"

// Internal invariant violations. Any of these surfacing means the driver
// scheduled or consumed work it was not entitled to; the current
// interpretation step must be abandoned, never retried.
var (
	ErrStackUnderflow     = errors.New("value stack underflow")
	ErrNoPending          = errors.New("no pending instruction in scope")
	ErrNoScope            = errors.New("frame has no active scope")
	ErrUnresolvedVariable = errors.New("unresolved variable")
)
