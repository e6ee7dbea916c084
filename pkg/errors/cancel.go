package errors

import stdErrors "errors"

// ErrCancelled is returned when an operation's context is cancelled before
// the operation reaches a durable checkpoint. It is a sentinel distinct from
// every typed error in this package so callers can distinguish "you asked me
// to stop" from an actual failure via errors.Is.
var ErrCancelled = stdErrors.New("cabinet: operation cancelled before completion")
