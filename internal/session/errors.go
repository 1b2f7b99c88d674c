package session

import "fmt"

// The three failure kinds every command can return. All of them surface as a
// failed ack carrying the reason string; none of them crashes the session.

// IllegalStateError reports a violated precondition (not connected, wrong run
// state).
type IllegalStateError struct {
	Reason string
}

func (e *IllegalStateError) Error() string { return e.Reason }

func illegalStatef(format string, args ...any) *IllegalStateError {
	return &IllegalStateError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidArgumentError reports a bad or unknown id, a duplicate id, or an
// insufficient privilege.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string { return e.Reason }

func invalidArgumentf(format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// InternalError reports a relay or serialization failure while messaging
// peers.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return e.Reason }

func internalErrorf(format string, args ...any) *InternalError {
	return &InternalError{Reason: fmt.Sprintf(format, args...)}
}
