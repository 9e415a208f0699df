package rules

import (
	"errors"
	"fmt"
)

// IllegalMoveError means the requested action is plausible but violates a
// game rule (not enough coins, out-of-range travel, bad choice count). The
// caller can let the user retry the same step.
type IllegalMoveError struct {
	Msg string
}

func (e *IllegalMoveError) Error() string { return e.Msg }

// BadStateError means the request does not match current server state (stale
// encounter uuid, acting with an active encounter, replay mismatch). The
// caller should refetch state before retrying.
type BadStateError struct {
	Msg string
}

func (e *BadStateError) Error() string { return e.Msg }

func illegalMovef(format string, args ...interface{}) error {
	return &IllegalMoveError{Msg: fmt.Sprintf(format, args...)}
}

func badStatef(format string, args ...interface{}) error {
	return &BadStateError{Msg: fmt.Sprintf(format, args...)}
}

// IsIllegalMove reports whether err is an IllegalMoveError.
func IsIllegalMove(err error) bool {
	var e *IllegalMoveError
	return errors.As(err, &e)
}

// IsBadState reports whether err is a BadStateError.
func IsBadState(err error) bool {
	var e *BadStateError
	return errors.As(err, &e)
}
