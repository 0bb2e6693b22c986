package service

import (
	"errors"
	"fmt"
)

// ErrTransactionConflict is surfaced after the bounded retry loop gives up on
// serialization failures. The account balance is unchanged when this happens.
var ErrTransactionConflict = errors.New("order placement aborted by concurrent writes, try again")

// ValidationError rejects an order before any mutation happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
