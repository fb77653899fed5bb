package utils

import (
	"errors"
	"fmt"
)

var ErrPanic = errors.New("recovered panic")

// RecoverWithError turns a panic in the deferring function into an error
// wrapping ErrPanic. It only works when deferred directly.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		if cause, ok := rv.(error); ok {
			*err = fmt.Errorf("%w: %w", ErrPanic, cause)
			return
		}
		*err = fmt.Errorf("%w: %v", ErrPanic, rv)
	}
}
