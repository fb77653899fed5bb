package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExpired        = errors.New("screening link has expired")
	ErrDeclined       = errors.New("screening was declined")
	ErrNetwork        = errors.New("could not reach screening service")
	ErrTerminal       = errors.New("screening no longer accepts changes")
	ErrNotInitialized = errors.New("session is not initialized")
	ErrIncomplete     = errors.New("screening is incomplete")
)

// SubmitRejectedError is returned when the service answered a submit with
// success=false, e.g. because its own validation disagrees.
type SubmitRejectedError struct {
	MissingFields []string
	Message       string
}

func (e *SubmitRejectedError) Error() string {
	msg := "submission rejected"
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if len(e.MissingFields) > 0 {
		msg = fmt.Sprintf("%s (missing: %s)", msg, strings.Join(e.MissingFields, ", "))
	}
	return msg
}
