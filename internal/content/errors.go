package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a detail lookup matches no records.
	ErrNotFound = errors.New("content not found")
	// ErrMalformed marks a successful response whose body is not a known
	// content payload.
	ErrMalformed = errors.New("malformed content payload")
)

// StatusError captures non-2xx HTTP responses from the content API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}
