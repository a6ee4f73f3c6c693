package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("booking api is unavailable")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a response status the gateway has no mapping for.
type StatusError struct {
	Status int
	Body   string
}

func IsStatusError(err error) *StatusError {
	if err == nil {
		return nil
	}

	var statusError *StatusError

	if errors.As(err, &statusError) {
		return statusError
	}

	return nil
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}
