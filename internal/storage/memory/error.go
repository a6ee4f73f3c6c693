package memory

import "errors"

var (
	ErrPickerNotFound    = errors.New("picker not found")
	ErrRecordNotFound    = errors.New("record not found")
	ErrRequestInProgress = errors.New("a booking request with this idempotency key is in progress")
)
