package booking

import (
	"errors"
	"fmt"
)

var (
	ErrIdempotencyKey = errors.New("idempotency key not found")
	ErrNoSession      = errors.New("no session in context")
	ErrNotSubmitted   = errors.New("booking was not submitted")
)

// RejectedError is the booking API refusing a submission, e.g. because another
// guest took one of the slots first. The selection stays editable.
type RejectedError struct {
	Status  int
	Message string
}

func NewRejectedError(status int, message string) *RejectedError {
	return &RejectedError{Status: status, Message: message}
}

func IsRejectedError(err error) *RejectedError {
	if err == nil {
		return nil
	}

	var rejectedError *RejectedError

	if errors.As(err, &rejectedError) {
		return rejectedError
	}

	return nil
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("booking rejected (%d): %s", e.Status, e.Message)
}

type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{
		fields: make(map[string][]string),
	}
}

func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}

	var inputError *InputError

	if errors.As(err, &inputError) {
		return inputError
	}

	return nil
}

func (ie *InputError) fieldsCount() int {
	return len(ie.fields)
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) Error() string {
	return fmt.Sprintf("%+v", ie.fields)
}

func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}
