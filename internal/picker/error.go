package picker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avstrong/resortslots/internal/slot"
)

var (
	ErrAvailabilityUnavailable = errors.New("availability is not loaded, selection is disabled")
	ErrEmptySelection          = errors.New("no slots selected")
	ErrSelectionElapsed        = errors.New("selection starts in the past, pick new dates")
)

// ConflictError lists the booked slots a selected range runs into.
type ConflictError struct {
	slots []slot.Slot
}

func NewConflictError(slots []slot.Slot) *ConflictError {
	return &ConflictError{slots: slots}
}

func IsConflictError(err error) *ConflictError {
	if err == nil {
		return nil
	}

	var conflictError *ConflictError

	if errors.As(err, &conflictError) {
		return conflictError
	}

	return nil
}

func (e *ConflictError) Slots() []slot.Slot {
	return e.slots
}

func (e *ConflictError) Error() string {
	keys := make([]string, 0, len(e.slots))
	for _, s := range e.slots {
		keys = append(keys, fmt.Sprintf("%s on %s", s.Period, s.Date.Format(slot.DateLayout)))
	}

	return "selection overlaps existing bookings: " + strings.Join(keys, ", ")
}
