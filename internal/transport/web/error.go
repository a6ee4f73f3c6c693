package web

import (
	"errors"
	"net/http"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/gateway"
	"github.com/avstrong/resortslots/internal/picker"
	"github.com/avstrong/resortslots/internal/slot"
	"github.com/avstrong/resortslots/internal/storage/memory"
)

var (
	ErrPanic        = errors.New("recovered from panic")
	ErrBadQuery     = errors.New("give year and month together as numbers, or step=next|prev")
	ErrNoAuthHeader = errors.New("authorization header is missing")
)

// writeError maps err to a status and writes it in the error envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if inputErr := booking.IsInputError(err); inputErr != nil {
		s.respond(writeJSONFieldsError(w, http.StatusBadRequest, "invalid booking request", inputErr.Fields()))

		return
	}

	if rejected := booking.IsRejectedError(err); rejected != nil {
		s.respond(writeJSONError(w, http.StatusConflict, rejected.Message))

		return
	}

	if conflict := picker.IsConflictError(err); conflict != nil {
		s.respond(writeJSONError(w, http.StatusPreconditionFailed, conflict.Error()))

		return
	}

	switch {
	case errors.Is(err, slot.ErrRangeTooLong),
		errors.Is(err, picker.ErrAvailabilityUnavailable),
		errors.Is(err, picker.ErrEmptySelection),
		errors.Is(err, picker.ErrSelectionElapsed):
		s.respond(writeJSONError(w, http.StatusPreconditionFailed, err.Error()))
	case errors.Is(err, memory.ErrRequestInProgress):
		s.respond(writeJSONError(w, http.StatusConflict, memory.ErrRequestInProgress.Error()))
	case errors.Is(err, memory.ErrPickerNotFound), errors.Is(err, gateway.ErrNotFound):
		s.respond(writeJSONError(w, http.StatusNotFound, "not found"))
	case errors.Is(err, gateway.ErrUnauthorized), errors.Is(err, booking.ErrNoSession):
		s.respond(writeJSONError(w, http.StatusUnauthorized, "authentication required"))
	case errors.Is(err, gateway.ErrUnavailable):
		s.respond(writeJSONError(w, http.StatusServiceUnavailable, "booking service is temporarily unavailable"))
	case errors.Is(err, ErrBadQuery), errors.Is(err, booking.ErrIdempotencyKey),
		errors.Is(err, slot.ErrInvalidDate), errors.Is(err, slot.ErrUnknownPeriod):
		s.respond(writeJSONError(w, http.StatusBadRequest, err.Error()))
	case errors.Is(err, ErrNoAuthHeader):
		s.respond(writeJSONError(w, http.StatusUnauthorized, err.Error()))
	default:
		s.l.LogErrorf("Request failed: %v", err.Error())
		s.respond(writeJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)))
	}
}

func (s *Server) respond(err error) {
	if err != nil {
		s.l.LogErrorf("Could not write response: %v", err.Error())
	}
}
