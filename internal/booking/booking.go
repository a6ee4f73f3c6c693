package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/avstrong/resortslots/internal/logger"
	"github.com/avstrong/resortslots/internal/slot"
)

type submitter interface {
	CreateBooking(ctx context.Context, req *Request) (*Confirmation, error)
}

type Manager struct {
	l         *logger.Logger
	submitter submitter
	validate  *validator.Validate
}

func New(l *logger.Logger, submitter submitter) *Manager {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &Manager{
		l:         l,
		submitter: submitter,
		validate:  v,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("provide %s", fe.Field())
	case "min":
		return "provide at least one slot"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// Validate checks a request against the room it targets the way the booking API will.
func (m *Manager) Validate(room *Room, req *Request) error {
	inputErr := newInputError()

	if err := m.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate booking request: %w", err)
		}

		for _, fe := range fieldErrs {
			inputErr.addError(fe.Field(), fieldMessage(fe))
		}
	}

	if req.Room != room.ID {
		inputErr.addError("room", fmt.Sprintf("request targets room %q, picker holds %q", req.Room, room.ID))
	}

	if room.Capacity > 0 && req.Guests > room.Capacity {
		inputErr.addError("guests", fmt.Sprintf("this room fits max %d persons", room.Capacity))
	}

	seen := make(map[string]struct{}, len(req.Slots))

	for _, s := range req.Slots {
		if room.DayOnly && s.Period == slot.Night {
			inputErr.addError("slots", "this accommodation is available for day tours only")
		}

		if _, dup := seen[s.Key()]; dup {
			inputErr.addError("slots", fmt.Sprintf("duplicate slot: %s on %s", s.Period, s.Date.Format(slot.DateLayout)))
		}

		seen[s.Key()] = struct{}{}
	}

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

// CreateBooking validates req and hands it to the booking API. A rejection is
// returned as *RejectedError and leaves the caller's selection untouched.
func (m *Manager) CreateBooking(ctx context.Context, room *Room, req *Request) (*Confirmation, error) {
	if err := m.Validate(room, req); err != nil {
		return nil, err
	}

	key, ok := IdempotencyKeyFromContext(ctx)
	if !ok || key == "" {
		return nil, ErrIdempotencyKey
	}

	if _, ok := SessionFromContext(ctx); !ok {
		return nil, ErrNoSession
	}

	confirmation, err := m.submitter.CreateBooking(ctx, req)
	if rejected := IsRejectedError(err); rejected != nil {
		m.l.LogInfo("Booking for room %v was rejected: %v", req.Room, rejected.Message)

		return nil, rejected
	}

	if err != nil {
		return nil, fmt.Errorf("submit booking for room %v: %w", req.Room, err)
	}

	if confirmation == nil {
		return nil, ErrNotSubmitted
	}

	m.l.LogInfo("Booking %v created for room %v with %d slots", confirmation.ID, req.Room, len(req.Slots))

	return confirmation, nil
}
