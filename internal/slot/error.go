package slot

import "errors"

// MaxRangeSlots bounds a single selection; wider spans yield ErrRangeTooLong.
const MaxRangeSlots = 500

// maxBookingDays bounds the expansion of one booked range from the gateway.
const maxBookingDays = 3660

var (
	ErrRangeTooLong     = errors.New("range too long, please narrow your dates")
	ErrInvalidRange     = errors.New("check-out must follow check-in")
	ErrPeriodNotOffered = errors.New("period is not offered for this room")
	ErrUnknownPeriod    = errors.New("unknown slot period")
	ErrInvalidDate      = errors.New("invalid date, use YYYY-MM-DD")
	ErrMalformedRange   = errors.New("malformed booked range")
)
