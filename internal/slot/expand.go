package slot

import "fmt"

// Span counts the slots from checkIn to checkOut inclusive; it is at most zero when checkOut precedes checkIn.
func Span(checkIn, checkOut Slot, dayOnly bool) int {
	days := daysBetween(checkIn.Date, checkOut.Date)
	if dayOnly {
		return days + 1
	}

	return days*2 + checkOut.Period.rank() - checkIn.Period.rank() + 1
}

// Expand enumerates every slot from checkIn to checkOut inclusive by date, day before night.
// A nil checkOut yields just checkIn.
func Expand(checkIn Slot, checkOut *Slot, dayOnly bool) ([]Slot, error) {
	if dayOnly && (checkIn.Period != Day || (checkOut != nil && checkOut.Period != Day)) {
		return nil, ErrPeriodNotOffered
	}

	if checkOut == nil || checkOut.Equal(checkIn) {
		return []Slot{checkIn}, nil
	}

	if checkOut.Before(checkIn) {
		return nil, fmt.Errorf("%s..%s: %w", checkIn, checkOut, ErrInvalidRange)
	}

	n := Span(checkIn, *checkOut, dayOnly)
	if n > MaxRangeSlots {
		return nil, fmt.Errorf("%d slots from %s to %s: %w", n, checkIn, checkOut, ErrRangeTooLong)
	}

	out := make([]Slot, 0, n)
	for s := checkIn; !s.After(*checkOut); s = s.Next(dayOnly) {
		out = append(out, s)
	}

	return out, nil
}

// Overlaps returns the members of slots that are booked, preserving order.
func Overlaps(slots []Slot, booked Lookup) []Slot {
	var conflicts []Slot

	for _, s := range slots {
		if booked.IsBooked(s.Date, s.Period) {
			conflicts = append(conflicts, s)
		}
	}

	return conflicts
}
