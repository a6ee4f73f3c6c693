package slot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BookingRef is a booking identifier the API may send as a string or a number.
type BookingRef string

func (r *BookingRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""

		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode booking id: %w", err)
		}

		*r = BookingRef(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode booking id: %w", err)
	}

	*r = BookingRef(n.String())

	return nil
}

// Entry is one explicitly booked slot.
type Entry struct {
	Date      string     `json:"date"`
	Slot      string     `json:"slot"`
	BookingID BookingRef `json:"booking_id,omitempty"`
}

// Range is a reservation reported by check-in and check-out dates.
type Range struct {
	CheckIn   string     `json:"check_in"`
	CheckOut  string     `json:"check_out"`
	TourType  string     `json:"tour_type,omitempty"`
	BookingID BookingRef `json:"booking_id,omitempty"`
}

// Availability is the booked-inventory payload of one room; either field may be absent.
type Availability struct {
	BookedRanges []Range `json:"booked_ranges"`
	BookedSlots  []Entry `json:"booked_slots"`
}

// Lookup answers booked-slot membership questions.
type Lookup interface {
	IsBooked(date time.Time, p Period) bool
	BookingID(date time.Time, p Period) (string, bool)
}

// Index is the normalized set of booked slots for one room. The zero value and nil are empty.
type Index struct {
	booked map[string]string
}

func NewIndex(a Availability) (*Index, error) {
	idx := &Index{booked: make(map[string]string, len(a.BookedSlots))}

	for _, e := range a.BookedSlots {
		s, err := Parse(e.Date, strings.ToLower(e.Slot))
		if err != nil {
			return nil, fmt.Errorf("booked slot %+v: %w", e, err)
		}

		idx.add(s, string(e.BookingID))
	}

	for _, r := range a.BookedRanges {
		if err := idx.addRange(r); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (idx *Index) add(s Slot, bookingID string) {
	k := s.Key()
	if prev, ok := idx.booked[k]; ok && prev != "" {
		return
	}

	idx.booked[k] = bookingID
}

func (idx *Index) addRange(r Range) error {
	from, err := ParseDate(r.CheckIn)
	if err != nil {
		return fmt.Errorf("booked range %+v: %w", r, err)
	}

	to, err := ParseDate(r.CheckOut)
	if err != nil {
		return fmt.Errorf("booked range %+v: %w", r, err)
	}

	days := daysBetween(from, to)
	if days < 0 || days > maxBookingDays {
		return fmt.Errorf("booked range %s..%s: %w", r.CheckIn, r.CheckOut, ErrMalformedRange)
	}

	// check-out day is free again; a same-day range still holds its date
	if days == 0 {
		days = 1
	}

	periods := tourPeriods(r.TourType)

	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		for _, p := range periods {
			idx.add(Slot{Date: d, Period: p}, string(r.BookingID))
		}
	}

	return nil
}

// tourPeriods maps a range's tour type to the periods it holds. A missing or
// unknown type holds both, see "Booked-range shapes" in DESIGN.md.
func tourPeriods(tourType string) []Period {
	switch Period(strings.ToLower(strings.TrimSpace(tourType))) {
	case Day:
		return []Period{Day}
	case Night:
		return []Period{Night}
	default:
		return []Period{Day, Night}
	}
}

func (idx *Index) IsBooked(date time.Time, p Period) bool {
	if idx == nil {
		return false
	}

	_, ok := idx.booked[key(DateOf(date), p)]

	return ok
}

func (idx *Index) BookingID(date time.Time, p Period) (string, bool) {
	if idx == nil {
		return "", false
	}

	id, ok := idx.booked[key(DateOf(date), p)]
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.booked)
}

// Slots returns every booked slot by date, day before night.
func (idx *Index) Slots() []Slot {
	if idx == nil {
		return nil
	}

	out := make([]Slot, 0, len(idx.booked))

	for k := range idx.booked {
		date, period, _ := strings.Cut(k, ":")

		s, err := Parse(date, period)
		if err != nil {
			continue
		}

		out = append(out, s)
	}

	Sort(out)

	return out
}
