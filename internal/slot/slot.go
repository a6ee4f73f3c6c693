package slot

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

const (
	DateLayout = "2006-01-02"

	// CutoffHour closes the day tour and opens the night tour.
	CutoffHour = 17
)

type Period string

const (
	Day   Period = "day"
	Night Period = "night"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Day, Night:
		return Period(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownPeriod)
	}
}

func (p Period) rank() int {
	if p == Night {
		return 1
	}

	return 0
}

// Periods lists the periods a room offers on every date, earliest first.
func Periods(dayOnly bool) []Period {
	if dayOnly {
		return []Period{Day}
	}

	return []Period{Day, Night}
}

// Date returns the calendar date as UTC midnight, the canonical form used by every slot.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping the calendar date seen in t's location.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}

	return d, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour)) //nolint:gomnd
}

type Slot struct {
	Date   time.Time
	Period Period
}

func New(date time.Time, p Period) Slot {
	return Slot{Date: DateOf(date), Period: p}
}

func Parse(date, period string) (Slot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Slot{}, err
	}

	p, err := ParsePeriod(period)
	if err != nil {
		return Slot{}, err
	}

	return Slot{Date: d, Period: p}, nil
}

func (s Slot) Key() string {
	return key(s.Date, s.Period)
}

func key(date time.Time, p Period) string {
	return date.Format(DateLayout) + ":" + string(p)
}

func (s Slot) String() string {
	return s.Key()
}

// Compare orders slots by date, then Day before Night.
func (s Slot) Compare(o Slot) int {
	switch {
	case s.Date.Before(o.Date):
		return -1
	case s.Date.After(o.Date):
		return 1
	}

	return s.Period.rank() - o.Period.rank()
}

func (s Slot) Before(o Slot) bool { return s.Compare(o) < 0 }
func (s Slot) After(o Slot) bool  { return s.Compare(o) > 0 }
func (s Slot) Equal(o Slot) bool  { return s.Compare(o) == 0 }

// Between reports whether s lies strictly between from and to.
func (s Slot) Between(from, to Slot) bool {
	return s.After(from) && s.Before(to)
}

// Next returns the slot that immediately follows s for a room of the given kind.
func (s Slot) Next(dayOnly bool) Slot {
	if !dayOnly && s.Period == Day {
		return Slot{Date: s.Date, Period: Night}
	}

	return Slot{Date: s.Date.AddDate(0, 0, 1), Period: Day}
}

type wireSlot struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSlot{Date: s.Date.Format(DateLayout), Slot: string(s.Period)}) //nolint:wrapcheck
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	var w wireSlot
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode slot: %w", err)
	}

	parsed, err := Parse(w.Date, w.Slot)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Sort orders slots in place: by date, day before night.
func Sort(slots []Slot) {
	slices.SortFunc(slots, func(a, b Slot) int { return a.Compare(b) })
}
