package calendar

import (
	"fmt"
	"time"

	"github.com/avstrong/resortslots/internal/slot"
)

// WeekdayLabels heads the grid columns; the grid starts on Sunday.
var WeekdayLabels = [7]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// View is the displayed month. It is independent of any selection.
type View struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func ViewOf(t time.Time) View {
	return View{Year: t.Year(), Month: t.Month()}
}

func (v View) Valid() bool {
	return v.Month >= time.January && v.Month <= time.December && v.Year > 0
}

func (v View) First() time.Time {
	return slot.Date(v.Year, v.Month, 1)
}

func (v View) Days() int {
	return v.First().AddDate(0, 1, -1).Day()
}

func (v View) Next() View {
	return ViewOf(v.First().AddDate(0, 1, 0))
}

func (v View) Prev() View {
	return ViewOf(v.First().AddDate(0, -1, 0))
}

func (v View) Title() string {
	return fmt.Sprintf("%s %d", v.Month, v.Year)
}

// Leading is the number of blank cells before the first day of the month.
func (v View) Leading() int {
	return int(v.First().Weekday())
}

type PeriodState struct {
	Period     slot.Period `json:"period"`
	Booked     bool        `json:"booked"`
	Past       bool        `json:"past"`
	Selectable bool        `json:"selectable"`
	BookingID  string      `json:"booking_id,omitempty"`
}

type Cell struct {
	Blank     bool          `json:"blank"`
	Day       int           `json:"day,omitempty"`
	Date      string        `json:"date,omitempty"`
	IsPast    bool          `json:"is_past"`
	IsToday   bool          `json:"is_today"`
	IsWeekend bool          `json:"is_weekend"`
	Periods   []PeriodState `json:"periods,omitempty"`
}

// Elapsed reports whether a period on date is over at now. Both periods of the
// current date count as elapsed from the cut-off hour on.
func Elapsed(date time.Time, now time.Time) bool {
	today := slot.DateOf(now)
	d := slot.DateOf(date)

	if d.Before(today) {
		return true
	}

	return d.Equal(today) && now.Hour() >= slot.CutoffHour
}

func StateOf(s slot.Slot, now time.Time, booked slot.Lookup) PeriodState {
	if booked == nil {
		booked = (*slot.Index)(nil)
	}

	st := PeriodState{
		Period: s.Period,
		Booked: booked.IsBooked(s.Date, s.Period),
		Past:   Elapsed(s.Date, now),
	}
	st.Selectable = !st.Booked && !st.Past

	if st.Booked {
		st.BookingID, _ = booked.BookingID(s.Date, s.Period)
	}

	return st
}

// CellsForMonth lays out the month of v with leading blanks. It keeps no state;
// callers re-derive it whenever now moves.
func CellsForMonth(v View, now time.Time, booked slot.Lookup, dayOnly bool) []Cell {
	lead := v.Leading()
	days := v.Days()
	today := slot.DateOf(now)
	periods := slot.Periods(dayOnly)

	cells := make([]Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}

	for d := 1; d <= days; d++ {
		date := slot.Date(v.Year, v.Month, d)
		wd := date.Weekday()

		cell := Cell{
			Day:       d,
			Date:      date.Format(slot.DateLayout),
			IsPast:    date.Before(today),
			IsToday:   date.Equal(today),
			IsWeekend: wd == time.Saturday || wd == time.Sunday,
			Periods:   make([]PeriodState, 0, len(periods)),
		}

		for _, p := range periods {
			cell.Periods = append(cell.Periods, StateOf(slot.Slot{Date: date, Period: p}, now, booked))
		}

		cells = append(cells, cell)
	}

	return cells
}
