// Package summary builds the public all-rooms calendar: which rooms hold
// bookings on each day of a month.
package summary

import (
	"fmt"
	"time"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/calendar"
	"github.com/avstrong/resortslots/internal/slot"
)

type BookedRoom struct {
	ID      string        `json:"room_id"`
	Name    string        `json:"room_name"`
	Type    string        `json:"room_type"`
	Periods []slot.Period `json:"periods"`
}

type Day struct {
	Blank     bool         `json:"blank"`
	Day       int          `json:"day,omitempty"`
	Date      string       `json:"date,omitempty"`
	IsPast    bool         `json:"is_past"`
	IsToday   bool         `json:"is_today"`
	IsWeekend bool         `json:"is_weekend"`
	Rooms     []BookedRoom `json:"rooms,omitempty"`
}

type Month struct {
	View     calendar.View `json:"view"`
	Title    string        `json:"title"`
	Weekdays [7]string     `json:"weekdays"`
	Days     []Day         `json:"days"`
}

type roomIndex struct {
	room booking.Room
	// booked holds the booked periods per date, day before night.
	booked map[string][]slot.Period
}

func newRoomIndex(room booking.Room, idx *slot.Index) roomIndex {
	ri := roomIndex{room: room, booked: make(map[string][]slot.Period)}

	for _, s := range idx.Slots() {
		if room.DayOnly && s.Period != slot.Day {
			continue
		}

		date := s.Date.Format(slot.DateLayout)
		ri.booked[date] = append(ri.booked[date], s.Period)
	}

	return ri
}

// Build lays out month v for every room in rooms. A room whose inventory
// cannot be read fails the whole month.
func Build(v calendar.View, now time.Time, rooms []booking.RoomAvailability) (*Month, error) {
	indexes := make([]roomIndex, 0, len(rooms))

	for _, r := range rooms {
		idx, err := slot.NewIndex(r.Availability)
		if err != nil {
			return nil, fmt.Errorf("read availability of room %s: %w", r.Room.ID, err)
		}

		indexes = append(indexes, newRoomIndex(r.Room, idx))
	}

	cells := calendar.CellsForMonth(v, now, nil, true)
	days := make([]Day, 0, len(cells))

	for _, c := range cells {
		day := Day{
			Blank:     c.Blank,
			Day:       c.Day,
			Date:      c.Date,
			IsPast:    c.IsPast,
			IsToday:   c.IsToday,
			IsWeekend: c.IsWeekend,
		}

		if !c.Blank {
			day.Rooms = bookedRooms(indexes, c.Date)
		}

		days = append(days, day)
	}

	return &Month{
		View:     v,
		Title:    v.Title(),
		Weekdays: calendar.WeekdayLabels,
		Days:     days,
	}, nil
}

func bookedRooms(indexes []roomIndex, date string) []BookedRoom {
	var out []BookedRoom

	for _, ri := range indexes {
		periods, ok := ri.booked[date]
		if !ok {
			continue
		}

		out = append(out, BookedRoom{
			ID:      ri.room.ID,
			Name:    ri.room.Name,
			Type:    ri.room.Type,
			Periods: periods,
		})
	}

	return out
}
