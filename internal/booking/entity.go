package booking

import (
	"github.com/avstrong/resortslots/internal/pricing"
	"github.com/avstrong/resortslots/internal/slot"
)

type Room struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     string        `json:"room_type"`
	DayOnly  bool          `json:"is_day_only"`
	Capacity int           `json:"capacity"`
	Rates    pricing.Rates `json:"rates"`
}

type Request struct {
	Room            string      `json:"room" validate:"required"`
	Guests          int         `json:"guests" validate:"gte=1"`
	Slots           []slot.Slot `json:"slots" validate:"required,min=1"`
	SpecialRequests string      `json:"special_requests" validate:"max=1000"`
}

type Confirmation struct {
	ID           slot.BookingRef `json:"id"`
	Room         slot.BookingRef `json:"room"`
	CheckIn      string          `json:"check_in"`
	CheckOut     string          `json:"check_out"`
	Guests       int             `json:"guests"`
	Slots        []slot.Slot     `json:"slots"`
	SlotsSummary string          `json:"slots_summary"`
	TotalPrice   pricing.Amount  `json:"total_price"`
	Status       string          `json:"status"`
}

// RoomAvailability pairs a room with its booked inventory.
type RoomAvailability struct {
	Room         Room
	Availability slot.Availability
}
