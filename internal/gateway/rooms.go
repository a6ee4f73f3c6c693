package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/pricing"
	"github.com/avstrong/resortslots/internal/slot"
)

type roomDTO struct {
	ID         slot.BookingRef `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"room_type"`
	DayPrice   pricing.Amount  `json:"day_price"`
	NightPrice pricing.Amount  `json:"night_price"`
	DayOnly    bool            `json:"is_day_only"`
	Capacity   int             `json:"capacity"`
}

func (d roomDTO) toRoom() booking.Room {
	return booking.Room{
		ID:       string(d.ID),
		Name:     d.Name,
		Type:     d.Type,
		DayOnly:  d.DayOnly,
		Capacity: d.Capacity,
		Rates:    pricing.Rates{Day: d.DayPrice, Night: d.NightPrice},
	}
}

type roomAvailabilityDTO struct {
	RoomID     slot.BookingRef `json:"room_id"`
	RoomName   string          `json:"room_name"`
	RoomType   string          `json:"room_type"`
	DayPrice   pricing.Amount  `json:"day_price"`
	NightPrice pricing.Amount  `json:"night_price"`
	DayOnly    bool            `json:"is_day_only"`
	slot.Availability
}

func (c *Client) Room(ctx context.Context, roomID string) (*booking.Room, error) {
	path := fmt.Sprintf("/rooms/%s/", url.PathEscape(roomID))

	resp, err := c.do(ctx, "Gateway.Room", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}

	if err = expectOK(resp, "get room "+roomID); err != nil {
		return nil, err
	}

	var dto roomDTO
	if err = decode(resp, &dto); err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}

	room := dto.toRoom()

	return &room, nil
}

// RoomAvailability fetches the booked inventory of one room.
func (c *Client) RoomAvailability(ctx context.Context, roomID string) (*slot.Availability, error) {
	path := fmt.Sprintf("/rooms/%s/availability/", url.PathEscape(roomID))

	resp, err := c.do(ctx, "Gateway.RoomAvailability", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get availability of room %s: %w", roomID, err)
	}

	if err = expectOK(resp, "get availability of room "+roomID); err != nil {
		return nil, err
	}

	var a slot.Availability
	if err = decode(resp, &a); err != nil {
		return nil, fmt.Errorf("get availability of room %s: %w", roomID, err)
	}

	return &a, nil
}

// AllAvailability fetches every active room with its booked inventory.
func (c *Client) AllAvailability(ctx context.Context) ([]booking.RoomAvailability, error) {
	resp, err := c.do(ctx, "Gateway.AllAvailability", http.MethodGet, "/rooms/all-availability/", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get all availability: %w", err)
	}

	if err = expectOK(resp, "get all availability"); err != nil {
		return nil, err
	}

	var dtos []roomAvailabilityDTO
	if err = decode(resp, &dtos); err != nil {
		return nil, fmt.Errorf("get all availability: %w", err)
	}

	out := make([]booking.RoomAvailability, 0, len(dtos))

	for _, d := range dtos {
		out = append(out, booking.RoomAvailability{
			Room: booking.Room{
				ID:      string(d.RoomID),
				Name:    d.RoomName,
				Type:    d.RoomType,
				DayOnly: d.DayOnly,
				Rates:   pricing.Rates{Day: d.DayPrice, Night: d.NightPrice},
			},
			Availability: d.Availability,
		})
	}

	return out, nil
}
