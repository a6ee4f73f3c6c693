package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/slot"
)

const defaultRejection = "Failed to create booking"

type bookingPayload struct {
	Room            any         `json:"room"`
	Guests          int         `json:"guests"`
	Slots           []slot.Slot `json:"slots"`
	SpecialRequests string      `json:"special_requests"`
}

func newBookingPayload(req *booking.Request) bookingPayload {
	var room any = req.Room
	if n, err := strconv.Atoi(req.Room); err == nil {
		room = n
	}

	return bookingPayload{
		Room:            room,
		Guests:          req.Guests,
		Slots:           req.Slots,
		SpecialRequests: req.SpecialRequests,
	}
}

// firstMessage reads a field that holds either a message or a list of them.
func firstMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}

	return ""
}

func rejectionMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return defaultRejection
	}

	for _, key := range []string{"non_field_errors", "slots", "detail"} {
		if raw, ok := fields[key]; ok {
			if msg := firstMessage(raw); msg != "" {
				return msg
			}
		}
	}

	return defaultRejection
}

func (c *Client) refresh(ctx context.Context, r booking.Refresher) error {
	resp, err := c.do(ctx, "Gateway.RefreshToken", http.MethodPost, "/auth/refresh/",
		map[string]string{"refresh": r.RefreshToken()}, nil)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	if err = expectOK(resp, "refresh token"); err != nil {
		return err
	}

	var out struct {
		Access string `json:"access"`
	}

	if err = decode(resp, &out); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	if out.Access == "" {
		return fmt.Errorf("refresh token: %w", ErrUnauthorized)
	}

	r.SetAccessToken(out.Access)

	return nil
}

// CreateBooking submits req with the session and idempotency key carried by
// ctx. A 401 is retried once after refreshing the session's access token.
func (c *Client) CreateBooking(ctx context.Context, req *booking.Request) (*booking.Confirmation, error) {
	session, ok := booking.SessionFromContext(ctx)
	if !ok {
		return nil, booking.ErrNoSession
	}

	key, ok := booking.IdempotencyKeyFromContext(ctx)
	if !ok || key == "" {
		return nil, booking.ErrIdempotencyKey
	}

	payload := newBookingPayload(req)

	post := func() (*response, error) {
		return c.do(ctx, "Gateway.CreateBooking", http.MethodPost, "/bookings/", payload, map[string]string{
			"Authorization":   "Bearer " + session.AccessToken(),
			"Idempotency-Key": key,
		})
	}

	resp, err := post()
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if refresher, canRefresh := session.(booking.Refresher); resp.status == http.StatusUnauthorized &&
		canRefresh && refresher.RefreshToken() != "" {
		if err = c.refresh(ctx, refresher); err != nil {
			return nil, fmt.Errorf("create booking: %w", err)
		}

		c.l.LogDebugf("Access token refreshed, resubmitting booking for room %v", req.Room)

		if resp, err = post(); err != nil {
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}

	switch resp.status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusBadRequest, http.StatusConflict:
		return nil, booking.NewRejectedError(resp.status, rejectionMessage(resp.body))
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("create booking: %w", ErrUnauthorized)
	default:
		return nil, fmt.Errorf("create booking: %w", &StatusError{Status: resp.status, Body: string(resp.body)})
	}

	var confirmation booking.Confirmation
	if err = decode(resp, &confirmation); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	return &confirmation, nil
}
