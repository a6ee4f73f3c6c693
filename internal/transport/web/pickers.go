package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/calendar"
	"github.com/avstrong/resortslots/internal/picker"
	"github.com/avstrong/resortslots/internal/slot"
)

type createPickerInput struct {
	RoomID slot.BookingRef `json:"room_id"`
}

type pickerOutput struct {
	ID       string          `json:"id"`
	Room     booking.Room    `json:"room"`
	Snapshot picker.Snapshot `json:"snapshot"`
}

type clickInput struct {
	Date string `json:"date"`
	Slot string `json:"slot,omitempty"`
}

type clickOutput struct {
	Accepted bool            `json:"accepted"`
	Snapshot picker.Snapshot `json:"snapshot"`
}

type calendarOutput struct {
	View     calendar.View   `json:"view"`
	Title    string          `json:"title"`
	Weekdays [7]string       `json:"weekdays"`
	Cells    []calendar.Cell `json:"cells"`
}

type bookingInput struct {
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests"`
}

func (s *Server) pickerFromRequest(r *http.Request) (string, *picker.Picker, error) {
	id := chi.URLParam(r, "pickerID")

	p, err := s.store.GetPicker(r.Context(), id)
	if err != nil {
		return id, nil, fmt.Errorf("find picker: %w", err)
	}

	return id, p, nil
}

// viewFromQuery reads ?year=&month=. Both absent means no view was asked for.
func viewFromQuery(r *http.Request) (calendar.View, bool, error) {
	yearStr, monthStr := r.URL.Query().Get("year"), r.URL.Query().Get("month")
	if yearStr == "" && monthStr == "" {
		return calendar.View{}, false, nil
	}

	year, yErr := strconv.Atoi(yearStr)
	month, mErr := strconv.Atoi(monthStr)

	v := calendar.View{Year: year, Month: time.Month(month)}
	if yErr != nil || mErr != nil || !v.Valid() {
		return calendar.View{}, false, ErrBadQuery
	}

	return v, true, nil
}

func (s *Server) createPickerHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input createPickerInput
	if err := readJSON(w, r, &input); err != nil || input.RoomID == "" {
		s.respond(writeJSONError(w, http.StatusBadRequest, "provide room_id"))

		return
	}

	room, err := s.gw.Room(ctx, string(input.RoomID))
	if err != nil {
		s.writeError(w, err)

		return
	}

	p := picker.New(*room, picker.WithClock(s.conf.Now))

	// A failed fetch leaves the picker disabled; the client sees it in the
	// snapshot status and may reload.
	if err = p.Load(ctx, s.gw); err != nil {
		s.l.LogErrorf("Could not load availability for new picker: %v", err.Error())
	}

	id, err := s.idGen.GetID(ctx)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if err = s.store.SavePicker(ctx, id, p); err != nil {
		s.writeError(w, err)

		return
	}

	s.respond(jsonResponse(w, http.StatusCreated, pickerOutput{ID: id, Room: p.Room(), Snapshot: p.Snapshot()}))
}

func (s *Server) getPickerHandler(w http.ResponseWriter, r *http.Request) {
	id, p, err := s.pickerFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.respond(jsonResponse(w, http.StatusOK, pickerOutput{ID: id, Room: p.Room(), Snapshot: p.Snapshot()}))
}

func (s *Server) deletePickerHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePicker(r.Context(), chi.URLParam(r, "pickerID")); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) calendarHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := s.pickerFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	v, ok, err := viewFromQuery(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	switch step := r.URL.Query().Get("step"); {
	case ok && step != "":
		s.writeError(w, ErrBadQuery)

		return
	case ok:
		p.SetView(v)
	case step == "next":
		p.NextMonth()
	case step == "prev":
		p.PrevMonth()
	case step != "":
		s.writeError(w, ErrBadQuery)

		return
	}

	view, cells := p.Calendar()

	s.respond(jsonResponse(w, http.StatusOK, calendarOutput{
		View:     view,
		Title:    view.Title(),
		Weekdays: calendar.WeekdayLabels,
		Cells:    cells,
	}))
}

func (s *Server) clickHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := s.pickerFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	var input clickInput
	if err = readJSON(w, r, &input); err != nil {
		s.respond(writeJSONError(w, http.StatusBadRequest, "provide date and optional slot"))

		return
	}

	var accepted bool

	if input.Slot == "" {
		date, err := slot.ParseDate(input.Date)
		if err != nil {
			s.writeError(w, err)

			return
		}

		accepted = p.ClickDate(date)
	} else {
		clicked, err := slot.Parse(input.Date, strings.ToLower(input.Slot))
		if err != nil {
			s.writeError(w, err)

			return
		}

		accepted = p.ClickSlot(clicked)
	}

	s.respond(jsonResponse(w, http.StatusOK, clickOutput{Accepted: accepted, Snapshot: p.Snapshot()}))
}

func (s *Server) clearSelectionHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := s.pickerFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	p.Clear()

	s.respond(jsonResponse(w, http.StatusOK, p.Snapshot()))
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := s.pickerFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if err = p.Load(r.Context(), s.gw); err != nil {
		s.l.LogErrorf("Could not reload availability: %v", err.Error())
	}

	s.respond(jsonResponse(w, http.StatusOK, p.Snapshot()))
}

func sessionFromRequest(r *http.Request) (*booking.BearerSession, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil, ErrNoAuthHeader
	}

	return booking.NewBearerSession(token, r.Header.Get("X-Refresh-Token")), nil
}

func (s *Server) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pickerID, p, err := s.pickerFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		s.writeError(w, booking.ErrIdempotencyKey)

		return
	}

	session, err := sessionFromRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	ctx = booking.NewContextWithIdempotencyKey(ctx, idempotencyKey)
	ctx = booking.NewContextWithSession(ctx, session)

	existing, err := s.store.ReserveConfirmation(ctx, pickerID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if existing != nil {
		s.respond(jsonResponse(w, http.StatusOK, existing))

		return
	}

	saved := false

	defer func() {
		if saved {
			return
		}

		if err := s.store.ReleaseConfirmation(ctx, pickerID); err != nil {
			s.l.LogErrorf("Could not release idempotency key: %v", err.Error())
		}
	}()

	var input bookingInput
	if err = readJSON(w, r, &input); err != nil {
		s.respond(writeJSONError(w, http.StatusBadRequest, "provide guests and optional special_requests"))

		return
	}

	req, err := p.Request(input.Guests, input.SpecialRequests)
	if err != nil {
		s.writeError(w, err)

		return
	}

	room := p.Room()

	confirmation, err := s.bManager.CreateBooking(ctx, &room, req)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if err = s.store.SaveConfirmation(ctx, pickerID, confirmation); err != nil {
		s.l.LogErrorf("Could not remember booking %v: %v", confirmation.ID, err.Error())
	} else {
		saved = true
	}

	p.Clear()

	if err = p.Load(ctx, s.gw); err != nil {
		s.l.LogErrorf("Could not refresh availability after booking %v: %v", confirmation.ID, err.Error())
	}

	s.respond(jsonResponse(w, http.StatusCreated, confirmation))
}
