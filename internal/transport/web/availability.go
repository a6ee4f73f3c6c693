package web

import (
	"net/http"

	"github.com/avstrong/resortslots/internal/calendar"
	"github.com/avstrong/resortslots/internal/summary"
)

func (s *Server) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.conf.Now()

	v, ok, err := viewFromQuery(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if !ok {
		v = calendar.ViewOf(now)
	}

	rooms, err := s.gw.AllAvailability(ctx)
	if err != nil {
		s.writeError(w, err)

		return
	}

	month, err := summary.Build(v, now, rooms)
	if err != nil {
		s.l.LogErrorf("Could not build availability summary: %v", err.Error())
		s.respond(writeJSONError(w, http.StatusBadGateway, "availability data could not be read"))

		return
	}

	s.respond(jsonResponse(w, http.StatusOK, month))
}
