package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addRoutes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware())
	r.Use(s.recoverMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Refresh-Token"},
		AllowCredentials: false,
		MaxAge:           300, //nolint:gomnd
	}))

	if s.conf.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.conf.RequestTimeout))
	}

	r.Get(s.conf.LivenessEndpoint, s.livenessHandler)

	r.Route("/api/pickers/v1", func(r chi.Router) {
		r.Post("/", s.createPickerHandler)

		r.Route("/{pickerID}", func(r chi.Router) {
			r.Get("/", s.getPickerHandler)
			r.Delete("/", s.deletePickerHandler)
			r.Get("/calendar", s.calendarHandler)
			r.Post("/clicks", s.clickHandler)
			r.Delete("/selection", s.clearSelectionHandler)
			r.Post("/reload", s.reloadHandler)
			r.Post("/bookings", s.createBookingHandler)
		})
	})

	r.Get("/api/availability/v1", s.availabilityHandler)
}
