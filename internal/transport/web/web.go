package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/logger"
	"github.com/avstrong/resortslots/internal/picker"
	"github.com/avstrong/resortslots/internal/slot"
)

type roomGateway interface {
	Room(ctx context.Context, roomID string) (*booking.Room, error)
	RoomAvailability(ctx context.Context, roomID string) (*slot.Availability, error)
	AllAvailability(ctx context.Context) ([]booking.RoomAvailability, error)
}

type pickerStore interface {
	SavePicker(ctx context.Context, id string, p *picker.Picker) error
	GetPicker(ctx context.Context, id string) (*picker.Picker, error)
	DeletePicker(ctx context.Context, id string) error
	ReserveConfirmation(ctx context.Context, pickerID string) (*booking.Confirmation, error)
	SaveConfirmation(ctx context.Context, pickerID string, c *booking.Confirmation) error
	ReleaseConfirmation(ctx context.Context, pickerID string) error
}

type idGenerator interface {
	GetID(ctx context.Context) (string, error)
}

type Server struct {
	srv      *http.Server
	router   chi.Router
	l        *logger.Logger
	conf     Conf
	bManager *booking.Manager
	gw       roomGateway
	store    pickerStore
	idGen    idGenerator
}

type Conf struct {
	L                 *logger.Logger
	ServerLogger      *log.Logger
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	RequestTimeout    time.Duration
	LivenessEndpoint  string
	// Now is the resort-local clock every picker reads "today" from.
	Now func() time.Time
}

func New(
	ctx context.Context,
	conf Conf,
	bookingManager *booking.Manager,
	gw roomGateway,
	store pickerStore,
	idGen idGenerator,
) (*Server, error) {
	if conf.Now == nil {
		conf.Now = time.Now
	}

	router := chi.NewRouter()

	//nolint:exhaustruct
	srv := &http.Server{
		Addr:              net.JoinHostPort(conf.Host, conf.Port),
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		ErrorLog:          conf.ServerLogger,
		Handler:           router,
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
	}

	server := &Server{
		srv:      srv,
		router:   router,
		l:        conf.L,
		conf:     conf,
		bManager: bookingManager,
		gw:       gw,
		store:    store,
		idGen:    idGen,
	}

	server.addRoutes(router)

	return server, nil
}

func (s *Server) Srv() *http.Server {
	return s.srv
}

// Handler exposes the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
