package stats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/accendhq/accend/internal/core/events"
	"github.com/accendhq/accend/internal/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrForbidden = errors.New("forbidden")

// RequestStore is the slice of the request repository the summary needs.
// The grant figures are repository counts so they stay exact however
// large the ledger grows.
type RequestStore interface {
	CountByStatus(status string) (int64, error)
	CountActiveGrants(now time.Time) (int64, error)
	CountExpiringGrants(now time.Time) (int64, error)
}

// BookingStore counts live bookings at a reference instant.
type BookingStore interface {
	CountLive(now time.Time) (int64, error)
}

// Service aggregates portal activity for the admin dashboard and feeds
// the Prometheus registry from domain events.
type Service struct {
	requests RequestStore
	bookings BookingStore
	logger   *slog.Logger

	requestsCreated  prometheus.Counter
	requestsDecided  *prometheus.CounterVec
	bookingsCreated  *prometheus.CounterVec
	bookingsExtended prometheus.Counter
	bookingsReleased prometheus.Counter
	extensionMinutes prometheus.Counter
}

func NewService(requests RequestStore, bookings BookingStore, reg prometheus.Registerer, logger *slog.Logger) *Service {
	factory := promauto.With(reg)
	return &Service{
		requests: requests,
		bookings: bookings,
		logger:   logger,
		requestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "accend_requests_created_total",
			Help: "Access requests filed.",
		}),
		requestsDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accend_requests_decided_total",
			Help: "Access request decisions, by outcome.",
		}, []string{"status"}),
		bookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accend_bookings_created_total",
			Help: "Environment bookings created, by environment.",
		}, []string{"env_id"}),
		bookingsExtended: factory.NewCounter(prometheus.CounterOpts{
			Name: "accend_bookings_extended_total",
			Help: "Booking extensions applied.",
		}),
		bookingsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "accend_bookings_released_total",
			Help: "Bookings released before their scheduled end.",
		}),
		extensionMinutes: factory.NewCounter(prometheus.CounterOpts{
			Name: "accend_booking_extension_minutes_total",
			Help: "Total minutes added across all booking extensions.",
		}),
	}
}

// RegisterEventHandlers wires the metric counters to the domain event
// bus.
func (s *Service) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.RequestCreated, func(ctx context.Context, e events.Event) error {
		s.requestsCreated.Inc()
		return nil
	})
	bus.Subscribe(events.RequestDecided, func(ctx context.Context, e events.Event) error {
		s.requestsDecided.WithLabelValues(payloadString(e, "status")).Inc()
		return nil
	})
	bus.Subscribe(events.BookingCreated, func(ctx context.Context, e events.Event) error {
		s.bookingsCreated.WithLabelValues(payloadString(e, "env_id")).Inc()
		return nil
	})
	bus.Subscribe(events.BookingExtended, func(ctx context.Context, e events.Event) error {
		s.bookingsExtended.Inc()
		if m, ok := payloadInt(e, "add_minutes"); ok {
			s.extensionMinutes.Add(float64(m))
		}
		return nil
	})
	bus.Subscribe(events.BookingReleased, func(ctx context.Context, e events.Event) error {
		s.bookingsReleased.Inc()
		return nil
	})
}

func payloadString(e events.Event, key string) string {
	data, ok := e.Payload().(map[string]interface{})
	if !ok {
		return "unknown"
	}
	v, ok := data[key].(string)
	if !ok {
		return "unknown"
	}
	return v
}

func payloadInt(e events.Event, key string) (int, bool) {
	data, ok := e.Payload().(map[string]interface{})
	if !ok {
		return 0, false
	}
	v, ok := data[key].(int)
	if !ok {
		return 0, false
	}
	return v, true
}

// Summary computes the dashboard rollup at the reference instant. Admin
// only.
func (s *Service) Summary(isAdmin bool, now time.Time) (*Summary, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}

	pending, err := s.requests.CountByStatus(request.StatusPending)
	if err != nil {
		s.logger.Error("failed to count pending requests", "error", err)
		return nil, err
	}

	liveBookings, err := s.bookings.CountLive(now)
	if err != nil {
		s.logger.Error("failed to count live bookings", "error", err)
		return nil, err
	}

	activeGrants, err := s.requests.CountActiveGrants(now)
	if err != nil {
		s.logger.Error("failed to count active grants", "error", err)
		return nil, err
	}

	expiringSoon, err := s.requests.CountExpiringGrants(now)
	if err != nil {
		s.logger.Error("failed to count expiring grants", "error", err)
		return nil, err
	}

	return &Summary{
		PendingRequests: pending,
		ActiveGrants:    activeGrants,
		ExpiringSoon:    expiringSoon,
		LiveBookings:    liveBookings,
		GeneratedAt:     now,
	}, nil
}
