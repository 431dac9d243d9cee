package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reliefhub_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// RequestTransitions counts lifecycle transitions by outcome status.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reliefhub_request_transitions_total",
		Help: "Total number of request status transitions by target status",
	}, []string{"status"})

	// ReservationConflicts counts approvals rejected for insufficient availability.
	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reliefhub_reservation_conflicts_total",
		Help: "Total number of approvals that lost the reservation race",
	})

	// NotificationAttempts counts outcome notification attempts by result.
	NotificationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reliefhub_notification_attempts_total",
		Help: "Total number of outcome notification attempts by result",
	}, []string{"result"})

	// WebSocketDrops counts event messages dropped due to backpressure.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reliefhub_websocket_drops_total",
		Help: "Total number of websocket messages dropped by reason",
	}, []string{"reason"})

	// ActiveWebSockets tracks currently open event feed connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reliefhub_active_websockets",
		Help: "Number of currently open websocket connections",
	})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the Fiber handler that records per-route HTTP metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
