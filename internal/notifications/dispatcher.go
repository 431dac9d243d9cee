package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"reliefhub/internal/middleware"
	"reliefhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// Fixed outcome copy. Do not edit without coordinating with the SMS
// templates registered with the carrier.
const (
	acceptedBody = "Your disaster relief request has been accepted!"
	rejectedBody = "Your disaster relief request was not accepted."
)

// EventChannel is the Redis pub/sub channel carrying request lifecycle
// events for connected dashboards.
const EventChannel = "events:request"

// RequestEvent is the JSON payload published on every notified transition.
type RequestEvent struct {
	RequestID  uint                 `json:"request_id"`
	UserID     uint                 `json:"user_id"`
	ResourceID uint                 `json:"resource_id"`
	Status     models.RequestStatus `json:"status"`
	Accepted   bool                 `json:"accepted"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// Dispatcher sends outcome SMS messages and publishes lifecycle events.
// Delivery is fire-and-forget: one attempt, failures are logged, nothing is
// retried and nothing propagates back to the caller.
type Dispatcher struct {
	sender      SMSSender
	rdb         *redis.Client
	countryCode string
	logger      *slog.Logger

	// wg tracks in-flight dispatch goroutines for clean shutdown.
	wg sync.WaitGroup
}

func NewDispatcher(sender SMSSender, rdb *redis.Client, countryCode string, logger *slog.Logger) *Dispatcher {
	if countryCode == "" {
		countryCode = "+91"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:      sender,
		rdb:         rdb,
		countryCode: countryCode,
		logger:      logger,
	}
}

// NotifyOutcome schedules one outcome message for the transition. A user
// without a phone number is a silent no-op. The call returns immediately.
func (d *Dispatcher) NotifyOutcome(ctx context.Context, user *models.User, request *models.Request, accepted bool) {
	event := RequestEvent{
		RequestID:  request.ID,
		UserID:     user.ID,
		ResourceID: request.ResourceID,
		Status:     request.Status,
		Accepted:   accepted,
		OccurredAt: time.Now().UTC(),
	}
	d.publishEvent(ctx, event)

	if user.Phone == "" {
		middleware.NotificationAttempts.WithLabelValues("skipped").Inc()
		return
	}

	to := NormalizePhone(user.Phone, d.countryCode)
	body := rejectedBody
	if accepted {
		body = acceptedBody
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Detached from the request context so an already-finished HTTP
		// request cannot cancel the delivery attempt.
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if d.sender == nil {
			middleware.NotificationAttempts.WithLabelValues("skipped").Inc()
			d.logger.WarnContext(sendCtx, "SMS sender not configured, skipping outcome notification",
				slog.Uint64("request_id", uint64(request.ID)))
			return
		}

		if err := d.sender.Send(sendCtx, to, body); err != nil {
			middleware.NotificationAttempts.WithLabelValues("failed").Inc()
			d.logger.ErrorContext(sendCtx, "Outcome notification failed",
				slog.Uint64("request_id", uint64(request.ID)),
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("error", err.Error()))
			return
		}
		middleware.NotificationAttempts.WithLabelValues("sent").Inc()
		d.logger.InfoContext(sendCtx, "Outcome notification sent",
			slog.Uint64("request_id", uint64(request.ID)),
			slog.Bool("accepted", accepted))
	}()
}

func (d *Dispatcher) publishEvent(ctx context.Context, event RequestEvent) {
	if d.rdb == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to encode request event", slog.String("error", err.Error()))
		return
	}
	if err := d.rdb.Publish(ctx, EventChannel, payload).Err(); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish request event", slog.String("error", err.Error()))
	}
}

// Wait blocks until all in-flight dispatches finish. Used on shutdown and
// in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
