package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/events"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/Eursukkul/restaurant-reservation/internal/notifier"
	amqp "github.com/rabbitmq/amqp091-go"
)

const handleTimeout = 30 * time.Second

type Sender interface {
	Send(to, subject, body string) error
}

type Deduper interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

// NotificationConsumer turns reservation events into customer emails.
// Delivery is at least once; the deduper suppresses repeats of an event id.
type NotificationConsumer struct {
	sender      Sender
	dedup       Deduper
	retry       events.Publisher
	maxAttempts int
	log         *logger.Logger
}

// NewNotificationConsumer builds the consumer. Failed sends are republished
// through retry until maxAttempts is reached. dedup may be nil.
func NewNotificationConsumer(sender Sender, dedup Deduper, retry events.Publisher, maxAttempts int, log *logger.Logger) *NotificationConsumer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotificationConsumer{
		sender:      sender,
		dedup:       dedup,
		retry:       retry,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Start handles deliveries on a goroutine. The returned channel is closed
// once msgs is closed and the last delivery has been handled.
func (nc *NotificationConsumer) Start(msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			nc.handleMessage(msg)
		}
		nc.log.Info("delivery channel closed, stopping consumer")
	}()
	return done
}

func (nc *NotificationConsumer) handleMessage(msg amqp.Delivery) {
	var evt events.ReservationEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		nc.log.Error("failed to unmarshal reservation event", "message_id", msg.MessageId, "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := nc.log.With("event_id", evt.ID, "event", evt.Type, "reservation_id", evt.ReservationID, "attempt", evt.Attempt)

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if nc.dedup != nil {
		seen, err := nc.dedup.Seen(ctx, evt.ID)
		if err != nil {
			log.Warn("dedup lookup failed, sending anyway", "error", err)
		}
		if seen {
			log.Info("duplicate event skipped")
			_ = msg.Ack(false)
			return
		}
	}

	email, err := notifier.Compose(evt)
	if err != nil {
		log.Error("cannot compose notification", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := nc.sender.Send(email.To, email.Subject, email.Body); err != nil {
		nc.retryLater(ctx, log, msg, evt, err)
		return
	}

	if nc.dedup != nil {
		if err := nc.dedup.Mark(ctx, evt.ID); err != nil {
			log.Warn("failed to mark event as sent", "error", err)
		}
	}

	log.Info("notification sent", "to", email.To, "subject", email.Subject)
	_ = msg.Ack(false)
}

// retryLater republishes evt with its attempt counter bumped, or drops it
// once the attempts are used up.
func (nc *NotificationConsumer) retryLater(ctx context.Context, log *logger.Logger, msg amqp.Delivery, evt events.ReservationEvent, sendErr error) {
	evt.Attempt++
	if evt.Attempt >= nc.maxAttempts {
		log.Error("giving up on notification", "attempts", evt.Attempt, "error", sendErr)
		_ = msg.Nack(false, false)
		return
	}

	log.Warn("notification failed, scheduling retry", "error", sendErr)
	if err := nc.retry.Publish(ctx, evt.RoutingKey(), evt); err != nil {
		log.Error("failed to republish notification, requeueing", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
