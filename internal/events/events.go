package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/google/uuid"
)

type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationUpdated   Type = "reservation.updated"
	ReservationCancelled Type = "reservation.cancelled"
)

// ReservationEvent is published after a reservation transition commits. It is
// self-contained so consumers never have to read back from the store.
type ReservationEvent struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	ReservationID   uint      `json:"reservation_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	RestaurantName  string    `json:"restaurant_name"`
	TableNumber     string    `json:"table_number"`
	StartTime       time.Time `json:"reservation_date"`
	EndTime         time.Time `json:"reservation_end_time"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
	Attempt         int       `json:"attempt"`
}

func NewReservationEvent(t Type, reservationID uint, occurredAt time.Time) ReservationEvent {
	return ReservationEvent{
		ID:            uuid.NewString(),
		Type:          t,
		ReservationID: reservationID,
		OccurredAt:    occurredAt,
	}
}

func (e ReservationEvent) RoutingKey() string {
	return string(e.Type)
}

// MessageID identifies the event to brokers.
func (e ReservationEvent) MessageID() string {
	return e.ID
}

// PartitionKey keeps all events of one reservation in order on partitioned transports.
func (e ReservationEvent) PartitionKey() string {
	return "reservation-" + strconv.FormatUint(uint64(e.ReservationID), 10)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Fanout sends each event to Primary and copies it to Mirrors. Only a
// Primary failure reaches the caller. Mirrors are written in the background
// with their own deadline and their failures are logged.
type Fanout struct {
	primary Publisher
	mirrors []Publisher
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

const defaultMirrorTimeout = 10 * time.Second

func NewFanout(primary Publisher, log *logger.Logger, mirrors ...Publisher) *Fanout {
	f := &Fanout{primary: primary, timeout: defaultMirrorTimeout, log: log}
	for _, m := range mirrors {
		if m != nil {
			f.mirrors = append(f.mirrors, m)
		}
	}
	return f
}

func (f *Fanout) Publish(ctx context.Context, routingKey string, payload any) error {
	for _, m := range f.mirrors {
		f.wg.Add(1)
		go f.mirror(context.WithoutCancel(ctx), m, routingKey, payload)
	}
	if f.primary == nil {
		return nil
	}
	return f.primary.Publish(ctx, routingKey, payload)
}

func (f *Fanout) mirror(ctx context.Context, p Publisher, routingKey string, payload any) {
	defer f.wg.Done()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		f.log.Warn("failed to mirror event", "routing_key", routingKey, "error", err)
	}
}

// Wait blocks until every background mirror write has finished.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
