package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/events"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type ackRecord struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *ackRecord) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *ackRecord) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *ackRecord) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type mockSender struct {
	sent []string
	err  error
}

func (m *mockSender) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

type memoryDeduper struct {
	seen    map[string]bool
	seenErr error
}

func (d *memoryDeduper) Seen(ctx context.Context, id string) (bool, error) {
	if d.seenErr != nil {
		return false, d.seenErr
	}
	return d.seen[id], nil
}

func (d *memoryDeduper) Mark(ctx context.Context, id string) error {
	d.seen[id] = true
	return nil
}

type mockPublisher struct {
	published []events.ReservationEvent
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, payload.(events.ReservationEvent))
	return nil
}

// --- Helpers ---

func delivery(t *testing.T, evt events.ReservationEvent) (amqp.Delivery, *ackRecord) {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	ack := &ackRecord{}
	return amqp.Delivery{Acknowledger: ack, Body: body, MessageId: evt.ID}, ack
}

func createdEvent() events.ReservationEvent {
	evt := events.NewReservationEvent(events.ReservationCreated, 42, time.Now())
	evt.CustomerName = "Nino"
	evt.CustomerEmail = "nino@example.com"
	evt.RestaurantName = "Trattoria Roma"
	evt.TableNumber = "T5"
	evt.StartTime = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	evt.EndTime = evt.StartTime.Add(2 * time.Hour)
	return evt
}

type harness struct {
	consumer  *NotificationConsumer
	sender    *mockSender
	dedup     *memoryDeduper
	publisher *mockPublisher
}

func newHarness(maxAttempts int) *harness {
	h := &harness{
		sender:    &mockSender{},
		dedup:     &memoryDeduper{seen: map[string]bool{}},
		publisher: &mockPublisher{},
	}
	h.consumer = NewNotificationConsumer(h.sender, h.dedup, h.publisher, maxAttempts, logger.Discard())
	return h
}

// --- Tests ---

func TestHandleMessage_Sends(t *testing.T) {
	h := newHarness(3)
	evt := createdEvent()
	msg, ack := delivery(t, evt)

	h.consumer.handleMessage(msg)

	assert.True(t, ack.acked)
	assert.Equal(t, []string{"nino@example.com|Reservation Confirmation"}, h.sender.sent)
	assert.True(t, h.dedup.seen[evt.ID])
}

func TestHandleMessage_DuplicateSkipped(t *testing.T) {
	h := newHarness(3)
	evt := createdEvent()
	h.dedup.seen[evt.ID] = true
	msg, ack := delivery(t, evt)

	h.consumer.handleMessage(msg)

	assert.True(t, ack.acked)
	assert.Empty(t, h.sender.sent)
}

func TestHandleMessage_DedupDownStillSends(t *testing.T) {
	h := newHarness(3)
	h.dedup.seenErr = errors.New("redis: connection refused")
	msg, ack := delivery(t, createdEvent())

	h.consumer.handleMessage(msg)

	assert.True(t, ack.acked)
	assert.Len(t, h.sender.sent, 1)
}

func TestHandleMessage_BadPayload(t *testing.T) {
	h := newHarness(3)
	ack := &ackRecord{}

	h.consumer.handleMessage(amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestHandleMessage_NoRecipient(t *testing.T) {
	h := newHarness(3)
	evt := createdEvent()
	evt.CustomerEmail = ""
	msg, ack := delivery(t, evt)

	h.consumer.handleMessage(msg)

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestHandleMessage_SendFailureRetries(t *testing.T) {
	h := newHarness(3)
	h.sender.err = errors.New("421 service not available")
	evt := createdEvent()
	msg, ack := delivery(t, evt)

	h.consumer.handleMessage(msg)

	assert.True(t, ack.acked)
	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, 1, h.publisher.published[0].Attempt)
	assert.Equal(t, evt.ID, h.publisher.published[0].ID)
	assert.False(t, h.dedup.seen[evt.ID])
}

func TestHandleMessage_GivesUpAfterMaxAttempts(t *testing.T) {
	h := newHarness(3)
	h.sender.err = errors.New("421 service not available")
	evt := createdEvent()
	evt.Attempt = 2
	msg, ack := delivery(t, evt)

	h.consumer.handleMessage(msg)

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Empty(t, h.publisher.published)
}

func TestHandleMessage_RepublishFailureRequeues(t *testing.T) {
	h := newHarness(3)
	h.sender.err = errors.New("421 service not available")
	h.publisher.err = errors.New("channel closed")
	msg, ack := delivery(t, createdEvent())

	h.consumer.handleMessage(msg)

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestStart_StopsWhenChannelCloses(t *testing.T) {
	h := newHarness(3)
	msgs := make(chan amqp.Delivery, 1)
	msg, ack := delivery(t, createdEvent())
	msgs <- msg
	close(msgs)

	done := h.consumer.Start(msgs)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.True(t, ack.acked)
}
