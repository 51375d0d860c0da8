package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/segmentio/kafka-go"
)

// Producer writes reservation events to a topic, keyed so that all events of
// one reservation land on the same partition.
type Producer struct {
	w   *kafka.Writer
	log *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			BatchTimeout: 50 * time.Millisecond,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				log.Error(fmt.Sprintf(msg, args...), "component", "kafka")
			}),
		},
		log: log,
	}, nil
}

func (p *Producer) Publish(ctx context.Context, routingKey string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(routingKey),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(routingKey)},
		},
	}
	if k, ok := payload.(interface{ PartitionKey() string }); ok {
		msg.Key = []byte(k.PartitionKey())
	}
	if m, ok := payload.(interface{ MessageID() string }); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "message_id", Value: []byte(m.MessageID())})
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.w.Close()
}
