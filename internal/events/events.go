// Package events carries domain events from the API to the worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eshop/internal/config"
	"eshop/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	InvoiceCreated     = "invoice.created"
	ChatVisitorMessage = "chat.visitor_message"
)

// Types lists every event type the worker understands.
var Types = []string{OrderCreated, OrderStatusChanged, InvoiceCreated, ChatVisitorMessage}

type Event struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// New builds an event about the entity id.
func New(eventType, id string, data map[string]interface{}) Event {
	return Event{
		Type:      eventType,
		ID:        id,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// String reads a string field from Data, empty when missing.
func (e Event) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	// Enabled reports whether published events reach a consumer.
	Enabled() bool
	Close() error
}

// NewPublisher returns a Kafka publisher when brokers are configured.
func NewPublisher(cfg *config.Config, log *logger.Logger) Publisher {
	if !cfg.KafkaEnabled() {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		logger: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
		Time:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Published event %s for %s", event.Type, event.ID)
	return nil
}

func (p *KafkaPublisher) Enabled() bool { return true }

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Enabled() bool                        { return false }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) Enabled() bool { return true }
func (r *Recorder) Close() error  { return nil }

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
