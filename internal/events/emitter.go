// Package events centralizes chat event construction: every status or
// message record is stamped and appended here, so system- and
// user-originated events share one shape.
package events

import (
	"context"
	"log"
	"time"

	"presence-chat/internal/models"
	"presence-chat/internal/observability"
	"presence-chat/internal/repositories"
)

// TimeLayout is the wall-clock granularity stamped on every event.
const TimeLayout = "15:04:05"

// Status event texts for join and leave.
const (
	JoinText  = "entra na sala..."
	LeaveText = "sai da sala..."
)

// Publisher publishes chat events to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Envelope is the broker representation of an appended event.
type Envelope struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	OccurredAt    string           `json:"occurred_at"`
	Event         models.ChatEvent `json:"event"`
}

// Record is an event to append, before the store assigns identity and time.
type Record struct {
	From string
	To   string
	Text string
	Kind string
}

// Emitter appends normalized chat events to the message store and fans them
// out to the publisher.
type Emitter struct {
	messages   repositories.MessageRepository
	publisher  Publisher
	routingKey string
	clock      func() time.Time
}

// NewEmitter builds an Emitter. The publisher may be a noop.
func NewEmitter(messages repositories.MessageRepository, publisher Publisher, routingKey string) *Emitter {
	return &Emitter{
		messages:   messages,
		publisher:  publisher,
		routingKey: routingKey,
		clock:      time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (e *Emitter) SetClock(clock func() time.Time) {
	e.clock = clock
}

// Append stamps a record with the current wall-clock time, stores it, and
// publishes it. Publish failures are logged and counted but never fail the
// append.
func (e *Emitter) Append(ctx context.Context, from, to, text, kind string) (models.ChatEvent, error) {
	event := models.ChatEvent{
		From: from,
		To:   to,
		Text: text,
		Kind: kind,
		Time: e.clock().Format(TimeLayout),
	}
	stored, err := e.messages.Insert(ctx, event)
	if err != nil {
		return models.ChatEvent{}, err
	}
	observability.IncEventAppended(stored.Kind)
	e.publish(ctx, stored)
	return stored, nil
}

// AppendBatch stores a batch of records as one insert, all stamped with the
// same time. Used by the reaper so a sweep's departure events land together.
func (e *Emitter) AppendBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	now := e.clock().Format(TimeLayout)
	batch := make([]models.ChatEvent, 0, len(records))
	for _, r := range records {
		batch = append(batch, models.ChatEvent{
			From: r.From,
			To:   r.To,
			Text: r.Text,
			Kind: r.Kind,
			Time: now,
		})
	}
	if err := e.messages.InsertMany(ctx, batch); err != nil {
		return err
	}
	for _, event := range batch {
		observability.IncEventAppended(event.Kind)
		e.publish(ctx, event)
	}
	return nil
}

func (e *Emitter) publish(ctx context.Context, event models.ChatEvent) {
	if e.publisher == nil {
		return
	}
	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     "chat_event",
		OccurredAt:    e.clock().UTC().Format(time.RFC3339Nano),
		Event:         event,
	}
	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		observability.IncPublishError()
		log.Printf("event publish failed: %v", err)
	}
}
