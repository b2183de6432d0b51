package kafka

import (
	"context"

	"github.com/turtacn/NMReportChecker/internal/domain/analysis"
	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// EventPublisher sends analysis events to one topic, keyed by analysis id so
// events for the same record stay ordered.
type EventPublisher struct {
	producer *Producer
	topic    string
}

// NewEventPublisher publishes through producer to topic.
func NewEventPublisher(producer *Producer, topic string) *EventPublisher {
	if topic == "" {
		topic = TopicAnalysisCompleted
	}
	return &EventPublisher{producer: producer, topic: topic}
}

// PublishAnalysisCompleted wraps evt in an envelope and writes it.
func (p *EventPublisher) PublishAnalysisCompleted(ctx context.Context, evt *analysis.AnalysisCompletedEvent) error {
	if evt == nil {
		return errors.InvalidParam("event is nil")
	}
	env, err := NewEventEnvelope(evt.EventID(), evt.EventType(), evt.OccurredAt(), evt)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.topic, evt.AggregateID())
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// Topic returns the destination topic.
func (p *EventPublisher) Topic() string { return p.topic }

// Close closes the underlying producer.
func (p *EventPublisher) Close() error { return p.producer.Close() }

//Personal.AI order the ending
