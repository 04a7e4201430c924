package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means all
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	// Subscribe registers handler for eventTypes, or for handler.EventTypes()
	// when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventRecorder stores events in the same transaction as the aggregate
// change that produced them. Delivery happens later, at least once.
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}

// NopEventRecorder drops every event
type NopEventRecorder struct{}

// Record implements EventRecorder
func (NopEventRecorder) Record(context.Context, ...DomainEvent) error { return nil }
