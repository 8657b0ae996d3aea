package infrastructure

import (
	"lotto/domain/events"
)

// NoopEventPublisher drops every event. Used when NATS is not configured and
// by the migrate subcommands.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish does nothing with the event
func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}
