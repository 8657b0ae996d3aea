package infrastructure

import (
	"fmt"

	"lotto/domain/events"
)

const (
	SubjectBalanceChanged  = "lotto.users.balance_changed"
	SubjectTicketPurchased = "lotto.tickets.purchased"
	SubjectResultPublished = "lotto.results.published"
	SubjectDrawSettled     = "lotto.draws.settled"
)

// EventSubjectMapper maps domain events to NATS subjects and back
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.MapEventTypeToSubject(event.Type())
}

// MapEventTypeToSubject converts an event type to its NATS subject
func (m *EventSubjectMapper) MapEventTypeToSubject(eventType events.EventType) string {
	switch eventType {
	case events.EventTypeBalanceChange:
		return SubjectBalanceChanged
	case events.EventTypeTicketPurchased:
		return SubjectTicketPurchased
	case events.EventTypeResultPublished:
		return SubjectResultPublished
	case events.EventTypeDrawSettled:
		return SubjectDrawSettled
	default:
		return fmt.Sprintf("lotto.unknown.%s", eventType)
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectBalanceChanged:
		return events.EventTypeBalanceChange
	case SubjectTicketPurchased:
		return events.EventTypeTicketPurchased
	case SubjectResultPublished:
		return events.EventTypeResultPublished
	case SubjectDrawSettled:
		return events.EventTypeDrawSettled
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns every subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectBalanceChanged,
		SubjectTicketPurchased,
		SubjectResultPublished,
		SubjectDrawSettled,
	}
}
