package observability

import (
	"lotto/domain/events"
	"lotto/domain/interfaces"
)

// observedPublisher counts committed balance changes before forwarding events
type observedPublisher struct {
	inner   interfaces.EventPublisher
	metrics *MetricsProvider
}

// ObserveEvents wraps publisher so every balance change event is recorded as
// a ledger mutation
func (mp *MetricsProvider) ObserveEvents(publisher interfaces.EventPublisher) interfaces.EventPublisher {
	return &observedPublisher{inner: publisher, metrics: mp}
}

func (p *observedPublisher) Publish(event events.Event) error {
	if change, ok := event.(events.BalanceChangeEvent); ok {
		p.metrics.RecordLedgerMutation(change.TransactionType)
	}
	return p.inner.Publish(event)
}
