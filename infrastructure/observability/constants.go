package observability

// Metric name prefixes
const (
	MetricPrefix = "lotto"
)

// Metric names
const (
	// Play metrics
	PlaysAdmittedTotal = MetricPrefix + ".plays.admitted_total"
	PlaysRejectedTotal = MetricPrefix + ".plays.rejected_total"

	// Settlement metrics
	DrawsSettledTotal       = MetricPrefix + ".draws.settled_total"
	WinnerCreditsTotal      = MetricPrefix + ".draws.winner_credits_total"
	SettlementFailuresTotal = MetricPrefix + ".draws.settlement_failures_total"
	SettlementDuration      = MetricPrefix + ".draws.settlement_duration"

	// Ledger metrics
	LedgerMutationsTotal = MetricPrefix + ".ledger.mutations_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelGameType        = "game_type"
	LabelPlayType        = "play_type"
	LabelReason          = "reason"
	LabelTransactionType = "transaction_type"
	LabelEventType       = "event_type"
	LabelErrorType       = "error_type"
)
