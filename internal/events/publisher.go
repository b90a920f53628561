// Package events publishes domain events for downstream consumers
// (notifications, exports). Publishing is best-effort: a failed publish is
// logged, never surfaced to the API caller.
package events

import "context"

// Publisher emits trip ledger events.
type Publisher interface {
	// ExpenseCreated signals that an expense was recorded on a trip.
	ExpenseCreated(ctx context.Context, tripID, expenseID string) error

	// SettlementRecorded signals that a settlement payment was recorded.
	SettlementRecorded(ctx context.Context, tripID, settlementID string) error

	// Close releases the underlying connection.
	Close() error
}

// NopPublisher discards all events. Used when AMQP is not configured.
type NopPublisher struct{}

func (NopPublisher) ExpenseCreated(ctx context.Context, tripID, expenseID string) error {
	return nil
}

func (NopPublisher) SettlementRecorded(ctx context.Context, tripID, settlementID string) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
