package ledger

import (
	"context"
)

// Event types published to the outbox after a successful unit of work.
const (
	EventStockMovementRecorded   = "stock.movement.recorded"
	EventStockBelowZero          = "stock.below_zero"
	EventAccountMovementRecorded = "account.movement.recorded"
	EventOrderFinalized          = "order.finalized"
	EventSessionOpened           = "cash.session.opened"
	EventCashMovementRecorded    = "cash.movement.recorded"
	EventSessionClosed           = "cash.session.closed"
	EventSessionDeviation        = "cash.session.deviation"
)

// EventPublisher stages domain events inside the current unit of work.
// Events commit or roll back with the movement they describe; a relay
// delivers them to subscribers afterwards.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NopPublisher discards events. Used by embedded deployments without a
// relay.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	return nil
}
