package domain

import "time"

// Event types published after a unit of work commits
const (
	EventTradeExecuted      = "trade.executed"
	EventAssetCreated       = "asset.created"
	EventAssetValueAdjusted = "asset.value_adjusted"
	EventOfferCreated       = "offer.created"
	EventOfferCancelled     = "offer.cancelled"
)

// Event is a notification about a committed change
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// EventPublisher fans committed changes out to subscribers.
// Publish must not block the caller.
type EventPublisher interface {
	Publish(event Event)
}

// NopPublisher discards every event
type NopPublisher struct{}

// Publish implements EventPublisher
func (NopPublisher) Publish(Event) {}
