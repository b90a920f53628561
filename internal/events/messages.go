package events

import (
	"encoding/json"
	"time"
)

// Routing keys for the topic exchange.
const (
	KeyExpenseCreated     = "expense.created"
	KeySettlementRecorded = "settlement.recorded"
)

// Event is the lightweight message body published for every ledger event.
// It carries only identifiers; consumers fetch full records themselves.
type Event struct {
	TripID    string    `json:"trip_id"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event for the given trip and entity.
func NewEvent(tripID, entityID string) *Event {
	return &Event{
		TripID:    tripID,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
