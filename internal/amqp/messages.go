package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the write that produced an event.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	default:
		return false
	}
}

// ExpenseEvent announces a committed write. It carries only the id; consumers
// read the current record from the store.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(t EventType, id int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event and rejects unknown types and
// non-positive ids.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid expense id %d", msg.ID)
	}
	return &msg, nil
}
