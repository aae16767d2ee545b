package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event published by the API.
type EventType string

const (
	EventMemberCreated      EventType = "member.created"
	EventMembershipCreated  EventType = "membership.created"
	EventMembershipExpired  EventType = "membership.expired"
	EventClassCreated       EventType = "class.created"
	EventAttendanceRecorded EventType = "attendance.recorded"
	EventPaymentRecorded    EventType = "payment.recorded"
)

// EventMessage is a lightweight domain event. It carries only ids; consumers
// load the entity from the database.
type EventMessage struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	EntityID  int64     `json:"entity_id"`
	MemberID  int64     `json:"member_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventMessage creates an event with a fresh id and the current time.
func NewEventMessage(eventType EventType, entityID, memberID int64) *EventMessage {
	return &EventMessage{
		ID:        uuid.New(),
		Type:      eventType,
		EntityID:  entityID,
		MemberID:  memberID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
