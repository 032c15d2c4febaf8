package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventRecordCreated   = "record.created"
	EventPropertyDeleted = "property.deleted"
	EventInvoiceCreated  = "invoice.created"
	EventInvoicePaid     = "invoice.paid"
)

// EventMessage is the lightweight notification published on ledger mutations.
// Consumers fetch the full record from the API if they need it.
type EventMessage struct {
	Event      string    `json:"event"`
	EntityID   string    `json:"entityId"`
	PropertyID string    `json:"propertyId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewEventMessage(event, entityID, propertyID string) *EventMessage {
	return &EventMessage{
		Event:      event,
		EntityID:   entityID,
		PropertyID: propertyID,
		Timestamp:  time.Now(),
	}
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
