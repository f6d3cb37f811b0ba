package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names a bill lifecycle event.
type EventType string

const (
	EventBillSaved   EventType = "bill.saved"
	EventBillDeleted EventType = "bill.deleted"
)

// BillEvent is the message published when a bill is saved or deleted.
// It carries identifiers only; consumers load the bill from storage.
type BillEvent struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	BillID     string    `json:"bill_id"`
	BillNumber string    `json:"bill_number"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBillSavedEvent(userID, billID, billNumber string) *BillEvent {
	return newBillEvent(EventBillSaved, userID, billID, billNumber)
}

func NewBillDeletedEvent(userID, billID, billNumber string) *BillEvent {
	return newBillEvent(EventBillDeleted, userID, billID, billNumber)
}

func newBillEvent(t EventType, userID, billID, billNumber string) *BillEvent {
	return &BillEvent{
		Type:       t,
		UserID:     userID,
		BillID:     billID,
		BillNumber: billNumber,
		Timestamp:  time.Now().UTC(),
	}
}

// Validate checks the event type and the identifiers consumers rely on.
func (e *BillEvent) Validate() error {
	switch e.Type {
	case EventBillSaved, EventBillDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID == "" || e.BillID == "" {
		return errors.New("event missing user_id or bill_id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (e *BillEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BillEventFromJSON decodes and validates a message body.
func BillEventFromJSON(data []byte) (*BillEvent, error) {
	var e BillEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
