package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types carried by LedgerEvent.Type.
const (
	InstallmentCreated = "installment.created"
	InstallmentUpdated = "installment.updated"
	InstallmentDeleted = "installment.deleted"
	FixedCreated       = "fixed.created"
	FixedUpdated       = "fixed.updated"
	FixedDeleted       = "fixed.deleted"
	MonthSettled       = "month.settled"
)

// LedgerEvent is a lightweight notification of a ledger change. It carries
// ids only; consumers read the current record from the store.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	RecordID  int64     `json:"record_id,omitempty"`
	Month     string    `json:"month,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event about a single installment or fixed expense.
func NewRecordEvent(eventType string, recordID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// NewSettlementEvent creates a month.settled event. count is the number of
// records the settlement advanced.
func NewSettlementEvent(month string, count int) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      MonthSettled,
		Month:     month,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects messages without a type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, errors.New("ledger event without type")
	}
	return &e, nil
}
