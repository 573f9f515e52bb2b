package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"dompet/internal/core"
)

// EventKind names a change to the ledger.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
		return true
	default:
		return false
	}
}

// TransactionEvent announces a ledger change. Created and updated events
// carry the stored transaction so consumers need no access to the ledger.
type TransactionEvent struct {
	Kind        EventKind         `json:"kind"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTransactionEvent creates an event for t. The snapshot is dropped for deletions.
func NewTransactionEvent(kind EventKind, t core.Transaction) *TransactionEvent {
	ev := &TransactionEvent{
		Kind:      kind,
		ID:        t.ID,
		Timestamp: time.Now(),
	}
	if kind != TransactionDeleted {
		ev.Transaction = &t
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("event without transaction id")
	}
	if ev.Kind != TransactionDeleted && ev.Transaction == nil {
		return nil, fmt.Errorf("%s event without transaction", ev.Kind)
	}
	return &ev, nil
}
