// Package ledger defines the persistence ports for transactions. Backends
// live in ledger/memory and internal/storage.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"dompet/internal/core"
)

var (
	ErrNotFound  = errors.New("transaction not found")
	ErrMissingID = errors.New("transaction id is required")
)

type (
	Reader interface {
		// List returns every transaction, in no particular order.
		List(ctx context.Context) ([]core.Transaction, error)
		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	Writer interface {
		// Create stores tx, assigning an ID when tx.ID is empty.
		Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// Update applies p to the stored transaction and returns the result.
		Update(ctx context.Context, id string, p Patch) (core.Transaction, error)
		Delete(ctx context.Context, id string) error
	}

	Store interface {
		Reader
		Writer
	}

	// Importer bulk-loads transactions, replacing entries that share an ID.
	Importer interface {
		Import(ctx context.Context, txs []core.Transaction) (int, error)
	}

	// Pinger is implemented by stores backed by a remote or file database.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Date          *core.Date   `json:"date,omitempty"`
	Type          *core.TxType `json:"type,omitempty"`
	Category      *string      `json:"category,omitempty"`
	Description   *string      `json:"description,omitempty"`
	Amount        *core.Money  `json:"amount,omitempty"`
	PaymentMethod *string      `json:"payment_method,omitempty"`
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply returns t with p's non-nil fields copied over. The ID never changes.
func (p Patch) Apply(t core.Transaction) core.Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	return t
}

// NewID returns a fresh transaction ID.
func NewID() string {
	return uuid.NewString()
}
