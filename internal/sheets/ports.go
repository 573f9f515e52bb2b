package sheets

import (
	"context"

	"dompet/internal/core"
)

// Header is the first row of the mirrored sheet.
var Header = []any{"ID", "Date", "Type", "Category", "Description", "Amount", "Payment Method"}

// Mirror keeps an external copy of the ledger, one row per transaction.
type Mirror interface {
	// Upsert writes t into the row holding its ID, appending a row when none exists.
	Upsert(ctx context.Context, t core.Transaction) error
	// Remove clears the row holding id. Unknown IDs are not an error.
	Remove(ctx context.Context, id string) error
	// Replace rewrites the whole mirror from txs in order.
	Replace(ctx context.Context, txs []core.Transaction) error
}

// Row renders t as sheet cells in Header order.
func Row(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Description,
		t.Amount.Rupiah,
		t.PaymentMethod,
	}
}
