package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dompet/internal/core"
	"dompet/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ ledger.Store    = (*SQLiteRepository)(nil)
	_ ledger.Importer = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return fromRows(rows)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = ledger.NewID()
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams(toRow(t)))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"transaction_id", row.ID,
		"type", row.Type,
		"category", row.Category,
		"amount", row.Amount)

	return row.toCore()
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, p ledger.Patch) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	row, err := r.queries.UpdateTransaction(ctx, updateParams(id, p))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ledger.ErrMissingID
	}
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Import upserts txs in a single database transaction.
func (r *SQLiteRepository) Import(ctx context.Context, txs []core.Transaction) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	q := r.queries.WithTx(tx)
	for i, t := range txs {
		if t.ID == "" {
			t.ID = ledger.NewID()
		}
		if err := q.UpsertTransaction(ctx, CreateTransactionParams(toRow(t))); err != nil {
			return 0, fmt.Errorf("import entry %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(txs), nil
}

func toRow(t core.Transaction) Transaction {
	return Transaction{
		ID:            t.ID,
		Date:          t.Date.String(),
		Type:          string(t.Type),
		Category:      t.Category,
		Description:   t.Description,
		Amount:        t.Amount.Rupiah,
		PaymentMethod: t.PaymentMethod,
	}
}

func (t Transaction) toCore() (core.Transaction, error) {
	d, err := core.ParseDate(t.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	return core.Transaction{
		ID:            t.ID,
		Date:          d,
		Type:          core.TxType(t.Type),
		Category:      t.Category,
		Description:   t.Description,
		Amount:        core.Money{Rupiah: t.Amount},
		PaymentMethod: t.PaymentMethod,
	}, nil
}

func fromRows(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func updateParams(id string, p ledger.Patch) UpdateTransactionParams {
	arg := UpdateTransactionParams{ID: id}
	if p.Date != nil {
		arg.Date = sql.NullString{String: p.Date.String(), Valid: true}
	}
	if p.Type != nil {
		arg.Type = sql.NullString{String: string(*p.Type), Valid: true}
	}
	if p.Category != nil {
		arg.Category = sql.NullString{String: *p.Category, Valid: true}
	}
	if p.Description != nil {
		arg.Description = sql.NullString{String: *p.Description, Valid: true}
	}
	if p.Amount != nil {
		arg.Amount = sql.NullInt64{Int64: p.Amount.Rupiah, Valid: true}
	}
	if p.PaymentMethod != nil {
		arg.PaymentMethod = sql.NullString{String: *p.PaymentMethod, Valid: true}
	}
	return arg
}
