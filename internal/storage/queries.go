package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Transaction is a row of the transactions table.
type Transaction struct {
	ID            string
	Date          string
	Type          string
	Category      string
	Description   string
	Amount        int64
	PaymentMethod string
}

const transactionColumns = `id, date, type, category, description, amount, payment_method`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Date, &t.Type, &t.Category, &t.Description, &t.Amount, &t.PaymentMethod)
	return t, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY rowid`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams Transaction

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ID, arg.Date, arg.Type, arg.Category, arg.Description, arg.Amount, arg.PaymentMethod)
	return scanTransaction(row)
}

const upsertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    date = excluded.date,
    type = excluded.type,
    category = excluded.category,
    description = excluded.description,
    amount = excluded.amount,
    payment_method = excluded.payment_method,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, upsertTransaction,
		arg.ID, arg.Date, arg.Type, arg.Category, arg.Description, arg.Amount, arg.PaymentMethod)
	return err
}

const updateTransaction = `UPDATE transactions SET
    date = COALESCE(?, date),
    type = COALESCE(?, type),
    category = COALESCE(?, category),
    description = COALESCE(?, description),
    amount = COALESCE(?, amount),
    payment_method = COALESCE(?, payment_method),
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + transactionColumns

// UpdateTransactionParams holds optional column values; NULL keeps the stored value.
type UpdateTransactionParams struct {
	Date          sql.NullString
	Type          sql.NullString
	Category      sql.NullString
	Description   sql.NullString
	Amount        sql.NullInt64
	PaymentMethod sql.NullString
	ID            string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.Date, arg.Type, arg.Category, arg.Description, arg.Amount, arg.PaymentMethod, arg.ID)
	return scanTransaction(row)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
