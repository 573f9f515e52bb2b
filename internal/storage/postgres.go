package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

// PostgresRepository stores transactions in Postgres (or Supabase) through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var (
	_ ledger.Store    = (*PostgresRepository)(nil)
	_ ledger.Importer = (*PostgresRepository)(nil)
)

// NewPostgresRepository migrates the schema and opens a connection pool.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const pgColumns = `id, date, type, category, description, amount, payment_method`

func (r *PostgresRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgColumns+` FROM transactions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanPg)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	rows, _ := r.pool.Query(ctx, `SELECT `+pgColumns+` FROM transactions WHERE id = $1`, id)
	t, err := pgx.CollectExactlyOneRow(rows, scanPg)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = ledger.NewID()
	}
	rows, _ := r.pool.Query(ctx,
		`INSERT INTO transactions (`+pgColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+pgColumns,
		pgArgs(t)...)
	created, err := pgx.CollectExactlyOneRow(rows, scanPg)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, p ledger.Patch) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	var (
		date   *time.Time
		typ    *string
		amount *int64
	)
	if p.Date != nil {
		date = &p.Date.Time
	}
	if p.Type != nil {
		s := string(*p.Type)
		typ = &s
	}
	if p.Amount != nil {
		amount = &p.Amount.Rupiah
	}

	rows, _ := r.pool.Query(ctx, `UPDATE transactions SET
    date = COALESCE($2, date),
    type = COALESCE($3, type),
    category = COALESCE($4, category),
    description = COALESCE($5, description),
    amount = COALESCE($6, amount),
    payment_method = COALESCE($7, payment_method),
    updated_at = now()
WHERE id = $1
RETURNING `+pgColumns,
		id, date, typ, p.Category, p.Description, amount, p.PaymentMethod)
	updated, err := pgx.CollectExactlyOneRow(rows, scanPg)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ledger.ErrMissingID
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Import upserts txs in one database transaction using a pipelined batch.
func (r *PostgresRepository) Import(ctx context.Context, txs []core.Transaction) (int, error) {
	batch := &pgx.Batch{}
	for _, t := range txs {
		if t.ID == "" {
			t.ID = ledger.NewID()
		}
		batch.Queue(`INSERT INTO transactions (`+pgColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    date = EXCLUDED.date,
    type = EXCLUDED.type,
    category = EXCLUDED.category,
    description = EXCLUDED.description,
    amount = EXCLUDED.amount,
    payment_method = EXCLUDED.payment_method,
    updated_at = now()`, pgArgs(t)...)
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("import transactions: %w", err)
	}
	return len(txs), nil
}

func pgArgs(t core.Transaction) []any {
	return []any{t.ID, t.Date.Time, string(t.Type), t.Category, t.Description, t.Amount.Rupiah, t.PaymentMethod}
}

func scanPg(row pgx.CollectableRow) (core.Transaction, error) {
	var (
		t    core.Transaction
		date time.Time
		typ  string
	)
	if err := row.Scan(&t.ID, &date, &typ, &t.Category, &t.Description, &t.Amount.Rupiah, &t.PaymentMethod); err != nil {
		return core.Transaction{}, err
	}
	t.Date = core.Date{Time: date}
	t.Type = core.TxType(typ)
	return t, nil
}
