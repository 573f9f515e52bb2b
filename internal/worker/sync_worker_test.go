package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger/memory"
	sheetsmem "dompet/internal/sheets/memory"
)

type failingMirror struct{ err error }

func (f failingMirror) Upsert(context.Context, core.Transaction) error { return f.err }
func (f failingMirror) Remove(context.Context, string) error { return f.err }
func (f failingMirror) Replace(context.Context, []core.Transaction) error { return f.err }

func coffee(id string) core.Transaction {
	return core.Transaction{
		ID:            id,
		Date:          core.NewDate(2025, 1, 4),
		Type:          core.Expense,
		Category:      "Food",
		Description:   "Coffee",
		Amount:        core.Money{Rupiah: 45000},
		PaymentMethod: "E-Wallet",
	}
}

func TestSyncWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	mirror := sheetsmem.New()
	w := NewSyncWorker(mirror, nil, nil)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, coffee("a"))))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, coffee("b"))))

	updated := coffee("a")
	updated.Amount = core.Money{Rupiah: 50000}
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionUpdated, updated)))

	rows := mirror.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, int64(50000), rows[1][5])

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, coffee("a"))))
	assert.Equal(t, 1, mirror.Len())
}

func TestSyncWorker_HandleEventErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(failingMirror{err: boom}, nil, nil)

	err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, coffee("a")))
	assert.ErrorIs(t, err, boom)

	err = w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, coffee("a")))
	assert.ErrorIs(t, err, boom)

	err = w.HandleEvent(ctx, &amqp.TransactionEvent{Kind: amqp.TransactionUpdated, ID: "a"})
	assert.Error(t, err)

	err = w.HandleEvent(ctx, &amqp.TransactionEvent{Kind: "transaction.archived", ID: "a"})
	assert.Error(t, err)
}

func TestSyncWorker_Resync(t *testing.T) {
	ctx := context.Background()
	store := memory.New([]core.Transaction{coffee("a"), coffee("b")})
	mirror := sheetsmem.New()
	_ = mirror.Upsert(ctx, coffee("stale"))

	w := NewSyncWorker(mirror, store, nil)
	require.NoError(t, w.Resync(ctx))

	rows := mirror.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[1][0])
	assert.Equal(t, "b", rows[2][0])
}

func TestSyncWorker_ResyncWithoutLedger(t *testing.T) {
	w := NewSyncWorker(sheetsmem.New(), nil, nil)
	assert.Error(t, w.Resync(context.Background()))
}

func TestSyncWorker_RunPeriodicResync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.New([]core.Transaction{coffee("a")})
	mirror := sheetsmem.New()
	w := NewSyncWorker(mirror, store, nil)

	done := make(chan struct{})
	go func() {
		w.RunPeriodicResync(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return mirror.Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodicResync did not stop after cancel")
	}
}
