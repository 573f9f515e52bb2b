package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/ledger/memory"
)

// countingReader counts List calls and can block them until released.
type countingReader struct {
	*memory.Store
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (r *countingReader) List(ctx context.Context) ([]core.Transaction, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.Store.List(ctx)
}

func januaryLedger() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Date: core.NewDate(2025, 1, 1), Type: core.Income, Category: "Salary", Amount: core.Money{Rupiah: 8500000}, PaymentMethod: "Bank Transfer"},
		{ID: "2", Date: core.NewDate(2025, 1, 2), Type: core.Expense, Category: "Food", Amount: core.Money{Rupiah: 325000}, PaymentMethod: "Debit Card"},
		{ID: "3", Date: core.NewDate(2024, 12, 20), Type: core.Expense, Category: "Bills", Amount: core.Money{Rupiah: 400000}, PaymentMethod: "Bank Transfer"},
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
}

func TestDashboardService_Dashboard(t *testing.T) {
	reader := &countingReader{Store: memory.New(januaryLedger())}
	svc := NewDashboardService(reader, nil, WithClock(fixedClock))

	d, err := svc.Dashboard(context.Background(), core.Monthly)
	require.NoError(t, err)

	assert.Equal(t, int64(8500000), d.Totals.Income.Rupiah)
	assert.Equal(t, int64(325000), d.Totals.Expense.Rupiah)
	assert.Equal(t, int64(8175000), d.Totals.Balance)
	assert.Equal(t, int64(400000), d.PreviousTotals.Expense.Rupiah)
}

func TestDashboardService_UsesLocation(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 2025-01-31 20:00 UTC is already February 1st in Jakarta.
	clock := func() time.Time { return time.Date(2025, 1, 31, 20, 0, 0, 0, time.UTC) }
	svc := NewDashboardService(memory.New(januaryLedger()), nil, WithClock(clock), WithLocation(jakarta))

	assert.Equal(t, time.February, svc.Now().Month())
	d, err := svc.Dashboard(context.Background(), core.Monthly)
	require.NoError(t, err)
	assert.True(t, d.Totals.Income.IsZero())
	assert.Equal(t, int64(325000), d.PreviousTotals.Expense.Rupiah)
}

func TestDashboardService_CachesCollection(t *testing.T) {
	store, err := cache.NewStore[[]core.Transaction](10, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	reader := &countingReader{Store: memory.New(januaryLedger())}
	svc := NewDashboardService(reader, nil, WithClock(fixedClock), WithCache(store))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Dashboard(ctx, core.Monthly)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), reader.calls.Load())

	store.Clear()
	_, err = svc.Summarize(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestDashboardService_CoalescesConcurrentLoads(t *testing.T) {
	reader := &countingReader{Store: memory.New(januaryLedger()), release: make(chan struct{})}
	svc := NewDashboardService(reader, nil, WithClock(fixedClock))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transactions(context.Background())
			assert.NoError(t, err)
		}()
	}

	assert.Eventually(t, func() bool { return reader.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(reader.release)
	wg.Wait()

	assert.Less(t, reader.calls.Load(), int32(5))
}

func TestDashboardService_Summarize(t *testing.T) {
	svc := NewDashboardService(memory.New(januaryLedger()), nil, WithClock(fixedClock))

	from := core.NewDate(2025, 1, 1)
	to := core.NewDate(2025, 1, 31)
	sum, err := svc.Summarize(context.Background(), core.Filter{From: &from, To: &to, Type: core.Expense})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, int64(325000), sum.Expense.Rupiah)
	assert.True(t, sum.Income.IsZero())
}

func TestDashboardService_LoadError(t *testing.T) {
	reader := &countingReader{Store: memory.New(nil), err: errors.New("disk gone")}
	svc := NewDashboardService(reader, nil)

	_, err := svc.Dashboard(context.Background(), core.Monthly)
	assert.Error(t, err)
}

// snapshotThenBlockReader takes its List snapshot, signals, and waits to be
// released before returning it.
type snapshotThenBlockReader struct {
	*memory.Store
	calls   atomic.Int32
	taken   chan struct{}
	release chan struct{}
}

func (r *snapshotThenBlockReader) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := r.Store.List(ctx)
	if r.calls.Add(1) == 1 {
		close(r.taken)
		<-r.release
	}
	return txs, err
}

func TestDashboardService_WriteDuringLoadIsNotCachedStale(t *testing.T) {
	store, err := cache.NewStore[[]core.Transaction](10, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	caches := cache.NewManager()
	caches.Register(store)

	ledger := memory.New(januaryLedger())
	reader := &snapshotThenBlockReader{Store: ledger, taken: make(chan struct{}), release: make(chan struct{})}
	dash := NewDashboardService(reader, nil, WithClock(fixedClock), WithCache(store), WithInvalidation(caches))
	txs := NewTransactionService(ledger, nil, caches, nil)

	ctx := context.Background()
	loaded := make(chan []core.Transaction, 1)
	go func() {
		got, err := dash.Transactions(ctx)
		assert.NoError(t, err)
		loaded <- got
	}()

	<-reader.taken
	_, err = txs.Create(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 10), Type: core.Income, Category: "Freelance",
		Amount: core.Money{Rupiah: 1500000}, PaymentMethod: "Bank Transfer",
	})
	require.NoError(t, err)
	close(reader.release)
	assert.Len(t, <-loaded, 3, "the overlapping load returns its own snapshot")

	got, err := dash.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, int32(2), reader.calls.Load())

	// the fresh load is cached
	_, err = dash.Transactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), reader.calls.Load())
}
