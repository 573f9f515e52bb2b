//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

// Integration tests require a reachable Postgres database
// Run with: DATABASE_URL=postgres://... go test -tags=integration ./internal/storage

func TestIntegration_PostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := NewPostgresRepository(ctx, url)
	require.NoError(t, err)
	defer repo.Close()

	tx := salary()
	tx.ID = "it-" + ledger.NewID()
	created, err := repo.Create(ctx, tx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), created.ID) })

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 1, 1), got.Date)

	desc := "Adjusted"
	updated, err := repo.Update(ctx, created.ID, ledger.Patch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Adjusted", updated.Description)
	assert.Equal(t, int64(8500000), updated.Amount.Rupiah)

	n, err := repo.Import(ctx, []core.Transaction{updated})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
