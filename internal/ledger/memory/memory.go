package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

// Store keeps transactions in memory, in insertion order.
type Store struct {
	mu    sync.RWMutex
	items []core.Transaction
}

var (
	_ ledger.Store    = (*Store)(nil)
	_ ledger.Importer = (*Store)(nil)
)

// New returns a store holding a copy of seed. Seed entries without an ID get one.
func New(seed []core.Transaction) *Store {
	items := make([]core.Transaction, len(seed))
	copy(items, seed)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = ledger.NewID()
		}
	}
	return &Store{items: items}
}

// NewFromFile seeds the store from a JSON array of transactions. A missing
// file yields an empty store; malformed content is an error.
func NewFromFile(path string) (*Store, error) {
	seed, err := ReadSeed(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), nil
		}
		return nil, err
	}
	return New(seed), nil
}

// ReadSeed decodes and validates a JSON array of transactions.
func ReadSeed(path string) ([]core.Transaction, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var txs []core.Transaction
	if err := json.Unmarshal(b, &txs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: entry %d (%s): %w", path, i, t.ID, err)
		}
	}
	return txs, nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return s.items[i], nil
}

func (s *Store) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = ledger.NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) Update(_ context.Context, id string, p ledger.Patch) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	s.items[i] = p.Apply(s.items[i])
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if id == "" {
		return ledger.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Import upserts txs by ID, appending new entries in input order.
func (s *Store) Import(_ context.Context, txs []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		if t.ID == "" {
			t.ID = ledger.NewID()
		}
		if i := s.index(t.ID); i >= 0 {
			s.items[i] = t
			continue
		}
		s.items = append(s.items, t)
	}
	return len(txs), nil
}

// index returns the position of the first transaction with id, or -1.
// Callers hold the lock.
func (s *Store) index(id string) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
