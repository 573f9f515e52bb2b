package memory

import (
	"context"
	"sync"

	"dompet/internal/core"
	ports "dompet/internal/sheets"
)

// Store is an in-process Mirror used in development and tests.
type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ ports.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Upsert(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(t.ID); i >= 0 {
		s.rows[i] = t
		return nil
	}
	s.rows = append(s.rows, t)
	return nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

func (s *Store) Replace(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]core.Transaction(nil), txs...)
	return nil
}

// Rows returns the mirrored rows rendered as sheet cells, header first.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, 0, len(s.rows)+1)
	out = append(out, ports.Header)
	for _, t := range s.rows {
		out = append(out, ports.Row(t))
	}
	return out
}

// Len reports the number of mirrored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Store) index(id string) int {
	for i, t := range s.rows {
		if t.ID == id {
			return i
		}
	}
	return -1
}
