package services

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/log"
)

// ErrEmptyPatch is returned by Update when the patch changes nothing.
var ErrEmptyPatch = errors.New("update changes nothing")

// EventPublisher announces ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService orchestrates ledger writes, cache invalidation and
// change events.
type TransactionService struct {
	store     ledger.Store
	publisher EventPublisher
	caches    *cache.Manager
	logger    *log.Logger
}

// NewTransactionService wires a service. publisher and caches may be nil.
func NewTransactionService(store ledger.Store, publisher EventPublisher, caches *cache.Manager, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Nop()
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		caches:    caches,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// List returns the transactions matching f in ledger order.
func (s *TransactionService) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := f.Apply(all)
	s.logger.DebugContext(ctx, "Listed transactions",
		log.FieldOperation, log.OpList,
		log.FieldCount, len(out))
	return out, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

// Create validates t as a new entry, stores it and announces it.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.ValidateNew(); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.changed(ctx, amqp.TransactionCreated, created, log.OpCreate)
	return created, nil
}

// Update applies p to the stored transaction after validating the result.
func (s *TransactionService) Update(ctx context.Context, id string, p ledger.Patch) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, ledger.ErrMissingID
	}
	if p.IsEmpty() {
		return core.Transaction{}, ErrEmptyPatch
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := p.Apply(current).ValidateNew(); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.changed(ctx, amqp.TransactionUpdated, updated, log.OpUpdate)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, amqp.TransactionDeleted, core.Transaction{ID: id}, log.OpDelete)
	return nil
}

// Import validates every transaction before writing any of them. Entries
// without an ID get a fresh one. Stores implementing ledger.Importer upsert
// in one batch; others receive individual creates.
func (s *TransactionService) Import(ctx context.Context, txs []core.Transaction) (int, error) {
	for i := range txs {
		if err := txs[i].Validate(); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
		if txs[i].ID == "" {
			txs[i].ID = ledger.NewID()
		}
	}
	if dups := core.DuplicateIDs(txs); len(dups) > 0 {
		return 0, fmt.Errorf("duplicate ids in import: %v", dups)
	}

	n := 0
	if imp, ok := s.store.(ledger.Importer); ok {
		var err error
		if n, err = imp.Import(ctx, txs); err != nil {
			return 0, fmt.Errorf("import transactions: %w", err)
		}
	} else {
		for _, t := range txs {
			if _, err := s.store.Create(ctx, t); err != nil {
				return n, fmt.Errorf("import transaction %s: %w", t.ID, err)
			}
			n++
		}
	}

	s.caches.InvalidateAll()
	for _, t := range txs {
		s.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, t))
	}
	s.logger.InfoContext(ctx, "Imported transactions", log.FieldCount, n)
	return n, nil
}

func (s *TransactionService) changed(ctx context.Context, kind amqp.EventKind, t core.Transaction, op string) {
	s.caches.InvalidateAll()
	s.publish(ctx, amqp.NewTransactionEvent(kind, t))

	fields := log.NewFields().
		WithOperation(op).
		WithTransaction(t.ID, string(t.Type), t.Category, t.Amount.Rupiah)
	s.logger.InfoContext(ctx, "Ledger changed", append(fields.ToSlice(), log.FieldEvent, kind)...)
}

// publish is best-effort: the ledger write already succeeded.
func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldError, err,
			log.FieldEvent, ev.Kind,
			log.FieldTransactionID, ev.ID)
	}
}
