package worker

import (
	"context"
	"fmt"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/log"
	"dompet/internal/sheets"
)

// SyncWorker mirrors ledger changes into a spreadsheet.
type SyncWorker struct {
	mirror sheets.Mirror
	ledger ledger.Reader
	logger *log.Logger
}

// NewSyncWorker creates a worker. reader may be nil when the worker has no
// access to the ledger; Resync is then unavailable.
func NewSyncWorker(mirror sheets.Mirror, reader ledger.Reader, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &SyncWorker{
		mirror: mirror,
		ledger: reader,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies one transaction event to the mirror. It satisfies amqp.Handler.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEvent, ev.Kind,
		log.FieldTransactionID, ev.ID)

	switch ev.Kind {
	case amqp.TransactionCreated, amqp.TransactionUpdated:
		if ev.Transaction == nil {
			return fmt.Errorf("%s event without transaction", ev.Kind)
		}
		if err := w.mirror.Upsert(ctx, *ev.Transaction); err != nil {
			return fmt.Errorf("mirror transaction %s: %w", ev.ID, err)
		}
	case amqp.TransactionDeleted:
		if err := w.mirror.Remove(ctx, ev.ID); err != nil {
			return fmt.Errorf("remove transaction %s: %w", ev.ID, err)
		}
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	w.logger.InfoContext(ctx, "Mirrored transaction event",
		log.FieldOperation, log.OpMirror,
		log.FieldEvent, ev.Kind,
		log.FieldTransactionID, ev.ID,
		log.FieldSuccess, true)
	return nil
}

// Resync rewrites the mirror from the full ledger. It repairs drift left by
// lost messages.
func (w *SyncWorker) Resync(ctx context.Context) error {
	if w.ledger == nil {
		return fmt.Errorf("resync requires ledger access")
	}
	txs, err := w.ledger.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if dups := core.DuplicateIDs(txs); len(dups) > 0 {
		w.logger.WarnContext(ctx, "Ledger contains duplicate ids", "ids", dups)
	}
	if err := w.mirror.Replace(ctx, txs); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Resynced mirror", log.FieldCount, len(txs))
	return nil
}

// RunPeriodicResync calls Resync every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (w *SyncWorker) RunPeriodicResync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Started periodic resync", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Stopping periodic resync")
			return
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err)
			}
		}
	}
}
