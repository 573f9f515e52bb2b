package backend

import (
	"context"

	"dompet/internal/ledger"
	"dompet/internal/services"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// Result holds the ledger store and the optional event publisher a backend provides.
type Result struct {
	Store ledger.Store
	// Publisher is nil when no broker is configured.
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Ready pings the store when it is backed by a database. In-memory stores are always ready.
func (r *Result) Ready(ctx context.Context) error {
	if p, ok := r.Store.(ledger.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs Cleanup once it is set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory specific
	SeedFile string

	// Change events, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
