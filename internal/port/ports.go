// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the detection
// service from concrete storage implementations: the engine itself never
// performs I/O, so everything stateful sits behind a port.
package port

import (
	"context"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/domain"
)

// TransactionStore supplies transaction slices to the detection service
// and persists the flag mutations the detectors produce. Implemented by
// the HTTP store adapter (or the in-memory store in dev mode and tests).
type TransactionStore interface {
	// ListUserIDs returns every user with transactions on record.
	ListUserIDs(ctx context.Context) ([]string, error)

	// ListTransactions returns one user's transactions with dates in
	// [from, to], date-ascending.
	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error)

	// SetRecurringFlags persists recurring flag changes: set receives
	// the flag, clear loses it.
	SetRecurringFlags(ctx context.Context, set, clear []string) error

	// SetTransferFlags marks the given transactions as transfers.
	// Transfer flags are additive; there is no clear side.
	SetTransferFlags(ctx context.Context, ids []string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
