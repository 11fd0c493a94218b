// Package memstore provides an in-memory transaction store. It backs the
// service in dev mode (no store URL configured) and in tests, with the
// same contract as the HTTP store adapter.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/domain"
)

// Store is a thread-safe in-memory implementation of port.TransactionStore.
type Store struct {
	mu        sync.RWMutex
	byID      map[string]*domain.Transaction
	byUser    map[string][]*domain.Transaction
	userOrder []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:   make(map[string]*domain.Transaction),
		byUser: make(map[string][]*domain.Transaction),
	}
}

// Seed inserts transactions. Records are copied; later flag writes go
// through the store like any other backend.
func (s *Store) Seed(txns ...*domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txns {
		cp := *tx
		if _, seen := s.byUser[cp.UserID]; !seen {
			s.userOrder = append(s.userOrder, cp.UserID)
		}
		s.byID[cp.ID] = &cp
		s.byUser[cp.UserID] = append(s.byUser[cp.UserID], &cp)
	}
}

// Get returns a copy of one stored transaction, for test assertions.
func (s *Store) Get(id string) (domain.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byID[id]
	if !ok {
		return domain.Transaction{}, false
	}
	return *tx, true
}

// ListUserIDs returns every seeded user in insertion order.
func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.userOrder))
	copy(ids, s.userOrder)
	return ids, nil
}

// ListTransactions returns copies of one user's transactions with dates in
// [from, to], date-ascending. Copies keep detector mutations from leaking
// into the store; persistence happens only via the flag setters.
func (s *Store) ListTransactions(_ context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Transaction
	for _, tx := range s.byUser[userID] {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// SetRecurringFlags persists recurring flag changes.
func (s *Store) SetRecurringFlags(_ context.Context, set, clear []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range set {
		if tx, ok := s.byID[id]; ok {
			tx.IsRecurring = true
		}
	}
	for _, id := range clear {
		if tx, ok := s.byID[id]; ok {
			tx.IsRecurring = false
		}
	}
	return nil
}

// SetTransferFlags marks the given transactions as transfers.
func (s *Store) SetTransferFlags(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if tx, ok := s.byID[id]; ok {
			tx.IsTransfer = true
		}
	}
	return nil
}
