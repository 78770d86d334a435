// Package memstore is an in-memory ledger store. Data is lost on restart
// unless it was seeded from a snapshot.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
)

// Store implements ledger.Store and is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	rows    []domain.Row
	expense []string
	income  []string
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// NewFromRows creates a store holding copies of rows in order.
func NewFromRows(rows []domain.Row) *Store {
	s := New()
	for _, row := range rows {
		s.rows = append(s.rows, copyRow(row))
	}
	return s
}

// Append implements ledger.Store.
func (s *Store) Append(ctx context.Context, row domain.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, copyRow(row))
	return len(s.rows), nil
}

// ReadAll implements ledger.Store.
func (s *Store) ReadAll(ctx context.Context) ([]domain.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Row, len(s.rows))
	for i, row := range s.rows {
		out[i] = copyRow(row)
	}
	return out, nil
}

// UpdateField implements ledger.Store.
func (s *Store) UpdateField(ctx context.Context, position int, field domain.Field, value string) error {
	col := field.Column()
	if col < 0 {
		return fmt.Errorf("UpdateField: %w: %q", domain.ErrUnknownField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if position < 1 || position > len(s.rows) {
		return fmt.Errorf("UpdateField: position %d: %w", position, ledger.ErrRecordNotFound)
	}
	s.rows[position-1][col] = value
	return nil
}

// RegisterCategory implements ledger.Store.
func (s *Store) RegisterCategory(ctx context.Context, kind domain.CategoryKind, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := &s.expense
	if kind == domain.KindIncome {
		set = &s.income
	}
	key := domain.Normalize(name)
	for _, existing := range *set {
		if domain.Normalize(existing) == key {
			return false, nil
		}
	}
	*set = append(*set, name)
	return true, nil
}

// ListCategories implements ledger.Store.
func (s *Store) ListCategories(ctx context.Context) ([]string, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.expense...), append([]string(nil), s.income...), nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func copyRow(row domain.Row) domain.Row {
	out := make(domain.Row, domain.NumColumns)
	copy(out, row)
	return out
}

// Ensure Store implements ledger.Store.
var _ ledger.Store = (*Store)(nil)
