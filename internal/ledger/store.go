// Package ledger implements record lookup, reimbursement settlement and
// filtered totals over a positional record store.
package ledger

import (
	"context"
	"errors"

	"github.com/dvloznov/telegrana/internal/domain"
)

// ErrRecordNotFound is returned by a Store for a position it does not hold.
var ErrRecordNotFound = errors.New("record not found")

// Store is the persistent ledger. Rows are returned in store order and row i
// of ReadAll has position i+1.
type Store interface {
	// Append writes a new row and returns its assigned position.
	Append(ctx context.Context, row domain.Row) (int, error)

	// ReadAll returns every row in store order.
	ReadAll(ctx context.Context) ([]domain.Row, error)

	// UpdateField overwrites a single cell of an existing row.
	UpdateField(ctx context.Context, position int, field domain.Field, value string) error

	// RegisterCategory adds a tag to the set for kind. It reports false when
	// the tag already existed.
	RegisterCategory(ctx context.Context, kind domain.CategoryKind, name string) (bool, error)

	// ListCategories returns both category sets in insertion order.
	ListCategories(ctx context.Context) (expense, income []string, err error)
}

// Records converts raw rows into records with their positions.
func Records(rows []domain.Row) []domain.Record {
	out := make([]domain.Record, len(rows))
	for i, row := range rows {
		out[i] = domain.RecordFromRow(row, i+1)
	}
	return out
}
