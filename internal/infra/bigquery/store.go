// Package bigquery stores the ledger in two BigQuery tables: ledger_entries
// holds one line per record keyed by position and ledger_categories holds the
// tag sets.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"google.golang.org/api/option"
)

// Store implements ledger.Store on BigQuery. It holds a shared client to
// avoid opening a connection per operation.
type Store struct {
	client  *bigquery.Client
	dataset string
}

var _ ledger.Store = (*Store)(nil)

// NewStore creates a store with its own client.
func NewStore(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return NewStoreWithClient(client, cfg.Dataset), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *bigquery.Client, dataset string) *Store {
	return &Store{client: client, dataset: dataset}
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Append implements ledger.Store.
func (s *Store) Append(ctx context.Context, row domain.Row) (int, error) {
	return AppendEntryWithClient(ctx, s.client, s.dataset, row)
}

// ReadAll implements ledger.Store. Gaps in positions are filled with empty
// rows so that index+1 stays equal to position.
func (s *Store) ReadAll(ctx context.Context) ([]domain.Row, error) {
	entries, err := ListEntriesWithClient(ctx, s.client, s.dataset)
	if err != nil {
		return nil, err
	}
	return rowsByPosition(entries), nil
}

// UpdateField implements ledger.Store.
func (s *Store) UpdateField(ctx context.Context, position int, field domain.Field, value string) error {
	return UpdateEntryFieldWithClient(ctx, s.client, s.dataset, position, field, value)
}

// RegisterCategory implements ledger.Store.
func (s *Store) RegisterCategory(ctx context.Context, kind domain.CategoryKind, name string) (bool, error) {
	rows, err := ListCategoriesWithClient(ctx, s.client, s.dataset)
	if err != nil {
		return false, err
	}
	if hasCategory(rows, kind, name) {
		return false, nil
	}
	if err := InsertCategoryWithClient(ctx, s.client, s.dataset, kind, name); err != nil {
		return false, err
	}
	return true, nil
}

// ListCategories implements ledger.Store.
func (s *Store) ListCategories(ctx context.Context) ([]string, []string, error) {
	rows, err := ListCategoriesWithClient(ctx, s.client, s.dataset)
	if err != nil {
		return nil, nil, err
	}
	expense, income := splitCategories(rows)
	return expense, income, nil
}

func rowsByPosition(entries []EntryRow) []domain.Row {
	var last int64
	for _, e := range entries {
		if e.Position > last {
			last = e.Position
		}
	}
	rows := make([]domain.Row, last)
	for i := range rows {
		rows[i] = make(domain.Row, domain.NumColumns)
	}
	for _, e := range entries {
		if e.Position < 1 {
			continue
		}
		rows[e.Position-1] = e.Row()
	}
	return rows
}
