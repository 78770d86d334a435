package postgres

import (
	"context"
	"fmt"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
)

// Store implements ledger.Store on the ledger_entries and ledger_categories
// tables created by the postgres migrations.
type Store struct {
	db *DB
}

var _ ledger.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var entryColumns = map[domain.Field]string{
	domain.FieldDate:          "entry_date",
	domain.FieldAmount:        "amount",
	domain.FieldReimbursed:    "reimbursed",
	domain.FieldDescription:   "description",
	domain.FieldCategory:      "tags",
	domain.FieldPaymentMethod: "payment_method",
}

// Append implements ledger.Store. Positions are allocated as MAX+1; a
// concurrent writer taking the same position is retried once.
func (s *Store) Append(ctx context.Context, row domain.Row) (int, error) {
	query := `
		INSERT INTO ledger_entries (position, entry_date, amount, reimbursed, description, tags, payment_method)
		SELECT COALESCE(MAX(position), 0) + 1, $1, $2, $3, $4, $5, $6
		FROM ledger_entries
		RETURNING position
	`
	cells := padRow(row)

	var position int
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.db.QueryRowContext(ctx, query,
			cells[domain.ColDate], cells[domain.ColAmount], cells[domain.ColReimbursed],
			cells[domain.ColDescription], cells[domain.ColCategory], cells[domain.ColPaymentMethod],
		).Scan(&position)
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append entry: %w", err)
	}
	return position, nil
}

// ReadAll implements ledger.Store.
func (s *Store) ReadAll(ctx context.Context) ([]domain.Row, error) {
	query := `
		SELECT position, entry_date, amount, reimbursed, description, tags, payment_method
		FROM ledger_entries
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		var position int
		cells := make(domain.Row, domain.NumColumns)
		err := rows.Scan(
			&position,
			&cells[domain.ColDate], &cells[domain.ColAmount], &cells[domain.ColReimbursed],
			&cells[domain.ColDescription], &cells[domain.ColCategory], &cells[domain.ColPaymentMethod],
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		for len(out) < position-1 {
			out = append(out, make(domain.Row, domain.NumColumns))
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return out, nil
}

// UpdateField implements ledger.Store.
func (s *Store) UpdateField(ctx context.Context, position int, field domain.Field, value string) error {
	column, ok := entryColumns[field]
	if !ok {
		return fmt.Errorf("UpdateField: %w: %q", domain.ErrUnknownField, field)
	}

	query := fmt.Sprintf(`UPDATE ledger_entries SET %s = $1, updated_at = NOW() WHERE position = $2`, column)
	result, err := s.db.ExecContext(ctx, query, value, position)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateField: position %d: %w", position, ledger.ErrRecordNotFound)
	}
	return nil
}

// RegisterCategory implements ledger.Store.
func (s *Store) RegisterCategory(ctx context.Context, kind domain.CategoryKind, name string) (bool, error) {
	query := `
		INSERT INTO ledger_categories (kind, name, normalized)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, normalized) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, string(kind), name, domain.Normalize(name))
	if err != nil {
		return false, fmt.Errorf("failed to register category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// ListCategories implements ledger.Store.
func (s *Store) ListCategories(ctx context.Context) ([]string, []string, error) {
	query := `
		SELECT kind, name
		FROM ledger_categories
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var expense, income []string
	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return nil, nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if domain.CategoryKind(kind) == domain.KindIncome {
			income = append(income, name)
		} else {
			expense = append(expense, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return expense, income, nil
}

func padRow(row domain.Row) domain.Row {
	cells := make(domain.Row, domain.NumColumns)
	copy(cells, row)
	return cells
}
