package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotExpense is returned when a reimbursement targets an income record.
var ErrNotExpense = errors.New("record is not an expense")

// Updates holds the optional field changes of a past edit.
type Updates struct {
	Amount        *decimal.Decimal
	Description   *string
	Category      *string
	PaymentMethod *string
}

// Empty reports whether no field is set.
func (u Updates) Empty() bool {
	return u.Amount == nil && u.Description == nil && u.Category == nil && u.PaymentMethod == nil
}

// Service runs ledger operations against a Store and keeps the category
// catalog in step with it.
type Service struct {
	store   Store
	catalog *domain.Catalog
	matcher *Matcher
	now     func() time.Time
}

// NewService creates a service. Dates are stamped in loc.
func NewService(store Store, catalog *domain.Catalog, loc *time.Location) *Service {
	m := NewMatcher(loc)
	return &Service{
		store:   store,
		catalog: catalog,
		matcher: m,
		now:     m.Now,
	}
}

// SetClock replaces the time source used for stamps and relative dates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.matcher.Now = now
}

// Catalog returns the live catalog.
func (s *Service) Catalog() *domain.Catalog { return s.catalog }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// LoadCatalog replaces the catalog's category sets with the store's. An empty
// store is seeded with the catalog's current sets.
func (s *Service) LoadCatalog(ctx context.Context) error {
	expense, income, err := s.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("LoadCatalog: list categories: %w", err)
	}

	if len(expense) == 0 && len(income) == 0 {
		for _, kind := range []domain.CategoryKind{domain.KindExpense, domain.KindIncome} {
			for _, name := range s.catalog.Tags(kind) {
				if _, err := s.store.RegisterCategory(ctx, kind, name); err != nil {
					return fmt.Errorf("LoadCatalog: seed %s category %q: %w", kind, name, err)
				}
			}
		}
		return nil
	}

	s.catalog.Expense = nil
	s.catalog.Income = nil
	for _, name := range expense {
		s.catalog.Add(domain.KindExpense, name)
	}
	for _, name := range income {
		s.catalog.Add(domain.KindIncome, name)
	}
	return nil
}

// Records reads the whole ledger.
func (s *Service) Records(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Records: read all: %w", err)
	}
	return Records(rows), nil
}

// Record returns the record at position.
func (s *Service) Record(ctx context.Context, position int) (domain.Record, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	if position < 1 || position > len(records) {
		return domain.Record{}, fmt.Errorf("Record: position %d: %w", position, ErrRecordNotFound)
	}
	return records[position-1], nil
}

// RegisterCategory adds a tag to the store and the catalog.
func (s *Service) RegisterCategory(ctx context.Context, kind domain.CategoryKind, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("RegisterCategory: empty name")
	}
	created, err := s.store.RegisterCategory(ctx, kind, name)
	if err != nil {
		return false, fmt.Errorf("RegisterCategory: %w", err)
	}
	s.catalog.Add(kind, name)
	return created, nil
}

// CreateTransaction appends a complete draft. A draft without a date is
// stamped with the current date and time.
func (s *Service) CreateTransaction(ctx context.Context, d domain.Draft) (domain.Record, error) {
	if d.Amount.IsZero() {
		return domain.Record{}, fmt.Errorf("CreateTransaction: %w: zero", domain.ErrInvalidAmount)
	}

	date := s.now().Format(domain.TimestampLayout)
	if strings.TrimSpace(d.Date) != "" {
		day, err := domain.ParseDay(d.Date)
		if err != nil {
			return domain.Record{}, fmt.Errorf("CreateTransaction: %w", err)
		}
		date = domain.FormatDay(day)
	}

	rec := domain.Record{
		Date:          date,
		Amount:        d.Amount,
		Reimbursed:    decimal.Zero,
		Description:   strings.TrimSpace(d.Description),
		Category:      strings.TrimSpace(d.Category),
		PaymentMethod: s.catalog.PaymentMethod(d.PaymentMethod),
	}

	pos, err := s.store.Append(ctx, rec.Row())
	if err != nil {
		return domain.Record{}, fmt.Errorf("CreateTransaction: append: %w", err)
	}
	rec.Position = pos
	return rec, nil
}

// FindForReimbursement reads the ledger and returns unsettled expense
// candidates.
func (s *Service) FindForReimbursement(ctx context.Context, date, description string) ([]domain.Record, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindForReimbursement(records, date, description), nil
}

// FindByCriteria reads the ledger and returns candidates of any kind.
func (s *Service) FindByCriteria(ctx context.Context, c Criteria) ([]domain.Record, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindByCriteria(records, c), nil
}

// ProcessReimbursement settles received against rec. Overpayment caps the
// record at its full amount and appends the excess as income tagged
// SurplusCategory, registering that tag when missing.
func (s *Service) ProcessReimbursement(ctx context.Context, rec domain.Record, received decimal.Decimal) (Settlement, error) {
	if !received.IsPositive() {
		return Settlement{}, fmt.Errorf("ProcessReimbursement: %w: %s", domain.ErrInvalidAmount, received)
	}
	if rec.IsIncome() {
		return Settlement{}, fmt.Errorf("ProcessReimbursement: position %d: %w", rec.Position, ErrNotExpense)
	}

	plan := PlanReimbursement(rec, received, s.now().Format(domain.TimestampLayout))

	if plan.IsSurplus && !s.catalog.Has(domain.KindIncome, SurplusCategory) {
		if _, err := s.RegisterCategory(ctx, domain.KindIncome, SurplusCategory); err != nil {
			return Settlement{}, fmt.Errorf("ProcessReimbursement: %w", err)
		}
	}

	if err := s.store.UpdateField(ctx, rec.Position, domain.FieldReimbursed, domain.FormatAmount(plan.Capped)); err != nil {
		return Settlement{}, fmt.Errorf("ProcessReimbursement: update reimbursed: %w", err)
	}

	if plan.IsSurplus {
		pos, err := s.store.Append(ctx, plan.SurplusRecord.Row())
		if err != nil {
			err = fmt.Errorf("ProcessReimbursement: append surplus: %w", err)
			if rerr := s.restore(ctx, rec, []domain.Field{domain.FieldReimbursed}); rerr != nil {
				return Settlement{}, errors.Join(err, fmt.Errorf("ProcessReimbursement: %w", rerr))
			}
			return Settlement{}, err
		}
		plan.SurplusPosition = pos
		plan.SurplusRecord.Position = pos
	}

	return plan, nil
}

// Totals aggregates the ledger.
func (s *Service) Totals(ctx context.Context, q Query) (Totals, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return Totals{}, err
	}
	return Totalize(records, q), nil
}

// SignedAmount gives v the sign of rec: expenses stay negative and income
// stays positive whatever sign v carries.
func SignedAmount(rec domain.Record, v decimal.Decimal) decimal.Decimal {
	if rec.IsIncome() {
		return v.Abs()
	}
	return v.Abs().Neg()
}

// ApplyUpdates validates every requested change before writing any of them.
// Unknown categories are registered in the set matching the record's sign.
func (s *Service) ApplyUpdates(ctx context.Context, rec domain.Record, u Updates) (domain.Record, error) {
	type write struct {
		field domain.Field
		value string
	}
	var writes []write
	updated := rec

	if u.Amount != nil {
		if u.Amount.IsZero() {
			return rec, fmt.Errorf("ApplyUpdates: %w: zero", domain.ErrInvalidAmount)
		}
		updated.Amount = SignedAmount(rec, *u.Amount)
		writes = append(writes, write{domain.FieldAmount, domain.FormatAmount(updated.Amount)})
	}
	if u.Description != nil {
		updated.Description = strings.TrimSpace(*u.Description)
		writes = append(writes, write{domain.FieldDescription, updated.Description})
	}
	var newCategory string
	if u.Category != nil {
		name := strings.TrimSpace(*u.Category)
		if known, ok := s.catalog.Lookup(name); ok {
			name = known
		} else {
			name = domain.Title(name)
			newCategory = name
		}
		updated.Category = name
		writes = append(writes, write{domain.FieldCategory, name})
	}
	if u.PaymentMethod != nil {
		updated.PaymentMethod = s.catalog.PaymentMethod(*u.PaymentMethod)
		writes = append(writes, write{domain.FieldPaymentMethod, updated.PaymentMethod})
	}

	if newCategory != "" {
		kind := domain.KindExpense
		if rec.IsIncome() {
			kind = domain.KindIncome
		}
		if _, err := s.RegisterCategory(ctx, kind, newCategory); err != nil {
			return rec, fmt.Errorf("ApplyUpdates: %w", err)
		}
	}

	var written []domain.Field
	for _, w := range writes {
		if err := s.store.UpdateField(ctx, rec.Position, w.field, w.value); err != nil {
			err = fmt.Errorf("ApplyUpdates: update %s: %w", w.field, err)
			if rerr := s.restore(ctx, rec, written); rerr != nil {
				return rec, errors.Join(err, fmt.Errorf("ApplyUpdates: %w", rerr))
			}
			return rec, err
		}
		written = append(written, w.field)
	}
	return updated, nil
}

// restore writes back rec's cells for fields, last written first.
func (s *Service) restore(ctx context.Context, rec domain.Record, fields []domain.Field) error {
	row := rec.Row()
	var errs []error
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if err := s.store.UpdateField(ctx, rec.Position, f, row[f.Column()]); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}

// EditField applies a single named change. Only amount, description,
// category and payment method can be edited this way.
func (s *Service) EditField(ctx context.Context, rec domain.Record, field domain.Field, value string) (domain.Record, error) {
	value = strings.TrimSpace(value)
	var u Updates
	switch field {
	case domain.FieldAmount:
		v, err := domain.ParseAmount(value)
		if err != nil {
			return rec, fmt.Errorf("EditField: %w", err)
		}
		u.Amount = &v
	case domain.FieldDescription:
		u.Description = &value
	case domain.FieldCategory:
		u.Category = &value
	case domain.FieldPaymentMethod:
		u.PaymentMethod = &value
	default:
		return rec, fmt.Errorf("EditField: %w: %q", domain.ErrUnknownField, field)
	}
	return s.ApplyUpdates(ctx, rec, u)
}
