package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/telegrana/internal/domain"
	"google.golang.org/api/iterator"
)

// ListCategoriesWithClient returns every registered tag in insertion order.
func ListCategoriesWithClient(ctx context.Context, client *bigquery.Client, dataset string) ([]CategoryRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  kind,
		  name,
		  created_ts
		FROM %s.%s
		ORDER BY created_ts, name
	`, dataset, categoriesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var rows []CategoryRow
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		rows = append(rows, r)
	}

	return rows, nil
}

// InsertCategoryWithClient registers name under kind. Callers check for
// duplicates first.
func InsertCategoryWithClient(ctx context.Context, client *bigquery.Client, dataset string, kind domain.CategoryKind, name string) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (kind, name, created_ts)
		VALUES (@kind, @name, @created_ts)
	`, dataset, categoriesTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "kind", Value: string(kind)},
		{Name: "name", Value: name},
		{Name: "created_ts", Value: time.Now()},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertCategory: %w", err)
	}
	return nil
}

// splitCategories separates rows by kind, dropping normalized duplicates.
func splitCategories(rows []CategoryRow) (expense, income []string) {
	seen := make(map[string]bool)
	for _, r := range rows {
		key := r.Kind + "|" + domain.Normalize(r.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if domain.CategoryKind(r.Kind) == domain.KindIncome {
			income = append(income, r.Name)
		} else {
			expense = append(expense, r.Name)
		}
	}
	return expense, income
}

func hasCategory(rows []CategoryRow, kind domain.CategoryKind, name string) bool {
	key := domain.Normalize(name)
	for _, r := range rows {
		if domain.CategoryKind(r.Kind) == kind && domain.Normalize(r.Name) == key {
			return true
		}
	}
	return false
}
