package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"google.golang.org/api/iterator"
)

const (
	entriesTable    = "ledger_entries"
	categoriesTable = "ledger_categories"
)

// AppendEntryWithClient writes row after the current last position and
// returns the new position.
func AppendEntryWithClient(ctx context.Context, client *bigquery.Client, dataset string, row domain.Row) (int, error) {
	last, err := lastPositionWithClient(ctx, client, dataset)
	if err != nil {
		return 0, fmt.Errorf("AppendEntry: %w", err)
	}
	entry := entryFromRow(last+1, row)

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			position,
			entry_date,
			amount,
			reimbursed,
			description,
			tags,
			payment_method,
			created_ts
		)
		VALUES (
			@position,
			@entry_date,
			@amount,
			@reimbursed,
			@description,
			@tags,
			@payment_method,
			@created_ts
		)
	`, dataset, entriesTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "position", Value: entry.Position},
		{Name: "entry_date", Value: entry.EntryDate},
		{Name: "amount", Value: entry.Amount},
		{Name: "reimbursed", Value: entry.Reimbursed},
		{Name: "description", Value: entry.Description},
		{Name: "tags", Value: entry.Tags},
		{Name: "payment_method", Value: entry.PaymentMethod},
		{Name: "created_ts", Value: time.Now()},
	}

	if _, err := runDML(ctx, q); err != nil {
		return 0, fmt.Errorf("AppendEntry: %w", err)
	}
	return int(entry.Position), nil
}

func lastPositionWithClient(ctx context.Context, client *bigquery.Client, dataset string) (int64, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT COALESCE(MAX(position), 0) AS last_position
		FROM %s.%s
	`, dataset, entriesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("lastPosition: query read: %w", err)
	}

	var r struct {
		LastPosition int64 `bigquery:"last_position"`
	}
	if err := it.Next(&r); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("lastPosition: iter next: %w", err)
	}
	return r.LastPosition, nil
}

// ListEntriesWithClient returns every line ordered by position.
func ListEntriesWithClient(ctx context.Context, client *bigquery.Client, dataset string) ([]EntryRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			position,
			entry_date,
			amount,
			reimbursed,
			description,
			tags,
			payment_method,
			created_ts,
			updated_ts
		FROM %s.%s
		ORDER BY position
	`, dataset, entriesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: query read: %w", err)
	}

	var rows []EntryRow
	for {
		var r EntryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListEntries: iter next: %w", err)
		}
		rows = append(rows, r)
	}

	return rows, nil
}

// UpdateEntryFieldWithClient overwrites one cell of the line at position.
func UpdateEntryFieldWithClient(ctx context.Context, client *bigquery.Client, dataset string, position int, field domain.Field, value string) error {
	column, ok := entryColumns[field]
	if !ok {
		return fmt.Errorf("UpdateEntryField: %w: %q", domain.ErrUnknownField, field)
	}

	// column comes from a fixed map; only values are parameters.
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET %s = @value,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE position = @position
	`, dataset, entriesTable, column))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "value", Value: value},
		{Name: "position", Value: int64(position)},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateEntryField: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateEntryField: position %d: %w", position, ledger.ErrRecordNotFound)
	}
	return nil
}

// runDML runs a statement, waits for it and returns the affected row count.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	return affectedRows(status)
}

// errNoDMLStatistics is returned when a finished DML job carries no query
// statistics, so the affected row count is unknown.
var errNoDMLStatistics = errors.New("job returned no DML statistics")

func affectedRows(status *bigquery.JobStatus) (int64, error) {
	if status == nil || status.Statistics == nil {
		return 0, errNoDMLStatistics
	}
	details, ok := status.Statistics.Details.(*bigquery.QueryStatistics)
	if !ok || details == nil {
		return 0, errNoDMLStatistics
	}
	return details.NumDMLAffectedRows, nil
}
