package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type bigQueryMigrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

func newBigQueryMigrator(ctx context.Context, projectID, datasetID, credentialsFile string) (*bigQueryMigrator, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("newBigQueryMigrator: creating client: %w", err)
	}
	return &bigQueryMigrator{client: client, projectID: projectID, datasetID: datasetID}, nil
}

func (b *bigQueryMigrator) Close() error {
	return b.client.Close()
}

func (b *bigQueryMigrator) table() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", b.projectID, b.datasetID)
}

func (b *bigQueryMigrator) run(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (b *bigQueryMigrator) EnsureSchemaTable(ctx context.Context) error {
	q := b.client.Query(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`, b.table()))
	if err := b.run(ctx, q); err != nil {
		return fmt.Errorf("EnsureSchemaTable: %w", err)
	}
	return nil
}

func (b *bigQueryMigrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	q := b.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, b.table()))

	it, err := q.Read(ctx)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("Applied: reading: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Applied: iterating: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

// Apply runs the migration and then records it. BigQuery has no DDL
// transactions, so a failure between the two leaves the migration unrecorded.
func (b *bigQueryMigrator) Apply(ctx context.Context, m Migration, appliedBy string) error {
	if err := b.run(ctx, b.client.Query(m.SQL)); err != nil {
		return fmt.Errorf("Apply: executing %s: %w", m.Filename, err)
	}

	q := b.client.Query(fmt.Sprintf(`
		INSERT INTO %s (version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, b.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: appliedBy},
	}
	if err := b.run(ctx, q); err != nil {
		return fmt.Errorf("Apply: recording %s: %w", m.Filename, err)
	}
	return nil
}
