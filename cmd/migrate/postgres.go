package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/telegrana/internal/infra/postgres"
)

type postgresMigrator struct {
	db *postgres.DB
}

func newPostgresMigrator(ctx context.Context, dsn string) (*postgresMigrator, error) {
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("newPostgresMigrator: %w", err)
	}
	return &postgresMigrator{db: db}, nil
}

func (p *postgresMigrator) Close() error {
	return p.db.Close()
}

func (p *postgresMigrator) EnsureSchemaTable(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			checksum   TEXT,
			applied_by TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("EnsureSchemaTable: %w", err)
	}
	return nil
}

func (p *postgresMigrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT version, name, applied_at, COALESCE(checksum, ''), COALESCE(applied_by, '')
		FROM schema_migrations
		ORDER BY version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("Applied: querying: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Name, &am.AppliedAt, &am.Checksum, &am.AppliedBy); err != nil {
			return nil, fmt.Errorf("Applied: scanning: %w", err)
		}
		applied = append(applied, am)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Applied: iterating: %w", err)
	}
	return applied, nil
}

// Apply runs the migration and its bookkeeping row in one transaction.
func (p *postgresMigrator) Apply(ctx context.Context, m Migration, appliedBy string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Apply: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("Apply: executing %s: %w", m.Filename, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, name, checksum, applied_by)
		VALUES ($1, $2, $3, $4)
	`, m.Version, m.Name, m.Checksum, appliedBy)
	if err != nil {
		return fmt.Errorf("Apply: recording %s: %w", m.Filename, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Apply: commit: %w", err)
	}
	return nil
}
