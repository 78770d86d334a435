// Package infra builds the configured ledger store backend.
package infra

import (
	"context"
	"fmt"

	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/gcsexport"
	"github.com/dvloznov/telegrana/internal/infra/bigquery"
	"github.com/dvloznov/telegrana/internal/infra/memstore"
	"github.com/dvloznov/telegrana/internal/infra/postgres"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/dvloznov/telegrana/internal/logger"
)

// Store is a ledger store that holds resources.
type Store interface {
	ledger.Store
	Close() error
}

type memoryStore struct {
	*memstore.Store
}

func (memoryStore) Close() error { return nil }

// Open creates the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	log := logger.FromContext(ctx)
	log.Info().Str("backend", cfg.Store.Backend).Msg("Opening ledger store")

	switch cfg.Store.Backend {
	case config.BackendBigQuery:
		store, err := bigquery.NewStore(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return postgres.NewStore(db), nil
	case config.BackendMemory:
		store, err := openMemory(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return memoryStore{store}, nil
	}
	return nil, fmt.Errorf("Open: unknown backend %q", cfg.Store.Backend)
}

func openMemory(ctx context.Context, cfg *config.Config) (*memstore.Store, error) {
	if cfg.Store.SnapshotURI == "" {
		return memstore.New(), nil
	}

	gcs, err := gcsexport.NewGCSStore(ctx, cfg.Store.CredentialsFile)
	if err != nil {
		return nil, err
	}
	defer gcs.Close()

	rows, err := gcsexport.NewExporter(gcs, "", "").Restore(ctx, cfg.Store.SnapshotURI)
	if err != nil {
		return nil, err
	}
	return Seed(ctx, rows, cfg.Ledger)
}

// Seed builds a memory store holding rows. The configured default tags are
// registered first, followed by any tag the rows use.
func Seed(ctx context.Context, rows []domain.Row, lc config.LedgerConfig) (*memstore.Store, error) {
	store := memstore.NewFromRows(rows)
	expense, income := gcsexport.Categories(rows)

	register := func(kind domain.CategoryKind, names ...[]string) error {
		for _, list := range names {
			for _, name := range list {
				if _, err := store.RegisterCategory(ctx, kind, name); err != nil {
					return fmt.Errorf("Seed: %w", err)
				}
			}
		}
		return nil
	}
	if err := register(domain.KindExpense, lc.DefaultExpenseTags, expense); err != nil {
		return nil, err
	}
	if err := register(domain.KindIncome, lc.DefaultIncomeTags, income); err != nil {
		return nil, err
	}
	return store, nil
}

// NewLedger builds the ledger service over store and loads its tag catalog.
func NewLedger(ctx context.Context, cfg *config.Config, store ledger.Store) (*ledger.Service, error) {
	catalog := domain.NewCatalog(cfg.Ledger.DefaultExpenseTags, cfg.Ledger.DefaultIncomeTags, cfg.Ledger.PaymentMethods)
	svc := ledger.NewService(store, catalog, cfg.Ledger.Location)
	if err := svc.LoadCatalog(ctx); err != nil {
		return nil, fmt.Errorf("NewLedger: %w", err)
	}
	return svc, nil
}
