package gcsexport

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/google/uuid"
)

// Exporter uploads and restores ledger snapshots.
type Exporter struct {
	store  ObjectStore
	bucket string
	prefix string
	now    func() time.Time
}

// NewExporter creates an exporter writing under gs://bucket/prefix.
func NewExporter(store ObjectStore, bucket, prefix string) *Exporter {
	return &Exporter{store: store, bucket: bucket, prefix: prefix, now: time.Now}
}

// ObjectName returns a unique snapshot object name for t.
func (e *Exporter) ObjectName(t time.Time) string {
	name := fmt.Sprintf("ledger-%s-%s.csv", t.UTC().Format("20060102T150405"), uuid.NewString()[:8])
	return path.Join(e.prefix, name)
}

// Export uploads rows and returns the snapshot URI.
func (e *Exporter) Export(ctx context.Context, rows []domain.Row) (string, error) {
	if e.bucket == "" {
		return "", fmt.Errorf("Export: no bucket configured")
	}
	data, err := encodeBytes(rows)
	if err != nil {
		return "", fmt.Errorf("Export: %w", err)
	}

	object := e.ObjectName(e.now())
	if err := e.store.Put(ctx, e.bucket, object, data); err != nil {
		return "", fmt.Errorf("Export: %w", err)
	}

	uri := URI(e.bucket, object)
	log := logger.FromContext(ctx)
	log.Info().Str("uri", uri).Int("rows", len(rows)).Msg("Ledger snapshot exported")
	return uri, nil
}

// Restore downloads the snapshot at uri.
func (e *Exporter) Restore(ctx context.Context, uri string) ([]domain.Row, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Restore: %w", err)
	}
	data, err := e.store.Get(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("Restore: %w", err)
	}
	rows, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Restore: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("uri", uri).Int("rows", len(rows)).Msg("Ledger snapshot restored")
	return rows, nil
}
