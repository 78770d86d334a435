// Package notionsync mirrors the ledger into a Notion database, one page per
// record keyed by position.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/jomei/notionapi"
)

// BatchSize is the number of records logged as one progress step.
const BatchSize = 100

// Result counts what a sync did.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

// SyncLedger creates a page for every record missing from the database and
// updates pages whose fingerprint changed. Pages are never deleted. A failed
// page is logged and counted and does not stop the sync.
func SyncLedger(ctx context.Context, records []domain.Record, notionClient NotionService, notionDBID string, dryRun bool) (Result, error) {
	log := logger.FromContext(ctx)
	var res Result

	log.Info().
		Int("record_count", len(records)).
		Bool("dry_run", dryRun).
		Msg("Starting ledger sync to Notion")

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return res, fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	existing := make(map[int]notionapi.Page)
	for _, page := range notionPages {
		if pos := extractPosition(page); pos > 0 {
			existing[pos] = page
		}
	}

	for i := 0; i < len(records); i += BatchSize {
		end := i + BatchSize
		if end > len(records) {
			end = len(records)
		}
		log.Info().
			Int("batch_start", i).
			Int("batch_end", end).
			Msg("Processing batch")

		for _, rec := range records[i:end] {
			syncRecord(ctx, rec, existing, notionClient, notionDBID, dryRun, &res)
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("failed", res.Failed).
		Msg("Ledger sync completed")

	return res, nil
}

func syncRecord(ctx context.Context, rec domain.Record, existing map[int]notionapi.Page, notionClient NotionService, notionDBID string, dryRun bool, res *Result) {
	log := logger.FromContext(ctx).With().Int("position", rec.Position).Logger()

	page, found := existing[rec.Position]
	if found && extractFingerprint(page) == Fingerprint(rec) {
		res.Unchanged++
		return
	}

	if dryRun {
		if found {
			log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would update Notion page")
			res.Updated++
		} else {
			log.Info().Msg("[DRY RUN] Would create Notion page")
			res.Created++
		}
		return
	}

	props := RecordToNotionProperties(rec)
	if found {
		if _, err := notionClient.UpdatePage(ctx, string(page.ID), props); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
			res.Failed++
			return
		}
		log.Info().Str("page_id", string(page.ID)).Msg("Updated Notion page")
		res.Updated++
		return
	}

	created, err := notionClient.CreatePage(ctx, notionDBID, props)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create Notion page")
		res.Failed++
		return
	}
	log.Info().Str("page_id", string(created.ID)).Msg("Created Notion page")
	res.Created++
}

// queryAllNotionPages follows pagination until every page is read.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
