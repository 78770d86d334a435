package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/infra"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/dvloznov/telegrana/internal/notionsync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	from := flag.String("from", "", "First day to mirror, dd/mm/yyyy (optional)")
	to := flag.String("to", "", "Last day to mirror, dd/mm/yyyy (optional)")
	notionToken := flag.String("notion-token", cfg.Notion.Token, "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", cfg.Notion.DatabaseID, "Notion database ID (or set NOTION_DATABASE_ID env)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	start, end, err := parseRange(*from, *to)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid date range")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("from", *from).
		Str("to", *to).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	store, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.Close()

	svc, err := infra.NewLedger(ctx, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	records, err := svc.Records(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}
	records = inRange(records, start, end)

	result, err := notionsync.SyncLedger(ctx, records, notionsync.NewNotionClient(*notionToken), *notionDBID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d unchanged, %d failed.\n",
		result.Created, result.Updated, result.Unchanged, result.Failed)
}

func parseRange(from, to string) (*civil.Date, *civil.Date, error) {
	var start, end *civil.Date
	if from != "" {
		d, err := domain.ParseDay(from)
		if err != nil {
			return nil, nil, fmt.Errorf("from: %w", err)
		}
		start = &d
	}
	if to != "" {
		d, err := domain.ParseDay(to)
		if err != nil {
			return nil, nil, fmt.Errorf("to: %w", err)
		}
		end = &d
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("to %s is before from %s", to, from)
	}
	return start, end, nil
}

// inRange keeps records dated within [start, end]. Without bounds every
// record is kept, including those whose date does not parse.
func inRange(records []domain.Record, start, end *civil.Date) []domain.Record {
	if start == nil && end == nil {
		return records
	}
	var out []domain.Record
	for _, r := range records {
		day, err := r.Day()
		if err != nil {
			continue
		}
		if start != nil && day.Before(*start) {
			continue
		}
		if end != nil && day.After(*end) {
			continue
		}
		out = append(out, r)
	}
	return out
}
