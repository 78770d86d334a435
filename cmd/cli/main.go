package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/gcsexport"
	"github.com/dvloznov/telegrana/internal/infra"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	switch os.Args[1] {
	case "totals":
		runTotals(cfg, log)
	case "tags":
		runTags(cfg, log)
	case "export":
		runExport(cfg, log)
	case "find":
		runFind(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  totals    Spent, gained and balance over a date range")
	fmt.Println("  tags      List expense and income tags")
	fmt.Println("  export    Upload a CSV snapshot of the ledger to GCS")
	fmt.Println("  find      Search records by date, amount or description")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openLedger(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*ledger.Service, func()) {
	store, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	svc, err := infra.NewLedger(ctx, cfg, store)
	if err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}
	return svc, func() { store.Close() }
}

func runTotals(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("totals", flag.ExitOnError)
	from := fs.String("from", "", "First day, dd/mm/yyyy (optional)")
	to := fs.String("to", "", "Last day, dd/mm/yyyy, inclusive (optional)")
	include := fs.String("include", "", "Comma-separated payment methods to keep")
	exclude := fs.String("exclude", "", "Comma-separated payment methods to drop")
	fs.Parse(os.Args[2:])

	q, err := buildQuery(*from, *to, *include, *exclude)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid totals options")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, closeStore := openLedger(ctx, cfg, log)
	defer closeStore()

	totals, err := svc.Totals(ctx, q)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute totals")
	}
	printTotals(os.Stdout, totals)
}

// buildQuery turns inclusive command line days into an aggregator query.
func buildQuery(from, to, include, exclude string) (ledger.Query, error) {
	q := ledger.Query{Include: splitList(include), Exclude: splitList(exclude)}
	if from != "" {
		d, err := domain.ParseDay(from)
		if err != nil {
			return q, fmt.Errorf("from: %w", err)
		}
		q.Start = &d
	}
	if to != "" {
		d, err := domain.ParseDay(to)
		if err != nil {
			return q, fmt.Errorf("to: %w", err)
		}
		end := d.AddDays(1)
		q.End = &end
	}
	return q, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printTotals(w io.Writer, t ledger.Totals) {
	fmt.Fprintf(w, "Spent:   %s\n", domain.FormatBRL(t.Spent))
	fmt.Fprintf(w, "Gained:  %s\n", domain.FormatBRL(t.Gain))
	fmt.Fprintf(w, "Balance: %s\n", domain.FormatBRL(t.Balance))

	printItems(w, "Top expenses", t.TopExpenses(5))
	printItems(w, "Top gains", t.TopGains(5))
}

func printItems(w io.Writer, title string, items []ledger.Item) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  %-30s %s\n", it.Description, domain.FormatBRL(it.Value.Abs()))
	}
}

func runTags(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	svc, closeStore := openLedger(ctx, cfg, log)
	defer closeStore()

	catalog := svc.Catalog()
	fmt.Printf("Expense: %s\n", strings.Join(catalog.Expense, ", "))
	fmt.Printf("Income:  %s\n", strings.Join(catalog.Income, ", "))
	fmt.Printf("Methods: %s\n", strings.Join(catalog.PaymentMethods, ", "))
}

func runExport(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	bucket := fs.String("bucket", cfg.Export.Bucket, "GCS bucket (or set EXPORT_BUCKET env)")
	prefix := fs.String("prefix", cfg.Export.Prefix, "Object prefix inside the bucket")
	fs.Parse(os.Args[2:])

	if *bucket == "" {
		log.Fatal().Msg("Error: --bucket is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.Close()

	rows, err := store.ReadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}

	gcs, err := gcsexport.NewGCSStore(ctx, cfg.Store.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer gcs.Close()

	uri, err := gcsexport.NewExporter(gcs, *bucket, *prefix).Export(ctx, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d records to %s\n", len(rows), uri)
}

func runFind(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	date := fs.String("date", "", "Date or part of it, e.g. 10/01 or ontem")
	amount := fs.String("amount", "", "Approximate amount, e.g. 45,90")
	description := fs.String("description", "", "Words from the description")
	fs.Parse(os.Args[2:])

	c := ledger.Criteria{Date: *date, Description: *description}
	if *amount != "" {
		v, err := domain.ParseAmount(*amount)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --amount")
		}
		c.Amount = &v
	}
	if c.Date == "" && c.Amount == nil && c.Description == "" {
		log.Fatal().Msg("Error: at least one of --date, --amount or --description is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	svc, closeStore := openLedger(ctx, cfg, log)
	defer closeStore()

	matches, err := svc.FindByCriteria(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Search failed")
	}
	printRecords(os.Stdout, matches)
}

func printRecords(w io.Writer, records []domain.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tAMOUNT\tREIMBURSED\tDESCRIPTION\tTAGS\tMETHOD")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Position, r.Date, domain.FormatBRL(r.Amount), domain.FormatBRL(r.Reimbursed),
			r.Description, r.Category, r.PaymentMethod)
	}
	tw.Flush()
}
