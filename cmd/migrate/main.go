package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/logger"
)

// Migration is a single numbered SQL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// migrator is the per-backend half of the tool.
type migrator interface {
	EnsureSchemaTable(ctx context.Context) error
	Applied(ctx context.Context) ([]AppliedMigration, error)
	Apply(ctx context.Context, m Migration, appliedBy string) error
	Close() error
}

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	backend := flag.String("backend", cfg.Store.Backend, "Target store: bigquery or postgres")
	projectID := flag.String("project", cfg.Store.ProjectID, "GCP project ID (bigquery)")
	datasetID := flag.String("dataset", cfg.Store.Dataset, "BigQuery dataset ID")
	dsn := flag.String("dsn", cfg.Store.PostgresDSN, "Postgres connection string")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	dir := flag.String("migrations", "", "Path to migrations directory (default migrations/<backend>)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var m migrator
	replacements := map[string]string{}
	switch *backend {
	case config.BackendBigQuery:
		if *projectID == "" {
			log.Fatal().Msg("Error: -project is required for bigquery")
		}
		m, err = newBigQueryMigrator(ctx, *projectID, *datasetID, cfg.Store.CredentialsFile)
		replacements["{{PROJECT_ID}}"] = *projectID
		replacements["{{DATASET_ID}}"] = *datasetID
	case config.BackendPostgres:
		if *dsn == "" {
			log.Fatal().Msg("Error: -dsn is required for postgres")
		}
		m, err = newPostgresMigrator(ctx, *dsn)
	default:
		log.Fatal().Str("backend", *backend).Msg("Error: -backend must be bigquery or postgres")
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", *backend).Msg("Failed to connect")
	}
	defer m.Close()

	if *dir == "" {
		*dir = filepath.Join("migrations", *backend)
	}

	if err := m.EnsureSchemaTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	migrations, err := readMigrations(locateDir(*dir), replacements)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	applied, err := m.Applied(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	for _, w := range checksumMismatches(migrations, applied) {
		log.Warn().Str("migration", w).Msg("Applied migration file has changed since it ran")
	}

	pending := pendingMigrations(migrations, applied)
	for _, mig := range pending {
		log.Info().Str("migration", mig.Filename).Msg("Applying migration")
		if err := m.Apply(ctx, mig, *appliedBy); err != nil {
			log.Fatal().Err(err).Str("migration", mig.Filename).Msg("Failed to apply migration")
		}
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
		return
	}
	log.Info().Int("applied", len(pending)).Msg("Migrations applied")
}

// locateDir falls back to the repository root when run from cmd/migrate.
func locateDir(dir string) string {
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	return filepath.Join("..", "..", dir)
}

// parseMigrationName splits 0001_name.sql into its version and name.
func parseMigrationName(filename string) (int, string, bool) {
	matches := migrationPattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// readMigrations loads every well-named file in dir sorted by version. The
// checksum covers the file before placeholders are replaced.
func readMigrations(dir string, replacements map[string]string) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("readMigrations: reading directory: %w", err)
	}

	var migrations []Migration
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		version, name, ok := parseMigrationName(file.Name())
		if !ok {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("readMigrations: reading %s: %w", file.Name(), err)
		}

		sql := string(content)
		for placeholder, value := range replacements {
			sql = strings.ReplaceAll(sql, placeholder, value)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: file.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func pendingMigrations(all []Migration, applied []AppliedMigration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, am := range applied {
		done[am.Version] = true
	}
	var pending []Migration
	for _, m := range all {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

func checksumMismatches(all []Migration, applied []AppliedMigration) []string {
	sums := make(map[int]string, len(applied))
	for _, am := range applied {
		sums[am.Version] = am.Checksum
	}
	var changed []string
	for _, m := range all {
		if sum, ok := sums[m.Version]; ok && sum != "" && sum != m.Checksum {
			changed = append(changed, m.Filename)
		}
	}
	return changed
}
