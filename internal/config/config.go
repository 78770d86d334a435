package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Store backends understood by infra.Open.
const (
	BackendBigQuery = "bigquery"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultGeminiModels is the fallback order tried by the intent oracle.
var DefaultGeminiModels = []string{
	"gemini-2.5-flash-lite",
	"gemini-3-flash-preview",
	"gemini-2.5-flash",
	"gemini-flash-latest",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

type Config struct {
	Telegram TelegramConfig
	Gemini   GeminiConfig
	Store    StoreConfig
	Export   ExportConfig
	Notion   NotionConfig
	HTTP     HTTPConfig
	Ledger   LedgerConfig
	Log      LogConfig
}

type TelegramConfig struct {
	Token         string
	AllowedUserID int64
	PollTimeout   int
	Debug         bool
}

type GeminiConfig struct {
	APIKey          string
	APIVersion      string
	Models          []string
	Temperature     float32
	MaxOutputTokens int32
}

type StoreConfig struct {
	Backend         string
	ProjectID       string
	Dataset         string
	CredentialsFile string
	PostgresDSN     string
	SnapshotURI     string
}

type ExportConfig struct {
	Bucket string
	Prefix string
}

type NotionConfig struct {
	Token      string
	DatabaseID string
}

type HTTPConfig struct {
	Port   string
	APIKey string
}

type LedgerConfig struct {
	Location           *time.Location
	PaymentMethods     []string
	DefaultExpenseTags []string
	DefaultIncomeTags  []string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	allowedUser, err := getInt64Env("TELEGRAM_ALLOWED_USER_ID", 0)
	if err != nil {
		return nil, err
	}
	pollTimeout, err := getInt64Env("TELEGRAM_POLL_TIMEOUT", 60)
	if err != nil {
		return nil, err
	}
	maxTokens, err := getInt64Env("GEMINI_MAX_OUTPUT_TOKENS", 500)
	if err != nil {
		return nil, err
	}
	temperature, err := strconv.ParseFloat(getEnv("GEMINI_TEMPERATURE", "0.1"), 32)
	if err != nil {
		return nil, fmt.Errorf("invalid GEMINI_TEMPERATURE: %w", err)
	}
	loc, err := time.LoadLocation(getEnv("LEDGER_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:         getEnv("TELEGRAM_TOKEN", ""),
			AllowedUserID: allowedUser,
			PollTimeout:   int(pollTimeout),
			Debug:         getBoolEnv("TELEGRAM_DEBUG", false),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			APIVersion:      getEnv("GEMINI_API_VERSION", "v1beta"),
			Models:          getListEnv("GEMINI_MODELS", DefaultGeminiModels),
			Temperature:     float32(temperature),
			MaxOutputTokens: int32(maxTokens),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
			ProjectID:       getEnv("GCP_PROJECT_ID", ""),
			Dataset:         getEnv("BIGQUERY_DATASET", "ledger"),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			PostgresDSN:     getEnv("DATABASE_URL", ""),
			SnapshotURI:     getEnv("STORE_SNAPSHOT_URI", ""),
		},
		Export: ExportConfig{
			Bucket: getEnv("EXPORT_BUCKET", ""),
			Prefix: getEnv("EXPORT_PREFIX", "snapshots"),
		},
		Notion: NotionConfig{
			Token:      getEnv("NOTION_TOKEN", ""),
			DatabaseID: getEnv("NOTION_DATABASE_ID", ""),
		},
		HTTP: HTTPConfig{
			Port:   getEnv("PORT", "8080"),
			APIKey: getEnv("API_KEY", ""),
		},
		Ledger: LedgerConfig{
			Location:           loc,
			PaymentMethods:     getListEnv("LEDGER_PAYMENT_METHODS", []string{"Pix", "Crédito", "Débito", "Caju"}),
			DefaultExpenseTags: getListEnv("LEDGER_EXPENSE_TAGS", []string{"Alimentação", "Lazer", "Transporte", "Farmácia", "Uber", "Mercado"}),
			DefaultIncomeTags:  getListEnv("LEDGER_INCOME_TAGS", []string{"Salário", "Reembolso", "Freela"}),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	switch cfg.Store.Backend {
	case BackendBigQuery:
		if cfg.Store.ProjectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID is required when STORE_BACKEND=bigquery")
		}
	case BackendPostgres:
		if cfg.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	if len(cfg.Gemini.Models) == 0 {
		return nil, fmt.Errorf("GEMINI_MODELS must name at least one model")
	}

	return cfg, nil
}

// RequireGemini reports whether the intent oracle can be constructed.
func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

// RequireTelegram reports whether the chat transport can be started.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.Telegram.AllowedUserID == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_ID is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func getInt64Env(key string, defaultValue int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getListEnv splits a comma-separated variable, dropping blank entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
