package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultContentAPIURL = "http://localhost:1337/api"
	DefaultPlaceholder   = "https://via.placeholder.com/300x200.png?text=No+Image"
	DefaultPageSize      = 6
)

type Config struct {
	Content    ContentConfig    `json:"content"`
	Catalog    CatalogConfig    `json:"catalog"`
	Media      MediaConfig      `json:"media"`
	Site       SiteConfig       `json:"site"`
	Newsletter NewsletterConfig `json:"newsletter"`
	Storage    StorageConfig    `json:"storage"`
	Mocks      MockConfig       `json:"mocks"`
	Telemetry  TelemetryConfig  `json:"telemetry"`
}

type ContentConfig struct {
	// BaseURL is the content API root, e.g. http://localhost:1337/api.
	BaseURL     string        `json:"base_url"`
	Timeout     time.Duration `json:"timeout"`
	RetryMax    int           `json:"retry_max"`
	RetryWait   time.Duration `json:"retry_wait"`
	CategoryTTL time.Duration `json:"category_ttl"`
	ProductTTL  time.Duration `json:"product_ttl"`
	Placeholder string        `json:"placeholder"`
	// WebhookToken, when set, must be sent as a bearer token by the CMS
	// webhook that invalidates cached lists.
	WebhookToken string       `json:"-"`
	HTTPClient   *http.Client `json:"-"`
}

type CatalogConfig struct {
	PageSize int `json:"page_size"`
}

type MediaConfig struct {
	AllowListFile string `json:"allowlist_file"`
}

type SiteConfig struct {
	URL       string `json:"url"`
	PublicDir string `json:"public_dir"`
}

type NewsletterConfig struct {
	SendgridAPIKey string `json:"-"`
	From           string `json:"from"`
}

type StorageConfig struct {
	Dir              string `json:"dir"`
	AzureAccountName string `json:"azure_account_name"`
	AzureAccountKey  string `json:"-"`
	Container        string `json:"container"`
}

type MockConfig struct {
	Enable bool `json:"enable"`
}

type TelemetryConfig struct {
	ServiceName string `json:"service_name"`
	// LogFormat is "json" or "text".
	LogFormat string `json:"log_format"`
	// OTLPEndpoint enables trace and log export when set. The exporters
	// read the standard OTEL_EXPORTER_OTLP_* variables themselves.
	OTLPEndpoint string `json:"otlp_endpoint"`
	// LogContainer, together with the Azure storage account, also appends
	// logs to a blob per host and day.
	LogContainer string `json:"log_container"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		d, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	integer := func(key string, def int) int {
		n, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	cfg := &Config{
		Content: ContentConfig{
			BaseURL:      strings.TrimRight(getEnvOrDefault("CONTENT_API_URL", DefaultContentAPIURL), "/"),
			Timeout:      duration("CONTENT_TIMEOUT", 10*time.Second),
			RetryMax:     integer("CONTENT_RETRY_MAX", 1),
			RetryWait:    duration("CONTENT_RETRY_WAIT", 250*time.Millisecond),
			CategoryTTL:  duration("CONTENT_CATEGORY_TTL", 10*time.Minute),
			ProductTTL:   duration("CONTENT_PRODUCT_TTL", 0),
			Placeholder:  getEnvOrDefault("CONTENT_PLACEHOLDER_IMAGE", DefaultPlaceholder),
			WebhookToken: os.Getenv("CONTENT_WEBHOOK_TOKEN"),
		},
		Catalog: CatalogConfig{
			PageSize: integer("CATALOG_PAGE_SIZE", DefaultPageSize),
		},
		Media: MediaConfig{
			AllowListFile: os.Getenv("MEDIA_ALLOWLIST_FILE"),
		},
		Site: SiteConfig{
			URL:       strings.TrimRight(getEnvOrDefault("SITE_URL", "http://localhost:8080"), "/"),
			PublicDir: getEnvOrDefault("PUBLIC_DIR", "public"),
		},
		Newsletter: NewsletterConfig{
			SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			From:           getEnvOrDefault("NEWSLETTER_FROM", "hello@crustline.pizza"),
		},
		Storage: StorageConfig{
			Dir:              getEnvOrDefault("CACHE_DIR", "cache"),
			AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AzureAccountKey:  os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			Container:        getEnvOrDefault("AZURE_STORAGE_CONTAINER", "crustline"),
		},
		Mocks: MockConfig{
			Enable: getEnvOrDefault("MOCKS_ENABLE", "") == "true",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "crustline"),
			LogFormat:    getEnvOrDefault("LOG_FORMAT", "json"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			LogContainer: os.Getenv("LOGSINK_CONTAINER"),
		},
	}

	if cfg.Content.RetryMax < 0 {
		errs = append(errs, fmt.Errorf("CONTENT_RETRY_MAX must not be negative, got %d", cfg.Content.RetryMax))
	}
	if cfg.Catalog.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_PAGE_SIZE must be positive, got %d", cfg.Catalog.PageSize))
	}
	if f := cfg.Telemetry.LogFormat; f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", f))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
