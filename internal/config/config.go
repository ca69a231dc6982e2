package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const (
	CursorMemory = "memory"
	CursorRedis  = "redis"

	LedgerNone   = ""
	LedgerSQLite = "sqlite"
	LedgerMySQL  = "mysql"
)

// Config holds everything the watcher needs, read from the environment.
type Config struct {
	// Books (catalog and purchase orders)
	AccessToken       string
	AuthScheme        string
	OrganizationID    string
	VendorID          string
	BooksBaseURL      string
	ItemAccountID     string
	PurchaseAccountID string

	// Inbox
	GmailAccessToken string
	GmailBaseURL     string
	GmailUser        string
	InboxLabel       string

	SinkURL string

	PollInterval  time.Duration
	HTTPTimeout   time.Duration
	PartialPolicy domain.PartialPolicy

	CursorBackend string
	RedisAddr     string
	LedgerDriver  string
	LedgerDSN     string

	StatusAddr string
	GRPCAddr   string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads envFile (if it exists) into the process environment and then
// builds a Config. Variables already set in the environment win over the
// file. Call Validate before using the result.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	pollInterval, err := getEnvDuration("POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return &Config{
		AccessToken:       os.Getenv("ZOHO_ACCESS_TOKEN"),
		AuthScheme:        getEnv("BOOKS_AUTH_SCHEME", "Zoho-oauthtoken"),
		OrganizationID:    os.Getenv("ORG_ID"),
		VendorID:          os.Getenv("VENDOR_ID"),
		BooksBaseURL:      getEnv("BOOKS_BASE_URL", "https://books.zoho.com/api/v3"),
		ItemAccountID:     getEnv("ITEM_ACCOUNT_ID", "3450124000000000388"),
		PurchaseAccountID: getEnv("ITEM_PURCHASE_ACCOUNT_ID", "3450124000000034003"),

		GmailAccessToken: os.Getenv("GMAIL_ACCESS_TOKEN"),
		GmailBaseURL:     getEnv("GMAIL_BASE_URL", "https://gmail.googleapis.com/gmail/v1"),
		GmailUser:        getEnv("GMAIL_USER", "me"),
		InboxLabel:       getEnv("INBOX_LABEL", "INBOX"),

		SinkURL: getEnv("SINK_URL", os.Getenv("URL")),

		PollInterval:  pollInterval,
		HTTPTimeout:   httpTimeout,
		PartialPolicy: domain.PartialPolicy(getEnv("PARTIAL_ORDER_POLICY", string(domain.PolicySubmitPartial))),

		CursorBackend: getEnv("CURSOR_BACKEND", CursorMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		LedgerDriver:  strings.ToLower(os.Getenv("LEDGER_DRIVER")),
		LedgerDSN:     os.Getenv("LEDGER_DSN"),

		StatusAddr: getEnv("STATUS_ADDR", ":8080"),
		GRPCAddr:   os.Getenv("GRPC_ADDR"),

		LogLevel:  level,
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}, nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	required := []struct{ key, value string }{
		{"ZOHO_ACCESS_TOKEN", c.AccessToken},
		{"ORG_ID", c.OrganizationID},
		{"VENDOR_ID", c.VendorID},
		{"SINK_URL", c.SinkURL},
		{"GMAIL_ACCESS_TOKEN", c.GmailAccessToken},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", r.key))
		}
	}

	if !c.PartialPolicy.Valid() {
		errs = append(errs, fmt.Errorf("PARTIAL_ORDER_POLICY %q must be %q or %q",
			c.PartialPolicy, domain.PolicySubmitPartial, domain.PolicyAbort))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	switch c.CursorBackend {
	case CursorMemory, CursorRedis:
	default:
		errs = append(errs, fmt.Errorf("CURSOR_BACKEND %q must be %q or %q", c.CursorBackend, CursorMemory, CursorRedis))
	}
	switch c.LedgerDriver {
	case LedgerNone:
	case LedgerSQLite, LedgerMySQL:
		if c.LedgerDSN == "" {
			errs = append(errs, fmt.Errorf("LEDGER_DSN is required for LEDGER_DRIVER=%s", c.LedgerDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("LEDGER_DRIVER %q must be empty, %q or %q", c.LedgerDriver, LedgerSQLite, LedgerMySQL))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("5s") and bare seconds ("5").
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
