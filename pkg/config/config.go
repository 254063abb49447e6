package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds process-wide configuration for the ledger, capsule store, and
// blob catalog, loaded from environment variables.
type Config struct {
	LogLevel string

	LedgerDir  string // UBL segment directory
	PolicyFile string // optional YAML overlay for UBL rotation/fsync policy

	SigningKeyPath string // Ed25519 signer key material

	BlobBackend string // "memory" | "s3" | "gcs"
	CatalogDSN  string // sqlite path or "postgres://..." DSN

	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Load loads configuration from environment variables, falling back to
// local-development defaults.
func Load() *Config {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	ledgerDir := os.Getenv("UBL_LEDGER_DIR")
	if ledgerDir == "" {
		ledgerDir = "./data/ledger"
	}

	signingKeyPath := os.Getenv("SIGNING_KEY_PATH")
	if signingKeyPath == "" {
		signingKeyPath = "./data/keys/signer.key"
	}

	blobBackend := os.Getenv("BLOB_BACKEND")
	if blobBackend == "" {
		blobBackend = "memory"
	}

	catalogDSN := os.Getenv("CATALOG_DSN")
	if catalogDSN == "" {
		catalogDSN = "./data/catalog.db"
	}

	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	return &Config{
		LogLevel:         logLevel,
		LedgerDir:        ledgerDir,
		PolicyFile:       os.Getenv("UBL_POLICY_FILE"),
		SigningKeyPath:   signingKeyPath,
		BlobBackend:      blobBackend,
		CatalogDSN:       catalogDSN,
		TelemetryEnabled: os.Getenv("TELEMETRY_ENABLED") == "true",
		OTLPEndpoint:     otlpEndpoint,
	}
}

// SlogLevel maps LogLevel ("DEBUG", "INFO", "WARN", "ERROR") to a
// log/slog.Level, defaulting to slog.LevelInfo for an unrecognized value.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
