// Package config defines the settings model for loadctl.
//
// Settings are read once at process start from a YAML file with environment
// overrides (cleanenv), then passed explicitly into every component
// constructor. Nothing in the module reads configuration from globals.
//
// Example settings.yaml (trimmed):
//
//	mapping:
//	  path: config/table_mapping.json
//	blob:
//	  kind: azure
//	  container: cleaned
//	warehouse:
//	  kind: postgres
//	  dsn: postgres://etl@localhost/warehouse
package config

import (
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"loadctl/internal/errs"
)

// Settings is the top-level settings object.
type Settings struct {
	Mapping   MappingSettings   `yaml:"mapping"`
	Blob      BlobSettings      `yaml:"blob"`
	Warehouse WarehouseSettings `yaml:"warehouse"`
	Load      LoadSettings      `yaml:"load"`
	Cleaner   CleanerSettings   `yaml:"cleaner"`
	Report    ReportSettings    `yaml:"report"`
	Metrics   MetricsSettings   `yaml:"metrics"`
	Log       LogSettings       `yaml:"log"`
}

// MappingSettings locates the table mapping file.
type MappingSettings struct {
	Path string `yaml:"path" env:"LOADCTL_MAPPING" env-default:"config/table_mapping.json"`
}

// BlobSettings selects and configures the blob store holding source CSVs.
type BlobSettings struct {
	// Kind is one of "local", "azure", "gcs".
	Kind string `yaml:"kind" env:"LOADCTL_BLOB_KIND" env-default:"local"`

	// Dir is the root directory for the local store.
	Dir string `yaml:"dir" env:"LOADCTL_BLOB_DIR" env-default:"data"`

	// Container is the Azure container name.
	Container string `yaml:"container" env:"BLOB_CONTAINER"`
	// ConnectionString authenticates with an account key. When empty,
	// AccountURL is used with the default Azure credential chain.
	ConnectionString string `yaml:"connection_string" env:"AZURE_STORAGE_CONNECTION_STRING"`
	AccountURL       string `yaml:"account_url" env:"AZURE_STORAGE_ACCOUNT_URL"`

	// Bucket is the GCS bucket name.
	Bucket string `yaml:"bucket" env:"LOADCTL_GCS_BUCKET"`

	// Prefix restricts listing to objects under this prefix (azure, gcs).
	Prefix string `yaml:"prefix" env:"LOADCTL_BLOB_PREFIX"`

	// MaxRetries is how often a failed list or read is retried; ErrNotFound
	// is never retried.
	MaxRetries     int           `yaml:"max_retries" env:"LOADCTL_BLOB_MAX_RETRIES" env-default:"3"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"LOADCTL_BLOB_INITIAL_BACKOFF" env-default:"200ms"`
}

// WarehouseSettings selects the destination warehouse.
type WarehouseSettings struct {
	// Kind is one of "postgres", "mssql", "mysql", "sqlite", "snowflake".
	Kind string `yaml:"kind" env:"LOADCTL_WAREHOUSE_KIND" env-default:"sqlite"`
	DSN  string `yaml:"dsn" env:"LOADCTL_WAREHOUSE_DSN" env-default:"loadctl.db"`
	// Schema qualifies unqualified destination tables, e.g. "public".
	Schema string `yaml:"schema" env:"LOADCTL_WAREHOUSE_SCHEMA"`
}

// LoadSettings tunes the loader.
type LoadSettings struct {
	// SampleSize is the number of data rows used for type inference.
	SampleSize int `yaml:"sample_size" env:"LOADCTL_SAMPLE_SIZE" env-default:"100"`
	// MaxRejectDetails caps the rejection reasons copied into error_detail.
	MaxRejectDetails int `yaml:"max_reject_details" env:"LOADCTL_MAX_REJECT_DETAILS" env-default:"3"`
}

// CleanerSettings tunes text normalization.
type CleanerSettings struct {
	// NullTokens are field values rewritten to the empty string.
	NullTokens []string `yaml:"null_tokens" env:"LOADCTL_NULL_TOKENS" env-separator:"," env-default:"NULL,null"`
}

// ReportSettings controls where run reports are written.
type ReportSettings struct {
	Dir string `yaml:"dir" env:"LOADCTL_REPORT_DIR" env-default:"logs"`
}

// MetricsSettings selects a metrics backend.
type MetricsSettings struct {
	// Backend is one of "none", "pushgateway", "datadog".
	Backend          string `yaml:"backend" env:"METRICS_BACKEND" env-default:"none"`
	Job              string `yaml:"job" env:"LOADCTL_METRICS_JOB" env-default:"loadctl"`
	PushgatewayURL   string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL"`
	DatadogAddr      string `yaml:"datadog_addr" env:"DD_DOGSTATSD_ADDR"`
	DatadogNamespace string `yaml:"datadog_namespace" env:"LOADCTL_DATADOG_NAMESPACE" env-default:"loadctl."`
}

// LogSettings configures the zap logger.
type LogSettings struct {
	Level  string `yaml:"level" env:"LOADCTL_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOADCTL_LOG_FORMAT" env-default:"console"`
}

// Load reads settings from path (YAML) and applies environment overrides.
// An empty path reads the environment and defaults only. Failures are
// reported as errs.ConfigError.
func Load(path string) (*Settings, error) {
	var s Settings
	if strings.TrimSpace(path) == "" {
		if err := cleanenv.ReadEnv(&s); err != nil {
			return nil, errs.E(errs.ConfigError, "read settings from env", err)
		}
		return &s, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errs.E(errs.ConfigError, "stat settings "+path, err)
	}
	if err := cleanenv.ReadConfig(path, &s); err != nil {
		return nil, errs.E(errs.ConfigError, "read settings "+path, err)
	}
	return &s, nil
}
