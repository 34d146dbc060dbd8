package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// IssueSeverity represents the severity of a settings issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// settings (e.g. "blob.container").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be returned as an error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over s and returns every finding. It does
// not open connections or touch the filesystem.
func Validate(s Settings) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Mapping.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mapping.path",
			Message:  "mapping.path must not be empty",
		})
	}
	issues = append(issues, validateBlob(s.Blob)...)
	issues = append(issues, validateWarehouse(s.Warehouse)...)
	issues = append(issues, validateLoad(s.Load)...)
	issues = append(issues, validateMetrics(s.Metrics)...)
	issues = append(issues, validateLog(s.Log)...)

	return issues
}

func validateBlob(b BlobSettings) []Issue {
	var issues []Issue

	if b.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "blob.max_retries",
			Message:  "blob.max_retries must be >= 0",
		})
	}

	switch b.Kind {
	case "local":
		if strings.TrimSpace(b.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "blob.dir",
				Message:  "local blob store requires a directory",
			})
		}
	case "azure":
		if strings.TrimSpace(b.Container) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "blob.container",
				Message:  "azure blob store requires a container",
			})
		}
		if b.ConnectionString == "" && b.AccountURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "blob.connection_string",
				Message:  "azure blob store requires connection_string or account_url",
			})
		}
	case "gcs":
		if strings.TrimSpace(b.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "blob.bucket",
				Message:  "gcs blob store requires a bucket",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "blob.kind",
			Message:  "blob.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "blob.kind",
			Message:  fmt.Sprintf("unknown blob kind %q; expected local, azure or gcs", b.Kind),
		})
	}
	return issues
}

func validateWarehouse(w WarehouseSettings) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"postgres":  {},
		"mssql":     {},
		"mysql":     {},
		"sqlite":    {},
		"snowflake": {},
	}
	if _, ok := known[w.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.kind",
			Message:  fmt.Sprintf("unknown warehouse kind %q", w.Kind),
		})
	}
	if strings.TrimSpace(w.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.dsn",
			Message:  "warehouse.dsn must not be empty",
		})
	}
	if w.Kind == "sqlite" && w.Schema != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "warehouse.schema",
			Message:  "sqlite has no schemas; warehouse.schema is treated as an attached database name",
		})
	}
	return issues
}

func validateLoad(l LoadSettings) []Issue {
	var issues []Issue
	if l.SampleSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "load.sample_size",
			Message:  "load.sample_size must be > 0",
		})
	}
	if l.MaxRejectDetails < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "load.max_reject_details",
			Message:  "load.max_reject_details must be >= 0",
		})
	}
	return issues
}

func validateMetrics(m MetricsSettings) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend),
		})
	}
	return issues
}

func validateLog(l LogSettings) []Issue {
	var issues []Issue
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  fmt.Sprintf("invalid log level %q", l.Level),
		})
	}
	switch l.Format {
	case "json", "console":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; using console", l.Format),
		})
	}
	return issues
}
