package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validSettings() Settings {
	return Settings{
		Mapping:   MappingSettings{Path: "config/table_mapping.json"},
		Blob:      BlobSettings{Kind: "local", Dir: "data"},
		Warehouse: WarehouseSettings{Kind: "sqlite", DSN: ":memory:"},
		Load:      LoadSettings{SampleSize: 100, MaxRejectDetails: 3},
		Metrics:   MetricsSettings{Backend: "none"},
		Log:       LogSettings{Level: "info", Format: "console"},
	}
}

func TestValidate_ValidMinimal(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Validate(validSettings()))
}

func TestValidate_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		sev     IssueSeverity
		path    string
		msgPart string
	}{
		{
			name:    "empty mapping path",
			mutate:  func(s *Settings) { s.Mapping.Path = " " },
			sev:     SeverityError,
			path:    "mapping.path",
			msgPart: "must not be empty",
		},
		{
			name:    "azure without container",
			mutate:  func(s *Settings) { s.Blob = BlobSettings{Kind: "azure", ConnectionString: "x"} },
			sev:     SeverityError,
			path:    "blob.container",
			msgPart: "requires a container",
		},
		{
			name:    "azure without credentials",
			mutate:  func(s *Settings) { s.Blob = BlobSettings{Kind: "azure", Container: "c"} },
			sev:     SeverityError,
			path:    "blob.connection_string",
			msgPart: "account_url",
		},
		{
			name:    "gcs without bucket",
			mutate:  func(s *Settings) { s.Blob = BlobSettings{Kind: "gcs"} },
			sev:     SeverityError,
			path:    "blob.bucket",
			msgPart: "requires a bucket",
		},
		{
			name:    "unknown blob kind",
			mutate:  func(s *Settings) { s.Blob.Kind = "s3" },
			sev:     SeverityError,
			path:    "blob.kind",
			msgPart: `unknown blob kind "s3"`,
		},
		{
			name:    "negative blob retries",
			mutate:  func(s *Settings) { s.Blob.MaxRetries = -1 },
			sev:     SeverityError,
			path:    "blob.max_retries",
			msgPart: ">= 0",
		},
		{
			name:    "unknown warehouse",
			mutate:  func(s *Settings) { s.Warehouse.Kind = "oracle" },
			sev:     SeverityError,
			path:    "warehouse.kind",
			msgPart: "unknown warehouse kind",
		},
		{
			name:    "sqlite schema warning",
			mutate:  func(s *Settings) { s.Warehouse.Schema = "main" },
			sev:     SeverityWarning,
			path:    "warehouse.schema",
			msgPart: "no schemas",
		},
		{
			name:    "zero sample size",
			mutate:  func(s *Settings) { s.Load.SampleSize = 0 },
			sev:     SeverityError,
			path:    "load.sample_size",
			msgPart: "> 0",
		},
		{
			name:    "pushgateway without url",
			mutate:  func(s *Settings) { s.Metrics.Backend = "pushgateway" },
			sev:     SeverityError,
			path:    "metrics.pushgateway_url",
			msgPart: "requires pushgateway_url",
		},
		{
			name:    "unknown metrics backend",
			mutate:  func(s *Settings) { s.Metrics.Backend = "graphite" },
			sev:     SeverityWarning,
			path:    "metrics.backend",
			msgPart: "metrics disabled",
		},
		{
			name:    "bad log level",
			mutate:  func(s *Settings) { s.Log.Level = "loud" },
			sev:     SeverityError,
			path:    "log.level",
			msgPart: "invalid log level",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(&s)
			issues := Validate(s)
			assert.Truef(t, hasIssue(issues, tt.sev, tt.path, tt.msgPart), "missing %s at %s; got %+v", tt.sev, tt.path, issues)
		})
	}
}

func TestHasErrors(t *testing.T) {
	t.Parallel()
	assert.False(t, HasErrors([]Issue{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}
