// Package mapping reads the table mapping: which source object loads into
// which destination table, the columns expected in it and an optional
// primary key.
//
// The file is JSON or YAML, either a top-level list of entries or an object
// with a "tables" list:
//
//	[
//	  {
//	    "source_file_name": "orders.csv",
//	    "destination_table": "ORDERS",
//	    "expected_columns": ["order_id", "amount"],
//	    "primary_key": ["order_id"]
//	  }
//	]
//
// Entries written for the older Snowflake loader (azure_csv_name,
// snowflake_table, snowflake_database) are accepted as well.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"loadctl/internal/errs"
	"loadctl/internal/normalize"
)

// Format is the serialization of a mapping file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension; anything other
// than .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// TableMapping describes one source object and its destination table.
type TableMapping struct {
	SourceFileName   string   `json:"source_file_name" yaml:"source_file_name"`
	DestinationTable string   `json:"destination_table" yaml:"destination_table"`
	ExpectedColumns  []string `json:"expected_columns,omitempty" yaml:"expected_columns,omitempty"`
	PrimaryKey       []string `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`

	// HeaderRenames replaces raw header names before they are normalized,
	// e.g. {"Cust #": "customer_number"}.
	HeaderRenames map[string]string `json:"header_renames,omitempty" yaml:"header_renames,omitempty"`

	// EstimatedRowCount is informational and only reported.
	EstimatedRowCount int `json:"estimated_row_count,omitempty" yaml:"estimated_row_count,omitempty"`
}

// Mapping is the ordered set of table mappings for one run.
type Mapping struct {
	Tables []TableMapping `json:"tables" yaml:"tables"`
}

// Table returns the entry whose destination matches name, ignoring case.
func (m *Mapping) Table(name string) (TableMapping, bool) {
	for _, t := range m.Tables {
		if strings.EqualFold(t.DestinationTable, name) {
			return t, true
		}
	}
	return TableMapping{}, false
}

// Load reads and validates the mapping file at path. Every failure is an
// errs.ConfigError.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Errorf(errs.ConfigError, "load mapping", "mapping file %s not found", path)
		}
		return nil, errs.E(errs.ConfigError, "load mapping", err)
	}
	m, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates mapping content. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Mapping, error) {
	var (
		m   *Mapping
		err error
	)
	switch format {
	case FormatYAML:
		m, err = decodeYAML(data)
	default:
		m, err = decodeJSON(data)
	}
	if err != nil {
		return nil, errs.E(errs.ConfigError, "parse mapping", err)
	}
	for i := range m.Tables {
		m.Tables[i].SourceFileName = strings.TrimSpace(m.Tables[i].SourceFileName)
		m.Tables[i].DestinationTable = strings.TrimSpace(m.Tables[i].DestinationTable)
	}
	if err := m.validate(); err != nil {
		return nil, errs.E(errs.ConfigError, "validate mapping", err)
	}
	return m, nil
}

func decodeJSON(data []byte) (*Mapping, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("mapping is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	m := &Mapping{}
	var err error
	if trimmed[0] == '[' {
		err = dec.Decode(&m.Tables)
	} else {
		err = dec.Decode(m)
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after mapping document")
	}
	return m, nil
}

func decodeYAML(data []byte) (*Mapping, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, errors.New("mapping is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	m := &Mapping{}
	var err error
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		err = dec.Decode(&m.Tables)
	case yaml.MappingNode:
		err = dec.Decode(m)
	default:
		return nil, errors.New("mapping must be a list of tables or an object with a tables list")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// validate checks required fields, destination uniqueness and that primary
// key columns are among the expected columns.
func (m *Mapping) validate() error {
	var problems []string
	seen := make(map[string]int, len(m.Tables))

	for i, t := range m.Tables {
		at := fmt.Sprintf("tables[%d]", i)
		if t.SourceFileName == "" {
			problems = append(problems, at+": source_file_name is required")
		}
		if t.DestinationTable == "" {
			problems = append(problems, at+": destination_table is required")
		} else {
			key := strings.ToLower(t.DestinationTable)
			if j, dup := seen[key]; dup {
				problems = append(problems, fmt.Sprintf("%s: destination_table %q already used by tables[%d]", at, t.DestinationTable, j))
			} else {
				seen[key] = i
			}
		}

		if len(t.ExpectedColumns) == 0 {
			continue
		}
		expected := make(map[string]struct{}, len(t.ExpectedColumns))
		for _, c := range t.ExpectedColumns {
			expected[normalize.Identifier(c)] = struct{}{}
		}
		for _, k := range t.PrimaryKey {
			if _, ok := expected[normalize.Identifier(k)]; !ok {
				problems = append(problems, fmt.Sprintf("%s: primary_key column %q is not in expected_columns", at, k))
			}
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
