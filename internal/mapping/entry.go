package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// entry is the on-disk form of a TableMapping. Besides the current keys it
// accepts the keys of older Snowflake-era mapping files:
//
//	{"azure_csv_name": "orders", "snowflake_table": "ORDERS", "snowflake_database": "SALES.PUBLIC"}
//
// azure_csv_name becomes the source name (".csv" is tried during blob
// resolution), and snowflake_database qualifies snowflake_table.
type entry struct {
	SourceFileName    string            `json:"source_file_name" yaml:"source_file_name"`
	DestinationTable  string            `json:"destination_table" yaml:"destination_table"`
	ExpectedColumns   []string          `json:"expected_columns" yaml:"expected_columns"`
	PrimaryKey        []string          `json:"primary_key" yaml:"primary_key"`
	HeaderRenames     map[string]string `json:"header_renames" yaml:"header_renames"`
	EstimatedRowCount int               `json:"estimated_row_count" yaml:"estimated_row_count"`

	AzureCSVName      string `json:"azure_csv_name" yaml:"azure_csv_name"`
	SnowflakeTable    string `json:"snowflake_table" yaml:"snowflake_table"`
	SnowflakeDatabase string `json:"snowflake_database" yaml:"snowflake_database"`
}

var entryKeys = map[string]struct{}{
	"source_file_name": {}, "destination_table": {}, "expected_columns": {},
	"primary_key": {}, "header_renames": {}, "estimated_row_count": {},
	"azure_csv_name": {}, "snowflake_table": {}, "snowflake_database": {},
}

func (e entry) tableMapping() (TableMapping, error) {
	tm := TableMapping{
		SourceFileName:    e.SourceFileName,
		DestinationTable:  e.DestinationTable,
		ExpectedColumns:   e.ExpectedColumns,
		PrimaryKey:        e.PrimaryKey,
		HeaderRenames:     e.HeaderRenames,
		EstimatedRowCount: e.EstimatedRowCount,
	}
	if e.AzureCSVName != "" {
		if tm.SourceFileName != "" && tm.SourceFileName != e.AzureCSVName {
			return tm, fmt.Errorf("source_file_name %q and azure_csv_name %q disagree", tm.SourceFileName, e.AzureCSVName)
		}
		tm.SourceFileName = e.AzureCSVName
	}
	if e.SnowflakeTable != "" {
		table := e.SnowflakeTable
		if e.SnowflakeDatabase != "" && !strings.Contains(table, ".") {
			table = e.SnowflakeDatabase + "." + table
		}
		if tm.DestinationTable != "" && tm.DestinationTable != table {
			return tm, fmt.Errorf("destination_table %q and snowflake_table %q disagree", tm.DestinationTable, table)
		}
		tm.DestinationTable = table
	}
	return tm, nil
}

// UnmarshalJSON decodes one entry, rejecting unknown keys.
func (t *TableMapping) UnmarshalJSON(data []byte) error {
	var e entry
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return err
	}
	tm, err := e.tableMapping()
	if err != nil {
		return err
	}
	*t = tm
	return nil
}

// UnmarshalYAML decodes one entry, rejecting unknown keys.
func (t *TableMapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			k := node.Content[i]
			if _, ok := entryKeys[k.Value]; !ok {
				return fmt.Errorf("line %d: field %s not found in mapping entry", k.Line, k.Value)
			}
		}
	}
	var e entry
	if err := node.Decode(&e); err != nil {
		return err
	}
	tm, err := e.tableMapping()
	if err != nil {
		return err
	}
	*t = tm
	return nil
}
