package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadctl/internal/errs"
)

func TestParse_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "json array",
			format: FormatJSON,
			data:   `[{"source_file_name":"orders.csv","destination_table":"ORDERS","expected_columns":["Order ID","amount"],"primary_key":["order_id"]}]`,
		},
		{
			name:   "json object",
			format: FormatJSON,
			data:   `{"tables":[{"source_file_name":"orders.csv","destination_table":"ORDERS","expected_columns":["Order ID","amount"],"primary_key":["order_id"]}]}`,
		},
		{
			name:   "yaml list",
			format: FormatYAML,
			data: `
- source_file_name: orders.csv
  destination_table: ORDERS
  expected_columns: [Order ID, amount]
  primary_key: [order_id]
`,
		},
		{
			name:   "yaml object",
			format: FormatYAML,
			data: `
tables:
  - source_file_name: " orders.csv "
    destination_table: ORDERS
    expected_columns: [Order ID, amount]
    primary_key: [order_id]
`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, m.Tables, 1)

			got := m.Tables[0]
			assert.Equal(t, "orders.csv", got.SourceFileName)
			assert.Equal(t, "ORDERS", got.DestinationTable)
			assert.Equal(t, []string{"Order ID", "amount"}, got.ExpectedColumns)
			assert.Equal(t, []string{"order_id"}, got.PrimaryKey)
		})
	}
}

func TestParse_OptionalFields(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(`[
		{"source_file_name":"a.csv","destination_table":"A","header_renames":{"Cust #":"customer_number"},"estimated_row_count":1200},
		{"source_file_name":"b","destination_table":"B"}
	]`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, m.Tables, 2)

	assert.Equal(t, map[string]string{"Cust #": "customer_number"}, m.Tables[0].HeaderRenames)
	assert.Equal(t, 1200, m.Tables[0].EstimatedRowCount)
	assert.Empty(t, m.Tables[1].ExpectedColumns)
	assert.Empty(t, m.Tables[1].PrimaryKey)

	b, ok := m.Table("b")
	require.True(t, ok)
	assert.Equal(t, "b", b.SourceFileName)
	_, ok = m.Table("missing")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		data   string
		want   string
	}{
		{name: "empty", format: FormatJSON, data: "  ", want: "mapping is empty"},
		{name: "malformed json", format: FormatJSON, data: `[{"source_file_name":`},
		{name: "malformed yaml", format: FormatYAML, data: "tables: [\n"},
		{name: "unknown field", format: FormatJSON, data: `[{"source_file_name":"a","destination_table":"A","primary_keys":["x"]}]`, want: "primary_keys"},
		{name: "unknown yaml field", format: FormatYAML, data: "- source_file_name: a\n  destination: A\n", want: "destination"},
		{name: "trailing data", format: FormatJSON, data: `[] []`, want: "unexpected data"},
		{name: "missing source", format: FormatJSON, data: `[{"destination_table":"A"}]`, want: "source_file_name is required"},
		{name: "missing destination", format: FormatJSON, data: `[{"source_file_name":"a.csv","destination_table":"  "}]`, want: "destination_table is required"},
		{
			name:   "duplicate destination",
			format: FormatJSON,
			data:   `[{"source_file_name":"a.csv","destination_table":"Orders"},{"source_file_name":"b.csv","destination_table":"ORDERS"}]`,
			want:   "already used by tables[0]",
		},
		{
			name:   "key not expected",
			format: FormatJSON,
			data:   `[{"source_file_name":"a.csv","destination_table":"A","expected_columns":["id"],"primary_key":["uuid"]}]`,
			want:   `primary_key column "uuid"`,
		},
		{name: "yaml scalar", format: FormatYAML, data: "hello", want: "must be a list"},
		{
			name:   "legacy source disagrees",
			format: FormatJSON,
			data:   `[{"source_file_name":"a.csv","azure_csv_name":"b","destination_table":"A"}]`,
			want:   "disagree",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.Equal(t, errs.ConfigError, errs.KindOf(err))
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestParse_SnowflakeEraKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "json",
			format: FormatJSON,
			data: `[
  {"azure_csv_name": "orders", "snowflake_table": "ORDERS", "snowflake_database": "SALES.PUBLIC", "estimated_row_count": 120},
  {"azure_csv_name": "customers", "snowflake_table": "CUSTOMERS"}
]`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			data: `
- azure_csv_name: orders
  snowflake_table: ORDERS
  snowflake_database: SALES.PUBLIC
  estimated_row_count: 120
- azure_csv_name: customers
  snowflake_table: CUSTOMERS
`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, []TableMapping{
				{SourceFileName: "orders", DestinationTable: "SALES.PUBLIC.ORDERS", EstimatedRowCount: 120},
				{SourceFileName: "customers", DestinationTable: "CUSTOMERS"},
			}, m.Tables)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "table_mapping.json")
	yamlPath := filepath.Join(dir, "table_mapping.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"source_file_name":"a.csv","destination_table":"A"}]`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("tables:\n  - source_file_name: a.csv\n    destination_table: A\n"), 0o644))

	for _, p := range []string{jsonPath, yamlPath} {
		m, err := Load(p)
		require.NoError(t, err, p)
		require.Len(t, m.Tables, 1)
		assert.Equal(t, "A", m.Tables[0].DestinationTable)
	}

	_, err := Load(filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	assert.Equal(t, errs.ConfigError, errs.KindOf(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatYAML, FormatFromPath("m.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("dir/m.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("m.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("mapping"))
}
