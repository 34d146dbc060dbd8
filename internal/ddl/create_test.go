package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dq(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

func TestColumnClauses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		want        []string
		errContains string
	}{
		{
			name:        "empty FQN",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns",
			def:         TableDef{FQN: "public.t"},
			errContains: "at least one column is required",
		},
		{
			name:        "empty column name",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "empty column type",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "column id missing SQLType",
		},
		{
			name: "nullable, defaults and keys",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "id", SQLType: "BIGINT", Nullable: true, PrimaryKey: true},
				{Name: "note", SQLType: "TEXT", Nullable: true, Default: "'n/a'"},
				{Name: `we"ird`, SQLType: "TEXT"},
			}},
			want: []string{
				`"id" BIGINT NOT NULL`,
				`"note" TEXT DEFAULT 'n/a'`,
				`"we""ird" TEXT NOT NULL`,
				`PRIMARY KEY ("id")`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ColumnClauses("test ddl", tt.def, dq)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.True(t, strings.HasPrefix(err.Error(), "test ddl: "))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"public"."orders"`, QuoteFQN("public.orders", dq))
	assert.Equal(t, `"ORDERS"`, QuoteFQN(" ORDERS ", dq))
	assert.Equal(t, `"a"."b"`, QuoteFQN("a..b", dq))
	assert.Equal(t, []string{"db", "sch", "t"}, SplitFQN("db.sch.t"))
}

func TestQualify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "public.orders", Qualify("public", "orders"))
	assert.Equal(t, "raw.orders", Qualify("public", "raw.orders"))
	assert.Equal(t, "orders", Qualify("", "orders"))
}
