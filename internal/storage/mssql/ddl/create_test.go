package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
)

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "dbo.Users", want: "[dbo].[Users]"},
		{in: "Users", want: "[Users]"},
		{in: "a.b.c", want: "[a].[b].[c]"},
		{in: "dbo.user]table", want: "[dbo].[user]]table]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QuoteFQN(tt.in), tt.in)
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN: "dbo.ORDERS",
		Columns: []gddl.ColumnDef{
			{Name: "order_id", SQLType: MapType(schema.Integer), Nullable: true},
			{Name: "customer's", SQLType: MapType(schema.Text), Nullable: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "IF OBJECT_ID(N'[dbo].[ORDERS]', N'U') IS NULL\nBEGIN\n"+
		"  CREATE TABLE [dbo].[ORDERS] (\n"+
		"    [order_id] BIGINT,\n"+
		"    [customer's] NVARCHAR(MAX)\n"+
		"  );\nEND;", got)

	_, err = BuildCreateTableSQL(gddl.TableDef{FQN: "t"})
	assert.ErrorContains(t, err, "mssql ddl: at least one column is required")
}

func TestBuildCreateTableSQL_QuotesNameInGuard(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{FQN: "o'brien", Columns: []gddl.ColumnDef{{Name: "id", SQLType: "BIGINT"}}})
	require.NoError(t, err)
	assert.Contains(t, got, "OBJECT_ID(N'[o''brien]', N'U')")
	assert.Contains(t, got, "CREATE TABLE [o'brien]")
}

func TestBuildAddColumnsSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildAddColumnsSQL("dbo.orders", []gddl.ColumnDef{
		{Name: "region", SQLType: "NVARCHAR(MAX)", Nullable: true},
		{Name: "shipped", SQLType: "DATE", Nullable: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE [dbo].[orders] ADD [region] NVARCHAR(MAX), [shipped] DATE", got)
}

func TestMapType_RoundTrips(t *testing.T) {
	t.Parallel()

	for _, typ := range []schema.Type{schema.Text, schema.Integer, schema.Float, schema.Boolean, schema.Date, schema.Timestamp} {
		assert.Equal(t, typ, schema.FromSQLType(MapType(typ)), typ)
	}
}
