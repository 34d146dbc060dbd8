package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
)

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "name", want: `"name"`},
		{in: "", want: `""`},
		{in: "user name", want: `"user name"`},
		{in: `weird"name`, want: `"weird""name"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QuoteIdent(tt.in), tt.in)
	}
	assert.Equal(t, `"main"."events"`, QuoteFQN(" .main..events. "))
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN: "main.orders",
		Columns: []gddl.ColumnDef{
			{Name: "order_id", SQLType: MapType(schema.Integer), Nullable: true},
			{Name: "amount", SQLType: MapType(schema.Float), Nullable: true},
			{Name: "shipped", SQLType: MapType(schema.Date), Nullable: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"main\".\"orders\" (\n"+
		"  \"order_id\" INTEGER,\n"+
		"  \"amount\" REAL,\n"+
		"  \"shipped\" DATE\n"+
		");", got)

	_, err = BuildCreateTableSQL(gddl.TableDef{FQN: "  ", Columns: []gddl.ColumnDef{{Name: "id", SQLType: "INTEGER"}}})
	assert.ErrorContains(t, err, "sqlite ddl: table FQN must not be empty")
}

func TestBuildAddColumnSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildAddColumnSQL("orders", gddl.ColumnDef{Name: "note", SQLType: "TEXT", Nullable: true})
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "orders" ADD COLUMN "note" TEXT`, got)
}

func TestMapType_RoundTrips(t *testing.T) {
	t.Parallel()

	for _, typ := range []schema.Type{schema.Text, schema.Integer, schema.Float, schema.Boolean, schema.Date, schema.Timestamp} {
		assert.Equal(t, typ, schema.FromSQLType(MapType(typ)), typ)
	}
}
