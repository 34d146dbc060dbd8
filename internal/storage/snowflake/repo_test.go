package snowflake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loadctl/internal/storage"
)

func TestDialectColumnsQuery(t *testing.T) {
	t.Parallel()

	q, args := dialect{}.ColumnsQuery("orders")
	assert.Contains(t, q, "TABLE_SCHEMA = CURRENT_SCHEMA()")
	assert.Equal(t, []any{"orders"}, args)

	q, args = dialect{}.ColumnsQuery("RAW.PUBLIC.orders")
	assert.Contains(t, q, "TABLE_SCHEMA = ?")
	assert.Contains(t, q, "'NUMBER(' || NUMERIC_PRECISION")
	assert.Equal(t, []any{"orders", "PUBLIC"}, args)
}

func TestDialect(t *testing.T) {
	t.Parallel()

	d := dialect{}
	assert.Equal(t, `TRUNCATE TABLE "PUBLIC"."orders"`, d.TruncateSQL(d.QuoteFQN("PUBLIC.orders")))
	assert.Equal(t, "NUMBER(38,0)", d.MapType("integer"))
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: " "}, nil)
	assert.ErrorContains(t, err, "DSN must not be empty")
}

// TestStorageRegistration swaps the package hook, so it does not run in
// parallel.
func TestStorageRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(_ context.Context, cfg Config, _ *zap.Logger) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "snowflake", DSN: "u:p@acct/RAW/PUBLIC", Schema: "PUBLIC"})
	require.NoError(t, err)
	assert.Equal(t, "PUBLIC", gotCfg.Schema)
	repo.Close()
	assert.True(t, closed)
}
