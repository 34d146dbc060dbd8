// Package snowflake implements a Snowflake repository on top of sqlbase.
// Loads use multi-row INSERT inside one transaction.
package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
	sfddl "loadctl/internal/storage/snowflake/ddl"
	"loadctl/internal/storage/sqlbase"
)

// Config holds Snowflake repository configuration.
type Config struct {
	// DSN in gosnowflake format, e.g. "user:pass@account/db/schema?warehouse=wh".
	DSN string
	// Schema qualifies unqualified table names; empty means the session schema.
	Schema string
}

// Repository is a Snowflake-backed implementation of storage.Repository.
type Repository struct {
	*sqlbase.Repository
	cfg Config
}

// NewRepository validates the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, errors.New("snowflake: DSN must not be empty")
	}
	if _, err := sf.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("snowflake dsn: %w", err)
	}
	db, err := sql.Open("snowflake", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return newWithDB(db, cfg, logger), func() { _ = db.Close() }, nil
}

func newWithDB(db *sql.DB, cfg Config, logger *zap.Logger) *Repository {
	return &Repository{Repository: sqlbase.New(db, dialect{}, cfg.Schema, logger), cfg: cfg}
}

// dialect is the Snowflake flavour of sqlbase.Dialect.
type dialect struct{}

func (dialect) Name() string                  { return "snowflake" }
func (dialect) QuoteFQN(table string) string  { return sfddl.QuoteFQN(table) }
func (dialect) QuoteIdent(name string) string { return sfddl.QuoteIdent(name) }
func (dialect) Placeholder(int) string        { return "?" }
func (dialect) MapType(t schema.Type) string  { return sfddl.MapType(t) }
func (dialect) TruncateSQL(fqn string) string { return "TRUNCATE TABLE " + fqn }
func (dialect) MaxParams() int                { return 16384 }

func (dialect) CreateTableSQL(def gddl.TableDef) (string, error) {
	return sfddl.BuildCreateTableSQL(def)
}

func (dialect) AddColumnSQL(table string, col gddl.ColumnDef) (string, error) {
	return sfddl.BuildAddColumnsSQL(table, []gddl.ColumnDef{col})
}

// ColumnsQuery reads INFORMATION_SCHEMA.COLUMNS and rebuilds NUMBER(p,s)
// so integer columns map back to Integer.
func (dialect) ColumnsQuery(table string) (string, []any) {
	const sel = `SELECT COLUMN_NAME,
       CASE WHEN DATA_TYPE = 'NUMBER'
            THEN 'NUMBER(' || NUMERIC_PRECISION || ',' || NUMERIC_SCALE || ')'
            ELSE DATA_TYPE END
  FROM INFORMATION_SCHEMA.COLUMNS
 WHERE TABLE_NAME = ? AND `
	const order = " ORDER BY ORDINAL_POSITION"

	parts := gddl.SplitFQN(table)
	if len(parts) < 2 {
		name := ""
		if len(parts) == 1 {
			name = parts[0]
		}
		return sel + "TABLE_SCHEMA = CURRENT_SCHEMA()" + order, []any{name}
	}
	return sel + "TABLE_SCHEMA = ?" + order, []any{parts[len(parts)-1], parts[len(parts)-2]}
}
