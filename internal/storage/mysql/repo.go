// Package mysql implements a MySQL repository on top of sqlbase. Rows are
// loaded with multi-row INSERT statements inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
	myddl "loadctl/internal/storage/mysql/ddl"
	"loadctl/internal/storage/sqlbase"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver format, e.g. "user:pass@tcp(host:3306)/wh".
	DSN string
	// Schema is the database that qualifies unqualified table names. Empty
	// means the DSN's default database.
	Schema string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	*sqlbase.Repository
	cfg Config
}

// NewRepository parses the DSN, opens a pool and pings it. The returned
// function closes the pool.
func NewRepository(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, func(), error) {
	dc, err := mysqldrv.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	dc.ParseTime = true
	conn, err := mysqldrv.NewConnector(dc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return newWithDB(db, cfg, logger), func() { _ = db.Close() }, nil
}

func newWithDB(db *sql.DB, cfg Config, logger *zap.Logger) *Repository {
	return &Repository{Repository: sqlbase.New(db, dialect{}, cfg.Schema, logger), cfg: cfg}
}

// dialect is the MySQL flavour of sqlbase.Dialect.
type dialect struct{}

func (dialect) Name() string                  { return "mysql" }
func (dialect) QuoteFQN(table string) string  { return myddl.QuoteFQN(table) }
func (dialect) QuoteIdent(name string) string { return myddl.QuoteIdent(name) }
func (dialect) Placeholder(int) string        { return "?" }
func (dialect) MapType(t schema.Type) string  { return myddl.MapType(t) }
func (dialect) TruncateSQL(fqn string) string { return "TRUNCATE TABLE " + fqn }
func (dialect) MaxParams() int                { return 65535 }

func (dialect) CreateTableSQL(def gddl.TableDef) (string, error) {
	return myddl.BuildCreateTableSQL(def)
}

func (dialect) AddColumnSQL(table string, col gddl.ColumnDef) (string, error) {
	return myddl.BuildAddColumnsSQL(table, []gddl.ColumnDef{col})
}

// ColumnsQuery reads information_schema. An unqualified name is looked up in
// the connection's current database.
func (dialect) ColumnsQuery(table string) (string, []any) {
	const q = "SELECT COLUMN_NAME, COLUMN_TYPE FROM information_schema.COLUMNS " +
		"WHERE TABLE_SCHEMA = COALESCE(?, DATABASE()) AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"
	parts := gddl.SplitFQN(table)
	switch len(parts) {
	case 0:
		return q, []any{nil, ""}
	case 1:
		return q, []any{nil, parts[0]}
	default:
		return q, []any{parts[len(parts)-2], parts[len(parts)-1]}
	}
}
