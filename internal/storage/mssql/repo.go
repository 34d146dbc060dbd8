// Package mssql implements a Microsoft SQL Server repository. Rows are loaded
// with the go-mssqldb bulk copy API inside a transaction; everything else
// goes through sqlbase.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	"go.uber.org/zap"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
	msddl "loadctl/internal/storage/mssql/ddl"
	"loadctl/internal/storage/sqlbase"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
	// Schema qualifies unqualified table names, e.g. "dbo".
	Schema string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	*sqlbase.Repository
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return newWithDB(db, cfg, logger), closeFn, nil
}

func newWithDB(db *sql.DB, cfg Config, logger *zap.Logger) *Repository {
	return &Repository{Repository: sqlbase.New(db, dialect{}, cfg.Schema, logger), cfg: cfg}
}

// CopyFrom performs a bulk insert into table inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	target := msddl.QuoteFQN(r.Qualify(table))
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(target, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if len(rows[i]) != len(columns) {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: length %d != columns length %d", i, len(rows[i]), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// dialect is the T-SQL flavour of sqlbase.Dialect.
type dialect struct{}

func (dialect) Name() string                  { return "mssql" }
func (dialect) QuoteFQN(table string) string  { return msddl.QuoteFQN(table) }
func (dialect) QuoteIdent(name string) string { return msddl.QuoteIdent(name) }
func (dialect) Placeholder(n int) string      { return fmt.Sprintf("@p%d", n) }
func (dialect) MapType(t schema.Type) string  { return msddl.MapType(t) }
func (dialect) TruncateSQL(fqn string) string { return "TRUNCATE TABLE " + fqn }

// MaxParams stays one below the 2100 parameters SQL Server accepts per request.
func (dialect) MaxParams() int { return 2099 }

func (dialect) CreateTableSQL(def gddl.TableDef) (string, error) {
	return msddl.BuildCreateTableSQL(def)
}

func (dialect) AddColumnSQL(table string, col gddl.ColumnDef) (string, error) {
	return msddl.BuildAddColumnsSQL(table, []gddl.ColumnDef{col})
}

func (dialect) ColumnsQuery(table string) (string, []any) {
	const q = `SELECT c.name, t.name
  FROM sys.columns c
  JOIN sys.types t ON c.user_type_id = t.user_type_id
 WHERE c.object_id = OBJECT_ID(@p1, N'U')
 ORDER BY c.column_id`
	return q, []any{msddl.QuoteFQN(table)}
}
