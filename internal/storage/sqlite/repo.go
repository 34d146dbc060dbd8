// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. SQLite has no bulk-load API like Postgres COPY; rows are
// inserted through one prepared statement inside a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
	sqliteddl "loadctl/internal/storage/sqlite/ddl"
	"loadctl/internal/storage/sqlbase"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	*sqlbase.Repository
	cfg Config
}

// NewRepository opens a SQLite database and returns a Repository plus a
// Close function for cleanup.
//
// DSN is passed directly to database/sql; for example:
//
//	"file:loadctl.db?_pragma=foreign_keys(1)"
//	"loadctl.db"
func NewRepository(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{Repository: sqlbase.New(db, dialect{}, cfg.Schema, logger), cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into table using a single transaction and a prepared
// INSERT statement. Nothing is committed if any row fails.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqliteddl.QuoteFQN(r.Qualify(table)),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// dialect is the SQLite flavour of sqlbase.Dialect.
type dialect struct{}

func (dialect) Name() string                  { return "sqlite" }
func (dialect) QuoteFQN(table string) string  { return sqliteddl.QuoteFQN(table) }
func (dialect) QuoteIdent(name string) string { return sqliteddl.QuoteIdent(name) }
func (dialect) Placeholder(int) string        { return "?" }
func (dialect) MapType(t schema.Type) string  { return sqliteddl.MapType(t) }
func (dialect) TruncateSQL(fqn string) string { return "DELETE FROM " + fqn }

// MaxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32 and later.
func (dialect) MaxParams() int { return 32766 }

func (dialect) CreateTableSQL(def gddl.TableDef) (string, error) {
	return sqliteddl.BuildCreateTableSQL(def)
}

func (dialect) AddColumnSQL(table string, col gddl.ColumnDef) (string, error) {
	return sqliteddl.BuildAddColumnSQL(table, col)
}

// ColumnsQuery reads pragma_table_info, which yields no rows for a missing
// table. A qualified name selects the attached database.
func (dialect) ColumnsQuery(table string) (string, []any) {
	parts := gddl.SplitFQN(table)
	if len(parts) == 2 {
		return "SELECT name, type FROM pragma_table_info(?, ?) ORDER BY cid", []any{parts[1], parts[0]}
	}
	return "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", []any{strings.TrimSpace(table)}
}
