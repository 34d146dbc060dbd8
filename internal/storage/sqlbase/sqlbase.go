// Package sqlbase implements storage.Repository on top of database/sql for
// backends whose drivers expose it (mssql, mysql, sqlite, snowflake). The
// SQL that differs between engines comes from a Dialect.
package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/logging"
	"loadctl/internal/schema"
	"loadctl/internal/storage"
)

// Dialect supplies engine-specific SQL.
type Dialect interface {
	// Name is used as the error prefix, e.g. "mysql".
	Name() string
	// QuoteFQN quotes a possibly schema-qualified table name.
	QuoteFQN(table string) string
	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// MapType maps a logical type to the engine's column type.
	MapType(t schema.Type) string
	// CreateTableSQL renders CREATE TABLE for def.
	CreateTableSQL(def gddl.TableDef) (string, error)
	// AddColumnSQL renders ALTER TABLE ... ADD for one column.
	AddColumnSQL(table string, col gddl.ColumnDef) (string, error)
	// ColumnsQuery returns a query yielding (name, declared type) rows in
	// ordinal order; no rows means the table does not exist.
	ColumnsQuery(table string) (string, []any)
	// TruncateSQL empties table.
	TruncateSQL(table string) string
	// MaxParams is the bind-parameter limit of one statement.
	MaxParams() int
}

// maxRowsPerInsert caps the VALUES list of a multi-row INSERT.
const maxRowsPerInsert = 1000

// Repository is a database/sql backed storage.Repository. Backends embed it
// and override methods where the engine has a better primitive.
type Repository struct {
	DB      *sql.DB
	Dialect Dialect
	Schema  string
	Logger  *zap.Logger
}

// New wraps an open *sql.DB.
func New(db *sql.DB, d Dialect, schemaName string, logger *zap.Logger) *Repository {
	return &Repository{DB: db, Dialect: d, Schema: schemaName, Logger: logging.OrNop(logger)}
}

// Qualify applies the configured schema to an unqualified table name.
func (r *Repository) Qualify(table string) string { return gddl.Qualify(r.Schema, table) }

// TableExists implements storage.Repository.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return false, err
	}
	return len(cols) > 0, nil
}

// Columns implements storage.Repository.
func (r *Repository) Columns(ctx context.Context, table string) ([]storage.Field, error) {
	q, args := r.Dialect.ColumnsQuery(r.Qualify(table))
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: columns of %s: %w", r.Dialect.Name(), table, err)
	}
	defer rows.Close()

	var out []storage.Field
	for rows.Next() {
		var name, decl string
		if err := rows.Scan(&name, &decl); err != nil {
			return nil, fmt.Errorf("%s: scan column: %w", r.Dialect.Name(), err)
		}
		out = append(out, storage.Field{Name: name, Type: schema.FromSQLType(decl)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: columns of %s: %w", r.Dialect.Name(), table, err)
	}
	return out, nil
}

// TableDef maps fields to a nullable-column table definition.
func (r *Repository) TableDef(table string, fields []storage.Field) gddl.TableDef {
	def := gddl.TableDef{FQN: r.Qualify(table), Columns: make([]gddl.ColumnDef, 0, len(fields))}
	for _, f := range fields {
		def.Columns = append(def.Columns, gddl.ColumnDef{
			Name:     f.Name,
			SQLType:  r.Dialect.MapType(f.Type),
			Nullable: true,
		})
	}
	return def
}

// CreateTable implements storage.Repository.
func (r *Repository) CreateTable(ctx context.Context, table string, fields []storage.Field) error {
	stmt, err := r.Dialect.CreateTableSQL(r.TableDef(table, fields))
	if err != nil {
		return err
	}
	r.Logger.Debug("create table", zap.String("table", table), zap.String("sql", stmt))
	if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: create table %s: %w", r.Dialect.Name(), table, err)
	}
	return nil
}

// AddColumns implements storage.Repository.
func (r *Repository) AddColumns(ctx context.Context, table string, fields []storage.Field) error {
	def := r.TableDef(table, fields)
	for _, c := range def.Columns {
		stmt, err := r.Dialect.AddColumnSQL(def.FQN, c)
		if err != nil {
			return err
		}
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: add column %s to %s: %w", r.Dialect.Name(), c.Name, table, err)
		}
	}
	return nil
}

// RowCount implements storage.Repository.
func (r *Repository) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + r.Dialect.QuoteFQN(r.Qualify(table))
	if err := r.DB.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count %s: %w", r.Dialect.Name(), table, err)
	}
	return n, nil
}

// Truncate implements storage.Repository.
func (r *Repository) Truncate(ctx context.Context, table string) error {
	q := r.Dialect.TruncateSQL(r.Dialect.QuoteFQN(r.Qualify(table)))
	if _, err := r.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("%s: truncate %s: %w", r.Dialect.Name(), table, err)
	}
	return nil
}

// CopyFrom implements storage.Repository with multi-row INSERT statements
// inside one transaction, batched to stay under the dialect's parameter
// limit.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: copy: columns must not be empty", r.Dialect.Name())
	}
	if len(rows) == 0 {
		return 0, nil
	}

	batchSize := r.Dialect.MaxParams() / len(columns)
	if batchSize > maxRowsPerInsert {
		batchSize = maxRowsPerInsert
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("%s: copy: %d columns exceed the parameter limit", r.Dialect.Name(), len(columns))
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", r.Dialect.Name(), err)
	}

	fqn := r.Dialect.QuoteFQN(r.Qualify(table))
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = r.Dialect.QuoteIdent(c)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", fqn, strings.Join(quoted, ", "))

	total, err := InsertBatches(ctx, r.Logger, rows, batchSize, func(ctx context.Context, batch [][]any) (int64, error) {
		stmt, args, err := r.insertSQL(prefix, len(columns), batch)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			// Some drivers do not report affected rows for INSERT.
			return int64(len(batch)), nil
		}
		return n, nil
	})
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%s: insert into %s: %w", r.Dialect.Name(), table, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", r.Dialect.Name(), err)
	}
	return total, nil
}

func (r *Repository) insertSQL(prefix string, width int, batch [][]any) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(prefix)
	args := make([]any, 0, len(batch)*width)
	n := 1
	for i, row := range batch {
		if len(row) != width {
			return "", nil, fmt.Errorf("row length %d != columns length %d", len(row), width)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.Dialect.Placeholder(n))
			n++
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

// BatchFn inserts one batch and reports how many rows it inserted.
type BatchFn func(ctx context.Context, batch [][]any) (int64, error)

// InsertBatches splits rows into batches of batchSize and calls fn for each,
// stopping at the first error or when ctx is done. Progress is logged at
// debug level after every batch.
func InsertBatches(ctx context.Context, logger *zap.Logger, rows [][]any, batchSize int, fn BatchFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	logger = logging.OrNop(logger)

	var (
		total   int64
		batches int
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := lo + batchSize
		if hi > len(rows) {
			hi = len(rows)
		}
		n, err := fn(ctx, rows[lo:hi])
		total += n
		if err != nil {
			logger.Warn("insert batch failed",
				zap.Int("batch", batches+1), zap.Int64("total_inserted", total), zap.Error(err))
			return total, err
		}
		batches++
		elapsed := time.Since(start)
		rps := float64(0)
		if elapsed > 0 {
			rps = float64(total) / elapsed.Seconds()
		}
		logger.Debug("insert batch",
			zap.Int("batch", batches),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", total),
			zap.Float64("rps", rps),
			zap.Duration("elapsed", elapsed.Truncate(time.Millisecond)),
		)
	}
	return total, nil
}
