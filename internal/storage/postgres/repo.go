// Package postgres implements a Postgres repository using pgx v5. Rows are
// loaded with COPY inside a transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/logging"
	"loadctl/internal/schema"
	"loadctl/internal/storage"
	pgddl "loadctl/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN    string // connection string for pgxpool
	Schema string // qualifies unqualified table names, e.g. "public"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool   *pgxpool.Pool
	cfg    Config
	logger *zap.Logger
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg, logger: logging.OrNop(logger)}, closeFn, nil
}

func (r *Repository) qualify(table string) string { return gddl.Qualify(r.cfg.Schema, table) }

// TableExists implements storage.Repository.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", pgFQN(r.qualify(table))).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("postgres: lookup %s: %w", table, err)
	}
	return ok, nil
}

// Columns implements storage.Repository using format_type, which renders
// declared types the way they were written ("bigint", "timestamp without
// time zone", "character varying(40)").
func (r *Repository) Columns(ctx context.Context, table string) ([]storage.Field, error) {
	const q = `SELECT a.attname, format_type(a.atttypid, a.atttypmod)
  FROM pg_attribute a
 WHERE a.attrelid = to_regclass($1) AND a.attnum > 0 AND NOT a.attisdropped
 ORDER BY a.attnum`

	rows, err := r.pool.Query(ctx, q, pgFQN(r.qualify(table)))
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s: %w", table, err)
	}
	defer rows.Close()

	var out []storage.Field
	for rows.Next() {
		var name, decl string
		if err := rows.Scan(&name, &decl); err != nil {
			return nil, fmt.Errorf("postgres: scan column: %w", err)
		}
		out = append(out, storage.Field{Name: name, Type: schema.FromSQLType(decl)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: columns of %s: %w", table, err)
	}
	return out, nil
}

// columnDefs maps fields to nullable Postgres columns.
func columnDefs(fields []storage.Field) []gddl.ColumnDef {
	defs := make([]gddl.ColumnDef, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, gddl.ColumnDef{Name: f.Name, SQLType: pgddl.MapType(f.Type), Nullable: true})
	}
	return defs
}

// CreateTable implements storage.Repository.
func (r *Repository) CreateTable(ctx context.Context, table string, fields []storage.Field) error {
	stmt, err := pgddl.BuildCreateTableSQL(gddl.TableDef{FQN: r.qualify(table), Columns: columnDefs(fields)})
	if err != nil {
		return err
	}
	r.logger.Debug("create table", zap.String("table", table), zap.String("sql", stmt))
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", table, describe(err))
	}
	return nil
}

// AddColumns implements storage.Repository with a single ALTER TABLE.
func (r *Repository) AddColumns(ctx context.Context, table string, fields []storage.Field) error {
	stmt, err := pgddl.BuildAddColumnsSQL(r.qualify(table), columnDefs(fields))
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: add columns to %s: %w", table, describe(err))
	}
	return nil
}

// CopyFrom implements storage.Repository: one COPY inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: copy: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, splitFQN(r.qualify(table)), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, describe(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", describe(err))
	}
	r.logger.Debug("copy complete", zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}

// RowCount implements storage.Repository.
func (r *Repository) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgFQN(r.qualify(table))).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count %s: %w", table, describe(err))
	}
	return n, nil
}

// Truncate implements storage.Repository.
func (r *Repository) Truncate(ctx context.Context, table string) error {
	if _, err := r.pool.Exec(ctx, "TRUNCATE TABLE "+pgFQN(r.qualify(table))); err != nil {
		return fmt.Errorf("postgres: truncate %s: %w", table, describe(err))
	}
	return nil
}

// describe folds the server's detail and SQLSTATE into the message while
// keeping the *pgconn.PgError reachable through errors.As.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s; SQLSTATE %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return pgddl.QuoteIdent(id) }

// pgFQN quotes a possibly schema-qualified name like "public.orders" to
// "public"."orders". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := gddl.SplitFQN(name)
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	return pgx.Identifier(gddl.SplitFQN(fqn))
}
