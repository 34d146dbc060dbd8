// Package storage defines the warehouse contract used by the loader and the
// verifier, and a factory that backends register with at init time.
//
// Callers stay backend-agnostic:
//
//	import _ "loadctl/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn, Schema: "public"})
//	if err != nil { ... }
//	defer repo.Close()
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"loadctl/internal/schema"
)

// Config selects and configures a warehouse backend.
type Config struct {
	// Kind is the registered backend name, e.g. "postgres".
	Kind string
	// DSN is passed to the backend driver.
	DSN string
	// Schema qualifies table names that carry no schema of their own.
	Schema string
	// Logger receives backend diagnostics; nil disables them.
	Logger *zap.Logger
}

// Field is a column name with its logical type.
type Field struct {
	Name string
	Type schema.Type
}

// Repository is a destination warehouse. Table names are given as in the
// mapping ("orders" or "schema.orders"); backends quote them.
type Repository interface {
	// TableExists reports whether table exists.
	TableExists(ctx context.Context, table string) (bool, error)
	// Columns returns the table's columns in ordinal order, with declared
	// types mapped back to logical types.
	Columns(ctx context.Context, table string) ([]Field, error)
	// CreateTable creates table with nullable columns of the given types.
	CreateTable(ctx context.Context, table string, fields []Field) error
	// AddColumns appends nullable columns to an existing table.
	AddColumns(ctx context.Context, table string, fields []Field) error
	// CopyFrom inserts rows (aligned to columns) in a single transaction. On
	// error nothing is committed.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// RowCount returns the number of rows in table.
	RowCount(ctx context.Context, table string) (int64, error)
	// Truncate removes every row from table.
	Truncate(ctx context.Context, table string) error
	Close()
}

// Factory builds a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. It is typically
// called from backend packages' init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens the Repository registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind=%q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
