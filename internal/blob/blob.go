// Package blob defines the read-only object store that holds source CSVs and
// a factory for the concrete backends.
//
// Backends register a constructor for their kind in init; importing
// loadctl/internal/blob/all makes every built-in kind available:
//
//	store, err := blob.New(ctx, blob.Config{Kind: "azure", Container: "cleaned"})
//	if err != nil { ... }
//	defer store.Close()
//	name, err := blob.Resolve(ctx, store, "orders")
package blob

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned (possibly wrapped) by Store.Get when the object
// does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Store lists and reads objects by name.
type Store interface {
	// List returns the names of objects starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get returns the full content of the named object.
	Get(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind string

	// Dir is the root directory of the local backend.
	Dir string

	// Container, ConnectionString and AccountURL configure Azure.
	Container        string
	ConnectionString string
	AccountURL       string

	// Bucket configures GCS.
	Bucket string

	// Prefix is prepended to object names by the remote backends.
	Prefix string
}

// Factory builds a Store from a Config.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New builds the Store registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob: no backend registered for kind=%q", cfg.Kind)
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

// Resolve finds the object that name refers to. It tries, in order, an exact
// match, name with a ".csv" suffix, and a case-insensitive match of either.
// It returns an error wrapping ErrNotFound when nothing matches.
func Resolve(ctx context.Context, s Store, name string) (string, error) {
	names, err := s.List(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list objects: %w", err)
	}

	candidates := []string{name}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		candidates = append(candidates, name+".csv")
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	for _, c := range candidates {
		if _, ok := set[c]; ok {
			return c, nil
		}
	}
	for _, c := range candidates {
		for _, n := range names {
			if strings.EqualFold(n, c) {
				return n, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
