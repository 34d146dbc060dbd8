package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local is a Store over a directory on the local disk. Object names are
// slash-separated paths relative to the root.
type Local struct{ root string }

// NewLocal returns a Local store rooted at dir.
func NewLocal(dir string) *Local { return &Local{root: dir} }

func init() {
	Register("local", func(_ context.Context, cfg Config) (Store, error) {
		if strings.TrimSpace(cfg.Dir) == "" {
			return nil, errors.New("blob local: dir is required")
		}
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("blob local: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("blob local: %s is not a directory", cfg.Dir)
		}
		return NewLocal(cfg.Dir), nil
	})
}

// List walks the root directory and returns regular files under prefix.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.root, err)
	}
	sort.Strings(out)
	return out, nil
}

// Get reads the named file. If the context is already done, Get returns the
// context error without touching the filesystem.
func (l *Local) Get(ctx context.Context, name string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("get %q: invalid object name", name)
	}
	b, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("get %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return b, nil
}

// Close is a no-op.
func (l *Local) Close() error { return nil }
