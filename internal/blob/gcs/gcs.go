// Package gcs implements blob.Store over a Google Cloud Storage bucket using
// application default credentials.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"loadctl/internal/blob"
)

// api is the subset of bucket operations the store needs.
type api interface {
	list(ctx context.Context, prefix string) ([]string, error)
	read(ctx context.Context, name string) ([]byte, error)
	close() error
}

// Store reads objects from one bucket, optionally under a name prefix.
type Store struct {
	api    api
	bucket string
	prefix string
}

var _ blob.Store = (*Store)(nil)

// newAPI is a test hook.
var newAPI = func(ctx context.Context, bucket string) (api, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &sdkBucket{client: c, bucket: c.Bucket(bucket)}, nil
}

func init() {
	blob.Register("gcs", func(ctx context.Context, cfg blob.Config) (blob.Store, error) {
		return New(ctx, cfg)
	})
}

// New builds a Store for cfg.Bucket.
func New(ctx context.Context, cfg blob.Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("blob gcs: bucket is required")
	}
	a, err := newAPI(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	return &Store{api: a, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// List implements blob.Store. Returned names are relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.api.list(ctx, s.prefix+prefix)
	if err != nil {
		return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, s.prefix+prefix, err)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimPrefix(n, s.prefix))
	}
	sort.Strings(out)
	return out, nil
}

// Get implements blob.Store.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	b, err := s.api.read(ctx, s.prefix+name)
	if err != nil {
		return nil, fmt.Errorf("get gs://%s/%s: %w", s.bucket, s.prefix+name, err)
	}
	return b, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.api.close() }

type sdkBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func (b *sdkBucket) list(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		// Skip "directory" placeholder objects.
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (b *sdkBucket) read(ctx context.Context, name string) ([]byte, error) {
	r, err := b.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %v", blob.ErrNotFound, err)
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *sdkBucket) close() error { return b.client.Close() }
