package gcs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadctl/internal/blob"
)

type fakeBucket struct {
	objects map[string]string
	closed  bool
}

func (f *fakeBucket) list(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeBucket) read(_ context.Context, name string) ([]byte, error) {
	v, ok := f.objects[name]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return []byte(v), nil
}

func (f *fakeBucket) close() error {
	f.closed = true
	return nil
}

func TestStore(t *testing.T) {
	t.Parallel()

	fake := &fakeBucket{objects: map[string]string{
		"exports/2024/orders.csv": "id\n1\n",
		"exports/2024/items.csv":  "id\n",
		"other.csv":               "",
	}}
	s := &Store{api: fake, bucket: "warehouse-drop", prefix: "exports/2024/"}
	ctx := context.Background()

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"items.csv", "orders.csv"}, names)

	name, err := blob.Resolve(ctx, s, "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", name)

	b, err := s.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(b))

	_, err = s.Get(ctx, "other.csv")
	require.ErrorIs(t, err, blob.ErrNotFound)
	assert.Contains(t, err.Error(), "gs://warehouse-drop/exports/2024/other.csv")

	require.NoError(t, s.Close())
	assert.True(t, fake.closed)
}

func TestNew_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), blob.Config{Kind: "gcs"})
	assert.ErrorContains(t, err, "bucket is required")
}
