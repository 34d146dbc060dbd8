package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadctl/internal/schema"
)

// fakeRepo is an in-memory Repository for tests.
type fakeRepo struct {
	tables    map[string][]Field
	created   []string
	added     []Field
	existsErr error
	closed    bool
}

func (f *fakeRepo) TableExists(_ context.Context, table string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.tables[strings.ToLower(table)]
	return ok, nil
}

func (f *fakeRepo) Columns(_ context.Context, table string) ([]Field, error) {
	return f.tables[strings.ToLower(table)], nil
}

func (f *fakeRepo) CreateTable(_ context.Context, table string, fields []Field) error {
	if f.tables == nil {
		f.tables = map[string][]Field{}
	}
	f.tables[strings.ToLower(table)] = fields
	f.created = append(f.created, table)
	return nil
}

func (f *fakeRepo) AddColumns(_ context.Context, table string, fields []Field) error {
	key := strings.ToLower(table)
	f.tables[key] = append(f.tables[key], fields...)
	f.added = append(f.added, fields...)
	return nil
}

func (f *fakeRepo) CopyFrom(context.Context, string, []string, [][]any) (int64, error) { return 0, nil }
func (f *fakeRepo) RowCount(context.Context, string) (int64, error)                    { return 0, nil }
func (f *fakeRepo) Truncate(context.Context, string) error                             { return nil }
func (f *fakeRepo) Close()                                                             { f.closed = true }

func TestRegisterAndNew(t *testing.T) {
	t.Parallel()

	Register("fake", func(_ context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "fake"})
	require.NoError(t, err)
	repo.Close()
	assert.True(t, repo.(*fakeRepo).closed)
	assert.Contains(t, Kinds(), "fake")

	_, err = New(context.Background(), Config{Kind: "oracle"})
	assert.ErrorContains(t, err, `kind="oracle"`)
}

func TestRegister_FactoryError(t *testing.T) {
	t.Parallel()

	Register("broken", func(context.Context, Config) (Repository, error) {
		return nil, errors.New("dial tcp: refused")
	})
	_, err := New(context.Background(), Config{Kind: "broken"})
	assert.ErrorContains(t, err, "refused")
}

func TestEnsureTable_Creates(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	want := []Field{{Name: "id", Type: schema.Integer}, {Name: "name", Type: schema.Text}}

	got, err := EnsureTable(context.Background(), repo, "ORDERS", want)
	require.NoError(t, err)
	assert.True(t, got.Created)
	assert.Empty(t, got.Added)
	assert.Equal(t, []string{"ORDERS"}, repo.created)
	assert.Equal(t, schema.Integer, got.Types["id"].Type)
}

func TestEnsureTable_AddsMissingKeepsDeclared(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{tables: map[string][]Field{
		"orders": {{Name: "ID", Type: schema.Text}, {Name: "amount", Type: schema.Float}},
	}}
	want := []Field{
		{Name: "id", Type: schema.Integer},
		{Name: "amount", Type: schema.Integer},
		{Name: "note", Type: schema.Text},
	}

	got, err := EnsureTable(context.Background(), repo, "orders", want)
	require.NoError(t, err)
	assert.False(t, got.Created)
	assert.Equal(t, []string{"note"}, got.Added)
	assert.Equal(t, []Field{{Name: "note", Type: schema.Text}}, repo.added)

	assert.Equal(t, schema.Text, got.Types["id"].Type, "declared type wins over inferred")
	assert.Equal(t, "ID", got.Types["id"].Name)
	assert.Equal(t, schema.Float, got.Types["amount"].Type)
	assert.Equal(t, schema.Text, got.Types["note"].Type)
}

func TestEnsureTable_Error(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{existsErr: errors.New("connection reset")}
	_, err := EnsureTable(context.Background(), repo, "t", []Field{{Name: "a", Type: schema.Text}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check table t")
}
