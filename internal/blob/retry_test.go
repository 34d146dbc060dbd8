package blob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first n calls with err, then serves data.
type flakyStore struct {
	failures int
	err      error
	calls    int
}

func (f *flakyStore) List(context.Context, string) ([]string, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []string{"orders.csv"}, nil
}

func (f *flakyStore) Get(context.Context, string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []byte("id\n1\n"), nil
}

func (f *flakyStore) Close() error { return nil }

func newTestRetry(s Store, retries int, waits *[]time.Duration) *retryStore {
	r := WithRetry(s, RetryConfig{MaxRetries: retries, InitialBackoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond}, nil).(*retryStore)
	r.wait = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return r
}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	fs := &flakyStore{failures: 3, err: errors.New("connection reset by peer")}
	r := newTestRetry(fs, 3, &waits)

	got, err := r.Get(context.Background(), "orders.csv")
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(got))
	assert.Equal(t, 4, fs.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}, waits)
}

func TestWithRetry_GivesUp(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	boom := errors.New("503 service unavailable")
	fs := &flakyStore{failures: 10, err: boom}
	r := newTestRetry(fs, 2, &waits)

	_, err := r.List(context.Background(), "")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Equal(t, 3, fs.calls)
}

func TestWithRetry_NotFoundIsFinal(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	fs := &flakyStore{failures: 10, err: ErrNotFound}
	r := newTestRetry(fs, 5, &waits)

	_, err := r.Get(context.Background(), "missing.csv")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, fs.calls)
	assert.Empty(t, waits)
}

func TestWithRetry_Disabled(t *testing.T) {
	t.Parallel()

	fs := &flakyStore{}
	assert.Same(t, Store(fs), WithRetry(fs, RetryConfig{}, nil))
}

func TestSleepWithContext_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepWithContext(ctx, time.Hour), context.Canceled)
}
