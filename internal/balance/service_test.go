package balance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	balance int64
	calls   int
}

func (f *fakeProvider) BankBalance(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	f.calls++
	return f.balance, nil
}

type fakeLedger struct {
	total int64
	calls int
}

func (f *fakeLedger) SumOpenAmount(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	f.calls++
	return f.total, nil
}

func newCacheClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestComputeWithoutCache(t *testing.T) {
	provider := &fakeProvider{balance: 1_000_000}
	ledger := &fakeLedger{total: 75_000}
	svc := NewService(provider, ledger, nil, 0)

	summary, err := svc.Compute(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, int64(925_000), summary.BookBalance)

	// No cache: every call recomputes.
	_, err = svc.Compute(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, 2, provider.calls)
	require.Equal(t, 2, ledger.calls)
}

func TestComputeCachesWithinTTL(t *testing.T) {
	provider := &fakeProvider{balance: 1_000_000}
	ledger := &fakeLedger{total: 75_000}
	svc := NewService(provider, ledger, newCacheClient(t), time.Minute)
	restaurantID := uuid.New()

	first, err := svc.Compute(context.Background(), restaurantID)
	require.NoError(t, err)
	second, err := svc.Compute(context.Background(), restaurantID)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, provider.calls, "second call should be served from cache")
	require.Equal(t, 1, ledger.calls)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	provider := &fakeProvider{balance: 1_000_000}
	ledger := &fakeLedger{total: 75_000}
	svc := NewService(provider, ledger, newCacheClient(t), time.Minute)
	restaurantID := uuid.New()

	_, err := svc.Compute(context.Background(), restaurantID)
	require.NoError(t, err)

	// A ledger mutation invalidates; the next read sees the new total.
	ledger.total = 100_000
	svc.Invalidate(context.Background(), restaurantID)

	summary, err := svc.Compute(context.Background(), restaurantID)
	require.NoError(t, err)
	require.Equal(t, int64(900_000), summary.BookBalance)
	require.Equal(t, 2, provider.calls)
}

func TestCacheScopedPerRestaurant(t *testing.T) {
	provider := &fakeProvider{balance: 500_000}
	ledger := &fakeLedger{total: 0}
	svc := NewService(provider, ledger, newCacheClient(t), time.Minute)

	_, err := svc.Compute(context.Background(), uuid.New())
	require.NoError(t, err)
	_, err = svc.Compute(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, 2, provider.calls, "different restaurants must not share cache entries")
}
