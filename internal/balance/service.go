package balance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/backhouse-hq/backhouse/internal/bankfeed"
)

// OpenTotaler aggregates open outflow amounts; implemented by the ledger
// repository.
type OpenTotaler interface {
	SumOpenAmount(ctx context.Context, restaurantID uuid.UUID) (int64, error)
}

// Service computes book balances on demand, with a short-TTL cache so
// dashboard polls do not hammer the ledger and the balance provider.
type Service struct {
	provider bankfeed.BalanceProvider
	ledger   OpenTotaler
	cache    *redis.Client
	ttl      time.Duration
	group    singleflight.Group
}

// NewService builds the balance service. cache may be nil, in which case
// every call recomputes.
func NewService(provider bankfeed.BalanceProvider, ledger OpenTotaler, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{provider: provider, ledger: ledger, cache: cache, ttl: ttl}
}

func cacheKey(restaurantID uuid.UUID) string {
	return "balance:book:" + restaurantID.String()
}

// Compute returns the current summary for a restaurant. Concurrent calls
// for the same restaurant share one computation.
func (s *Service) Compute(ctx context.Context, restaurantID uuid.UUID) (Summary, error) {
	key := cacheKey(restaurantID)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached Summary
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
			return Summary{}, ctx.Err()
		}
	}

	resCh := s.group.DoChan(key, func() (any, error) {
		return s.compute(ctx, restaurantID)
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-resCh:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

func (s *Service) compute(ctx context.Context, restaurantID uuid.UUID) (Summary, error) {
	bank, err := s.provider.BankBalance(ctx, restaurantID)
	if err != nil {
		return Summary{}, err
	}
	pending, err := s.ledger.SumOpenAmount(ctx, restaurantID)
	if err != nil {
		return Summary{}, err
	}
	summary := FromTotals(bank, pending)
	if s.cache != nil && s.ttl > 0 {
		if raw, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, cacheKey(restaurantID), raw, s.ttl).Err()
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary after a ledger mutation.
func (s *Service) Invalidate(ctx context.Context, restaurantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, cacheKey(restaurantID)).Err()
}
