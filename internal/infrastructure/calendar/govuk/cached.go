package govuk

import (
	"context"
	"time"

	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/internal/infrastructure/database/redis"
)

// CachedSource decorates a HolidaySource with a read-through cache. The
// feed changes a handful of times a year, so a daily TTL keeps computations
// fast without risking a stale holiday set. A feed failure on a cache miss
// is surfaced, never papered over with expired data.
type CachedSource struct {
	inner calendar.HolidaySource
	cache redis.Cache
	ttl   time.Duration
}

// NewCachedSource wraps inner with cache.
func NewCachedSource(inner calendar.HolidaySource, cache redis.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{inner: inner, cache: cache, ttl: ttl}
}

func (s *CachedSource) PublicHolidays(ctx context.Context, division string) ([]time.Time, error) {
	var dates []time.Time
	err := s.cache.GetOrSet(ctx, "holidays:"+division, &dates, s.ttl,
		func(ctx context.Context) (interface{}, error) {
			return s.inner.PublicHolidays(ctx, division)
		})
	if err != nil {
		return nil, err
	}
	return dates, nil
}

var _ calendar.HolidaySource = (*CachedSource)(nil)
