package govuk

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/internal/infrastructure/database/redis"
	"github.com/openappeals/casework/pkg/errors"
)

// countingSource records how often the upstream feed is hit.
type countingSource struct {
	calls int
	dates []time.Time
	err   error
}

func (s *countingSource) PublicHolidays(ctx context.Context, division string) ([]time.Time, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.dates, nil
}

// memoryCache is a map-backed redis.Cache for tests. Values round-trip
// through JSON the same way the real cache does.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.Get(ctx, key, dest)
}

var _ redis.Cache = (*memoryCache)(nil)

func TestCachedSource_SecondReadServedFromCache(t *testing.T) {
	source := &countingSource{dates: []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC),
	}}
	cached := NewCachedSource(source, newMemoryCache(), time.Hour)

	first, err := cached.PublicHolidays(context.Background(), "england-and-wales")
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := cached.PublicHolidays(context.Background(), "england-and-wales")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
}

func TestCachedSource_SecondComputationNeedsNoFetch(t *testing.T) {
	source := &countingSource{dates: []time.Time{
		time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC),
	}}
	cal := calendar.NewBusinessCalendar(
		NewCachedSource(source, newMemoryCache(), time.Hour), "england-and-wales")

	set, err := cal.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, set.IsBusinessDay(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)))

	set, err = cal.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, set.IsBusinessDay(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, 1, source.calls)
}

func TestCachedSource_DivisionsCachedIndependently(t *testing.T) {
	source := &countingSource{}
	cached := NewCachedSource(source, newMemoryCache(), time.Hour)

	_, err := cached.PublicHolidays(context.Background(), "england-and-wales")
	require.NoError(t, err)
	_, err = cached.PublicHolidays(context.Background(), "scotland")
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestCachedSource_ColdCacheFeedFailureIsFatal(t *testing.T) {
	source := &countingSource{err: errors.New(errors.ErrCodeExternalService, "gateway timeout")}
	cal := calendar.NewBusinessCalendar(
		NewCachedSource(source, newMemoryCache(), time.Hour), "england-and-wales")

	_, err := cal.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCalendarUnavailable))
	assert.Equal(t, 1, source.calls)

	// A failure is never cached; the next computation retries the feed.
	_, err = cal.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, source.calls)
}
