package govuk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
)

const sampleFeed = `{
  "england-and-wales": {
    "division": "england-and-wales",
    "events": [
      {"title": "New Year's Day", "date": "2024-01-01"},
      {"title": "Good Friday", "date": "2024-03-29"},
      {"title": "Christmas Day", "date": "2024-12-25"}
    ]
  },
  "scotland": {
    "division": "scotland",
    "events": [
      {"title": "2nd January", "date": "2024-01-02"}
    ]
  }
}`

func newFeedClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CalendarConfig{
		FeedURL:     srv.URL,
		Division:    "england-and-wales",
		HTTPTimeout: 2 * time.Second,
	}, logging.NewNopLogger())
}

func TestPublicHolidays_ParsesDivision(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleFeed))
	})

	dates, err := c.PublicHolidays(context.Background(), "england-and-wales")
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC), dates[2])
}

func TestPublicHolidays_UnknownDivisionFails(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	})

	_, err := c.PublicHolidays(context.Background(), "narnia")
	assert.Error(t, err)
}

func TestPublicHolidays_ServerErrorFails(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PublicHolidays(context.Background(), "england-and-wales")
	assert.Error(t, err)
}

func TestPublicHolidays_MalformedDateFails(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"england-and-wales":{"division":"england-and-wales","events":[{"title":"x","date":"01/01/2024"}]}}`))
	})

	_, err := c.PublicHolidays(context.Background(), "england-and-wales")
	assert.Error(t, err)
}
