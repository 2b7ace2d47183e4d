// Package govuk implements the public-holiday source against the GOV.UK
// bank-holidays feed.
package govuk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
)

// feed mirrors the GOV.UK bank-holidays payload: one division block per
// jurisdiction, each holding dated events.
type feed map[string]division

type division struct {
	Division string  `json:"division"`
	Events   []event `json:"events"`
}

type event struct {
	Title string `json:"title"`
	Date  string `json:"date"` // yyyy-mm-dd
}

// Client fetches public holidays from the GOV.UK feed. It implements
// calendar.HolidaySource.
type Client struct {
	url    string
	http   *http.Client
	logger logging.Logger
}

// NewClient builds a feed client from cfg.
func NewClient(cfg config.CalendarConfig, log logging.Logger) *Client {
	return &Client{
		url:    cfg.FeedURL,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger: log.Named("govuk"),
	}
}

// PublicHolidays fetches and parses the feed, returning the holiday dates
// for the requested division. Any failure is reported as-is; the business
// calendar wraps it as a calendar outage, and deadline computation fails
// loudly rather than proceeding with an incomplete holiday set.
func (c *Client) PublicHolidays(ctx context.Context, div string) ([]time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "building holiday feed request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "fetching holiday feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeExternalService,
			fmt.Sprintf("holiday feed returned status %d", resp.StatusCode))
	}

	var f feed
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding holiday feed")
	}

	block, ok := f[div]
	if !ok {
		return nil, errors.New(errors.ErrCodeExternalService,
			"holiday feed has no division "+div)
	}

	dates := make([]time.Time, 0, len(block.Events))
	for _, e := range block.Events {
		d, err := time.ParseInLocation("2006-01-02", e.Date, time.UTC)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization,
				"holiday feed date "+e.Date)
		}
		dates = append(dates, d)
	}

	c.logger.Debug("holiday feed fetched",
		logging.String("division", div),
		logging.Int("events", len(dates)))
	return dates, nil
}

var _ calendar.HolidaySource = (*Client)(nil)
