// Package calendar implements the business-day arithmetic that underpins all
// statutory deadline computation: weekend and public-holiday awareness,
// nearest-business-day shifting, business-day addition, and cutoff-time
// stamping.
package calendar

import (
	"context"
	"time"

	"github.com/openappeals/casework/pkg/errors"
)

// HolidaySource supplies the public-holiday dates for a jurisdiction
// division. Implementations fetch from an external feed; a fetch failure is
// fatal for the calling computation and must never be downgraded to an empty
// holiday set.
type HolidaySource interface {
	PublicHolidays(ctx context.Context, division string) ([]time.Time, error)
}

// Direction selects which way ShiftToBusinessDay walks the calendar.
type Direction int

const (
	// Forward advances towards the future.
	Forward Direction = 1
	// Backward retreats towards the past.
	Backward Direction = -1
)

// maxShiftDays bounds the shift loop. Real holiday runs never exceed a
// handful of days; the cap only guards against a corrupted holiday feed.
const maxShiftDays = 366

// dayKey normalises a timestamp to its UTC calendar date for set membership.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DaySet is an immutable snapshot of a division's public holidays, valid for
// the duration of one computation. All methods are pure and deterministic.
type DaySet struct {
	holidays map[string]struct{}
}

// NewDaySet builds a DaySet from explicit holiday dates. Time-of-day
// components are ignored.
func NewDaySet(holidays []time.Time) *DaySet {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[dayKey(h)] = struct{}{}
	}
	return &DaySet{holidays: set}
}

// IsBusinessDay reports whether date is a weekday that is not a public
// holiday.
func (s *DaySet) IsBusinessDay(date time.Time) bool {
	switch date.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := s.holidays[dayKey(date)]
	return !holiday
}

// ShiftToBusinessDay returns date unchanged when it is already a business
// day; otherwise it walks one calendar day at a time in the given direction
// until a business day is reached.
func (s *DaySet) ShiftToBusinessDay(date time.Time, dir Direction) (time.Time, error) {
	if dir != Forward && dir != Backward {
		return time.Time{}, errors.InvalidParam("shift direction must be forward or backward")
	}
	shifted := date
	for i := 0; i < maxShiftDays; i++ {
		if s.IsBusinessDay(shifted) {
			return shifted, nil
		}
		shifted = shifted.AddDate(0, 0, int(dir))
	}
	return time.Time{}, errors.New(errors.ErrCodeCalendarUnavailable,
		"no business day found within a year of "+dayKey(date))
}

// AddBusinessDays returns the date n business days after date, skipping
// weekends and holidays while counting. n must be non-negative.
func (s *DaySet) AddBusinessDays(date time.Time, n int) (time.Time, error) {
	if n < 0 {
		return time.Time{}, errors.InvalidParam("business day count must not be negative")
	}
	current := date
	for added := 0; added < n; {
		current = current.AddDate(0, 0, 1)
		if s.IsBusinessDay(current) {
			added++
		}
	}
	return current, nil
}

// SetCutoffTime normalises a calendar date to a fixed UTC time of day. All
// stored deadlines are stamped this way so day-level comparisons are
// unambiguous regardless of the original time component.
func SetCutoffTime(date time.Time, hour, minute int) time.Time {
	d := date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

// BusinessCalendar binds a HolidaySource to a jurisdiction division and
// exposes the business-day operations with per-computation holiday fetching.
type BusinessCalendar struct {
	source   HolidaySource
	division string
}

// NewBusinessCalendar constructs a BusinessCalendar for one division.
func NewBusinessCalendar(source HolidaySource, division string) *BusinessCalendar {
	return &BusinessCalendar{source: source, division: division}
}

// Snapshot fetches the division's holidays once and returns the resulting
// DaySet. Callers performing several date operations in one computation
// should take a single snapshot rather than calling the per-date helpers.
func (c *BusinessCalendar) Snapshot(ctx context.Context) (*DaySet, error) {
	holidays, err := c.source.PublicHolidays(ctx, c.division)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCalendarUnavailable,
			"failed to fetch public holidays for "+c.division)
	}
	return NewDaySet(holidays), nil
}

// IsBusinessDay fetches holidays and evaluates a single date.
func (c *BusinessCalendar) IsBusinessDay(ctx context.Context, date time.Time) (bool, error) {
	set, err := c.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return set.IsBusinessDay(date), nil
}

// ShiftToBusinessDay fetches holidays and shifts a single date.
func (c *BusinessCalendar) ShiftToBusinessDay(ctx context.Context, date time.Time, dir Direction) (time.Time, error) {
	set, err := c.Snapshot(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return set.ShiftToBusinessDay(date, dir)
}

// AddBusinessDays fetches holidays and adds n business days to a date.
func (c *BusinessCalendar) AddBusinessDays(ctx context.Context, date time.Time, n int) (time.Time, error) {
	set, err := c.Snapshot(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return set.AddBusinessDays(date, n)
}
