package timetable

import (
	"context"
	"time"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/pkg/types/common"
)

// Input carries everything a timetable computation depends on. The anchor
// date is the case-start date; a procedure change recomputes from the same
// anchor, not from the change date.
type Input struct {
	AppealID           common.ID
	CaseType           appeal.CaseType
	Procedure          appeal.ProcedureType
	AnchorDate         time.Time
	PlanningObligation bool
}

// Calculator produces complete Timetable records from deadline templates and
// the business calendar. Recomputation always replaces the whole record;
// manually-edited individual deadlines are deliberately not preserved.
type Calculator struct {
	cal          *calendar.BusinessCalendar
	cutoffHour   int
	cutoffMinute int
}

// NewCalculator constructs a Calculator. The cutoff time of day is applied
// to every computed deadline.
func NewCalculator(cal *calendar.BusinessCalendar, cutoffHour, cutoffMinute int) *Calculator {
	return &Calculator{cal: cal, cutoffHour: cutoffHour, cutoffMinute: cutoffMinute}
}

// Compute selects the template for the input's case type and procedure,
// applies each offset in business days from the anchor date, corrects every
// result to a business day, stamps the cutoff time, and validates the
// chronological-ordering invariant before returning.
//
// The holiday set is fetched exactly once per computation; a fetch failure
// aborts the whole computation with CalendarUnavailable.
func (c *Calculator) Compute(ctx context.Context, in Input) (*Timetable, error) {
	template, err := templateFor(in.CaseType, in.Procedure)
	if err != nil {
		return nil, err
	}

	days, err := c.cal.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	t := &Timetable{
		AppealID:   in.AppealID,
		AnchorDate: in.AnchorDate,
		Deadlines:  make(map[DeadlineName]time.Time, len(template)),
		ComputedAt: time.Now().UTC(),
	}

	for _, rule := range template {
		if rule.ObligationOnly && !in.PlanningObligation {
			continue
		}
		due, err := days.AddBusinessDays(in.AnchorDate, rule.OffsetDays)
		if err != nil {
			return nil, err
		}
		due, err = days.ShiftToBusinessDay(due, calendar.Forward)
		if err != nil {
			return nil, err
		}
		t.Deadlines[rule.Name] = calendar.SetCutoffTime(due, c.cutoffHour, c.cutoffMinute)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
