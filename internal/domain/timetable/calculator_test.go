package timetable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/pkg/errors"
)

type mockHolidaySource struct {
	mock.Mock
}

func (m *mockHolidaySource) PublicHolidays(ctx context.Context, division string) ([]time.Time, error) {
	args := m.Called(ctx, division)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func newTestCalculator(t *testing.T, holidays []time.Time) (*Calculator, *mockHolidaySource) {
	t.Helper()
	source := new(mockHolidaySource)
	source.On("PublicHolidays", mock.Anything, "england-and-wales").Return(holidays, nil)
	cal := calendar.NewBusinessCalendar(source, "england-and-wales")
	return NewCalculator(cal, 23, 59), source
}

// Monday 3 June 2024; no holidays fall within the computed window unless a
// test supplies them.
var anchor = time.Date(2024, time.June, 3, 9, 30, 0, 0, time.UTC)

func TestCompute_WrittenDeadlineSet(t *testing.T) {
	calc, source := newTestCalculator(t, nil)

	tt, err := calc.Compute(context.Background(), Input{
		AppealID:   "appeal-1",
		CaseType:   appeal.CaseTypeFullPlanning,
		Procedure:  appeal.ProcedureWritten,
		AnchorDate: anchor,
	})
	require.NoError(t, err)

	assert.Len(t, tt.Deadlines, 4)
	q, ok := tt.Deadline(DeadlineQuestionnaireDue)
	require.True(t, ok)
	// 5 business days from Mon 3 June is Mon 10 June, stamped 23:59 UTC.
	assert.Equal(t, time.Date(2024, time.June, 10, 23, 59, 0, 0, time.UTC), q)

	s, ok := tt.Deadline(DeadlineStatementDue)
	require.True(t, ok)
	// 25 business days = 5 full weeks: Mon 8 July.
	assert.Equal(t, time.Date(2024, time.July, 8, 23, 59, 0, 0, time.UTC), s)

	f, ok := tt.Deadline(DeadlineFinalCommentsDue)
	require.True(t, ok)
	// 35 business days = 7 full weeks: Mon 22 July.
	assert.Equal(t, time.Date(2024, time.July, 22, 23, 59, 0, 0, time.UTC), f)

	_, ok = tt.Deadline(DeadlineProofOfEvidenceDue)
	assert.False(t, ok)

	// One holiday fetch for the whole computation.
	source.AssertNumberOfCalls(t, "PublicHolidays", 1)
}

func TestCompute_HolidayPushesDeadline(t *testing.T) {
	// Declare Mon 10 June a public holiday: the questionnaire deadline must
	// land on Tue 11 June instead.
	calc, _ := newTestCalculator(t, []time.Time{
		time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})

	tt, err := calc.Compute(context.Background(), Input{
		AppealID:   "appeal-1",
		CaseType:   appeal.CaseTypeHouseholder,
		Procedure:  appeal.ProcedureWritten,
		AnchorDate: anchor,
	})
	require.NoError(t, err)

	q, _ := tt.Deadline(DeadlineQuestionnaireDue)
	assert.Equal(t, time.Date(2024, time.June, 11, 23, 59, 0, 0, time.UTC), q)
}

func TestCompute_InquiryAddsProofOfEvidence(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)

	tt, err := calc.Compute(context.Background(), Input{
		AppealID:   "appeal-1",
		CaseType:   appeal.CaseTypeFullPlanning,
		Procedure:  appeal.ProcedureInquiry,
		AnchorDate: anchor,
	})
	require.NoError(t, err)

	_, ok := tt.Deadline(DeadlineProofOfEvidenceDue)
	assert.True(t, ok)
	_, ok = tt.Deadline(DeadlineStatementOfCommonGroundDue)
	assert.True(t, ok)
	_, ok = tt.Deadline(DeadlineFinalCommentsDue)
	assert.False(t, ok)
}

func TestCompute_PlanningObligationToggle(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)

	with, err := calc.Compute(context.Background(), Input{
		AppealID:           "appeal-1",
		CaseType:           appeal.CaseTypeFullPlanning,
		Procedure:          appeal.ProcedureHearing,
		AnchorDate:         anchor,
		PlanningObligation: true,
	})
	require.NoError(t, err)
	_, ok := with.Deadline(DeadlinePlanningObligationDue)
	assert.True(t, ok)

	without, err := calc.Compute(context.Background(), Input{
		AppealID:   "appeal-1",
		CaseType:   appeal.CaseTypeFullPlanning,
		Procedure:  appeal.ProcedureHearing,
		AnchorDate: anchor,
	})
	require.NoError(t, err)
	_, ok = without.Deadline(DeadlinePlanningObligationDue)
	assert.False(t, ok)
}

func TestCompute_OrderingInvariantHolds(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)

	for _, proc := range []appeal.ProcedureType{appeal.ProcedureWritten, appeal.ProcedureHearing, appeal.ProcedureInquiry} {
		tt, err := calc.Compute(context.Background(), Input{
			AppealID:   "appeal-1",
			CaseType:   appeal.CaseTypeFullPlanning,
			Procedure:  proc,
			AnchorDate: anchor,
		})
		require.NoError(t, err, "procedure %s", proc)

		q, hasQ := tt.Deadline(DeadlineQuestionnaireDue)
		s, hasS := tt.Deadline(DeadlineStatementDue)
		f, hasF := tt.Deadline(DeadlineFinalCommentsDue)
		if hasQ && hasS {
			assert.False(t, s.Before(q))
		}
		if hasS && hasF {
			assert.False(t, f.Before(s))
		}
	}
}

func TestCompute_UnknownProcedureRejected(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)

	_, err := calc.Compute(context.Background(), Input{
		AppealID:   "appeal-1",
		CaseType:   appeal.CaseTypeFullPlanning,
		Procedure:  appeal.ProcedureType("inquisition"),
		AnchorDate: anchor,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeProcedureUnsupported))
}

func TestCompute_CalendarFailureIsFatal(t *testing.T) {
	source := new(mockHolidaySource)
	source.On("PublicHolidays", mock.Anything, "england-and-wales").
		Return(nil, errors.New(errors.ErrCodeExternalService, "connection refused"))
	calc := NewCalculator(calendar.NewBusinessCalendar(source, "england-and-wales"), 23, 59)

	_, err := calc.Compute(context.Background(), Input{
		AppealID:   "appeal-1",
		CaseType:   appeal.CaseTypeHouseholder,
		Procedure:  appeal.ProcedureWritten,
		AnchorDate: anchor,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCalendarUnavailable))
}

func TestCommentWindowOpen(t *testing.T) {
	due := time.Date(2024, time.July, 8, 23, 59, 0, 0, time.UTC)
	tt := &Timetable{
		AppealID:  "appeal-1",
		Deadlines: map[DeadlineName]time.Time{DeadlineIPCommentsDue: due},
	}

	assert.True(t, tt.CommentWindowOpen(due.Add(-time.Hour)))
	assert.True(t, tt.CommentWindowOpen(due))
	assert.False(t, tt.CommentWindowOpen(due.Add(time.Minute)))

	empty := &Timetable{AppealID: "appeal-1", Deadlines: map[DeadlineName]time.Time{}}
	assert.False(t, empty.CommentWindowOpen(due))
}

func TestValidate_ViolationFailsLoudly(t *testing.T) {
	tt := &Timetable{
		AppealID: "appeal-1",
		Deadlines: map[DeadlineName]time.Time{
			DeadlineQuestionnaireDue: time.Date(2024, time.July, 1, 23, 59, 0, 0, time.UTC),
			DeadlineStatementDue:     time.Date(2024, time.June, 1, 23, 59, 0, 0, time.UTC),
		},
	}
	err := tt.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimetableInvariant))
}
