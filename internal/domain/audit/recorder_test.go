package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Append(ctx context.Context, e *Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockSink) List(ctx context.Context, appealID common.ID, p common.Pagination) ([]Entry, error) {
	args := m.Called(ctx, appealID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func TestRender_PositionalSubstitution(t *testing.T) {
	msg := Render(TemplateStatusChanged, "ready_to_start", "lpa_questionnaire")
	assert.Equal(t, "appeal moved from ready_to_start to lpa_questionnaire", msg)
}

func TestRender_MissingDetailRendersEmpty(t *testing.T) {
	msg := Render(TemplateStatusChanged, "ready_to_start")
	assert.Equal(t, "appeal moved from ready_to_start to ", msg)
}

func TestRender_ExtraDetailsIgnored(t *testing.T) {
	msg := Render(TemplateDecisionIssued, "allowed", "spare")
	assert.Equal(t, "decision issued: allowed", msg)
}

func TestRecord_AppendsRenderedEntry(t *testing.T) {
	sink := new(mockSink)
	fixed := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)
	rec := NewRecorder(sink, func() time.Time { return fixed })

	var captured *Entry
	sink.On("Append", mock.Anything, mock.AnythingOfType("*audit.Entry")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*Entry) }).
		Return(nil)

	err := rec.Record(context.Background(), "appeal-1", "officer-7",
		TemplateStagePublished, "statements", "3")
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, common.ID("appeal-1"), captured.AppealID)
	assert.Equal(t, common.UserID("officer-7"), captured.ActorID)
	assert.Equal(t, "statements stage published, 3 notifications sent", captured.Message)
	assert.Equal(t, fixed, captured.CreatedAt)
	assert.NotEmpty(t, captured.ID)
}

func TestRecord_RejectsMissingAppealID(t *testing.T) {
	rec := NewRecorder(new(mockSink), nil)
	err := rec.Record(context.Background(), "", "officer-7", TemplateCaseStarted, "written")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRecord_RejectsEmptyTemplate(t *testing.T) {
	rec := NewRecorder(new(mockSink), nil)
	err := rec.Record(context.Background(), "appeal-1", "officer-7", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRecord_SinkFailureWrapped(t *testing.T) {
	sink := new(mockSink)
	sink.On("Append", mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodeDatabaseError, "insert failed"))
	rec := NewRecorder(sink, nil)

	err := rec.Record(context.Background(), "appeal-1", "officer-7", TemplateCaseStarted, "written")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAuditRejected))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestList_DelegatesToSink(t *testing.T) {
	sink := new(mockSink)
	want := []Entry{{ID: "e1", AppealID: "appeal-1", Message: "case started with the written procedure"}}
	sink.On("List", mock.Anything, common.ID("appeal-1"), common.Pagination{Page: 1, PageSize: 20}).
		Return(want, nil)
	rec := NewRecorder(sink, nil)

	got, err := rec.List(context.Background(), "appeal-1", common.Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	sink.AssertExpectations(t)
}
