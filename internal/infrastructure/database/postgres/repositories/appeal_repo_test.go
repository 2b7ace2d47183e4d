package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

func newMockConn(t *testing.T) (*postgres.Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewConnectionWithDB(db, logging.NewNopLogger()), mock
}

var repoNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func appealRows(t *testing.T, id string) *sqlmock.Rows {
	t.Helper()
	appellant, err := json.Marshal(appeal.Party{Name: "R. Patel", Email: "a@example.com"})
	require.NoError(t, err)
	lpa, err := json.Marshal(appeal.Party{Name: "Borough Council", Email: "lpa@example.com"})
	require.NoError(t, err)
	return sqlmock.NewRows([]string{
		"id", "reference", "case_type", "procedure", "started_at", "planning_obligation",
		"appellant", "agent", "lpa", "lpa_code", "document_folders", "version",
		"created_at", "updated_at",
	}).AddRow(id, "APP/Q9999/W/24/0000042", "full_planning", "written", repoNow, false,
		appellant, nil, lpa, "Q9999", nil, 3, repoNow, repoNow)
}

func TestGetAppeal_LoadsAggregateWithHistory(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresAppealRepo(conn, logging.NewNopLogger())

	id := string(common.NewID())
	mock.ExpectQuery("FROM appeals").WithArgs(id).WillReturnRows(appealRows(t, id))
	mock.ExpectQuery("FROM appeal_status_history").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "valid_from", "valid"}).
			AddRow("ready_to_start", repoNow, false).
			AddRow("lpa_questionnaire", repoNow, true))

	a, err := repo.GetAppeal(context.Background(), common.ID(id))
	require.NoError(t, err)

	assert.Equal(t, "APP/Q9999/W/24/0000042", a.Reference)
	assert.Equal(t, appeal.CaseTypeFullPlanning, a.CaseType)
	assert.Equal(t, 3, a.Version)
	require.NotNil(t, a.Procedure)
	assert.Equal(t, appeal.ProcedureWritten, *a.Procedure)

	status, err := a.CurrentStatus()
	require.NoError(t, err)
	assert.Equal(t, appeal.StatusLPAQuestionnaire, status)
	assert.Len(t, a.StatusHistory, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppeal_NotFound(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresAppealRepo(conn, logging.NewNopLogger())

	id := string(common.NewID())
	mock.ExpectQuery("FROM appeals").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetAppeal(context.Background(), common.ID(id))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAppealNotFound))
}

func TestSetStatus_VersionConflictRollsBack(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresAppealRepo(conn, logging.NewNopLogger())

	a, err := appeal.NewAppeal("APP/Q9999/W/24/0000042", appeal.CaseTypeFullPlanning,
		appeal.Party{Name: "R. Patel", Email: "a@example.com"},
		appeal.Party{Name: "Borough Council", Email: "lpa@example.com"}, repoNow)
	require.NoError(t, err)

	mock.ExpectBegin()
	// Another writer already bumped the version: zero rows match.
	mock.ExpectExec("UPDATE appeals SET version").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.SetStatus(context.Background(), a, 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrentModification))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus_RewritesHistoryInOneTransaction(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresAppealRepo(conn, logging.NewNopLogger())

	a, err := appeal.NewAppeal("APP/Q9999/W/24/0000042", appeal.CaseTypeFullPlanning,
		appeal.Party{Name: "R. Patel", Email: "a@example.com"},
		appeal.Party{Name: "Borough Council", Email: "lpa@example.com"}, repoNow)
	require.NoError(t, err)
	_, err = a.ApplyTransition(appeal.StatusLPAQuestionnaire, repoNow)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appeals SET version").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM appeal_status_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO appeal_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO appeal_status_history").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetStatus(context.Background(), a, 0))
	assert.Equal(t, 1, a.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCaseDetails_VersionConflict(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresAppealRepo(conn, logging.NewNopLogger())

	a, err := appeal.NewAppeal("APP/Q9999/W/24/0000042", appeal.CaseTypeFullPlanning,
		appeal.Party{Name: "R. Patel", Email: "a@example.com"},
		appeal.Party{Name: "Borough Council", Email: "lpa@example.com"}, repoNow)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE appeals").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateCaseDetails(context.Background(), a, 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrentModification))
}

func TestTimetableRepo_RoundTrip(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresTimetableRepo(conn, logging.NewNopLogger())

	id := common.NewID()
	tt := &timetable.Timetable{
		AppealID:   id,
		AnchorDate: repoNow,
		Deadlines: map[timetable.DeadlineName]time.Time{
			timetable.DeadlineQuestionnaireDue: repoNow.AddDate(0, 0, 7),
		},
		ComputedAt: repoNow,
	}

	mock.ExpectExec("INSERT INTO timetables").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.UpsertTimetable(context.Background(), tt))

	deadlines, err := json.Marshal(tt.Deadlines)
	require.NoError(t, err)
	mock.ExpectQuery("FROM timetables").WithArgs(string(id)).
		WillReturnRows(sqlmock.NewRows([]string{"appeal_id", "anchor_date", "deadlines", "computed_at"}).
			AddRow(string(id), repoNow, deadlines, repoNow))

	got, err := repo.GetTimetable(context.Background(), id)
	require.NoError(t, err)
	due, ok := got.Deadline(timetable.DeadlineQuestionnaireDue)
	require.True(t, ok)
	assert.True(t, due.Equal(repoNow.AddDate(0, 0, 7)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_AppendAndList(t *testing.T) {
	conn, mock := newMockConn(t)
	sink := NewPostgresAuditRepo(conn, logging.NewNopLogger())

	entry := &audit.Entry{
		ID:        common.NewID(),
		AppealID:  common.NewID(),
		ActorID:   "officer-7",
		Message:   "case started with the written procedure",
		CreatedAt: repoNow,
	}
	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs(string(entry.ID), string(entry.AppealID), "officer-7", entry.Message, repoNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, sink.Append(context.Background(), entry))

	mock.ExpectQuery("FROM audit_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id", "appeal_id", "actor_id", "message", "created_at"}).
			AddRow(string(entry.ID), string(entry.AppealID), "officer-7", entry.Message, repoNow))

	got, err := sink.List(context.Background(), entry.AppealID, common.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entry.Message, got[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}
