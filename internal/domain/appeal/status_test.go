package appeal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/pkg/errors"
)

var testNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func newTestAppeal(t *testing.T, caseType CaseType, procedure *ProcedureType) *Appeal {
	t.Helper()
	a, err := NewAppeal("APP/Q9999/W/24/3301234", caseType,
		Party{Name: "R. Wright", Email: "appellant@example.com"},
		Party{Name: "Maldon District Council", Email: "planning@example.gov"},
		testNow)
	require.NoError(t, err)
	a.Procedure = procedure
	return a
}

func procPtr(p ProcedureType) *ProcedureType { return &p }

func TestNewAppeal_StartsReadyToStart(t *testing.T) {
	a := newTestAppeal(t, CaseTypeHouseholder, nil)
	status, err := a.CurrentStatus()
	require.NoError(t, err)
	assert.Equal(t, StatusReadyToStart, status)
	assert.Len(t, a.StatusHistory, 1)
}

func TestNewAppeal_RejectsBadInput(t *testing.T) {
	_, err := NewAppeal("", CaseTypeHouseholder, Party{}, Party{}, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = NewAppeal("APP/1", CaseType("advert"), Party{}, Party{}, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestCurrentStatus_CorruptHistory(t *testing.T) {
	a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))

	a.StatusHistory = append(a.StatusHistory, StatusEntry{Status: StatusStatements, Valid: true})
	_, err := a.CurrentStatus()
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))

	a.StatusHistory = nil
	_, err = a.CurrentStatus()
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}

func TestApplyTransition_WalksWrittenLifecycle(t *testing.T) {
	a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))

	path := []Status{
		StatusLPAQuestionnaire,
		StatusStatements,
		StatusFinalComments,
		StatusIssueDetermination,
		StatusComplete,
	}
	for _, target := range path {
		entry, err := a.ApplyTransition(target, testNow)
		require.NoError(t, err, "transition to %s", target)
		assert.True(t, entry.Valid)
		current, err := a.CurrentStatus()
		require.NoError(t, err)
		assert.Equal(t, target, current)
	}

	// History is append-only: one entry per step plus the initial one, with
	// a single valid row.
	assert.Len(t, a.StatusHistory, len(path)+1)
	valid := 0
	for _, e := range a.StatusHistory {
		if e.Valid {
			valid++
		}
	}
	assert.Equal(t, 1, valid)
}

func TestApplyTransition_RejectsEdgesOutsideTable(t *testing.T) {
	a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))

	// ready_to_start cannot jump straight to final comments.
	_, err := a.ApplyTransition(StatusFinalComments, testNow)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))

	// The failed attempt leaves the history untouched.
	current, err := a.CurrentStatus()
	require.NoError(t, err)
	assert.Equal(t, StatusReadyToStart, current)
	assert.Len(t, a.StatusHistory, 1)
}

func TestApplyTransition_ProcedureSelectsTable(t *testing.T) {
	hearing := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureHearing))
	_, err := hearing.ApplyTransition(StatusLPAQuestionnaire, testNow)
	require.NoError(t, err)
	_, err = hearing.ApplyTransition(StatusStatements, testNow)
	require.NoError(t, err)

	// Hearings skip final comments and move to the event stage.
	_, err = hearing.ApplyTransition(StatusFinalComments, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	_, err = hearing.ApplyTransition(StatusEvent, testNow)
	require.NoError(t, err)

	inquiry := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureInquiry))
	_, err = inquiry.ApplyTransition(StatusLPAQuestionnaire, testNow)
	require.NoError(t, err)
	_, err = inquiry.ApplyTransition(StatusStatements, testNow)
	require.NoError(t, err)

	// Inquiries pass through proof-of-evidence exchange first.
	_, err = inquiry.ApplyTransition(StatusEvent, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	_, err = inquiry.ApplyTransition(StatusEvidence, testNow)
	require.NoError(t, err)
}

func TestApplyTransition_HouseholderAlwaysWritten(t *testing.T) {
	a := newTestAppeal(t, CaseTypeHouseholder, nil)
	_, err := a.ApplyTransition(StatusLPAQuestionnaire, testNow)
	require.NoError(t, err)
	_, err = a.ApplyTransition(StatusStatements, testNow)
	require.NoError(t, err)
	_, err = a.ApplyTransition(StatusEvidence, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
}

func TestApplyTransition_TerminalStatesReject(t *testing.T) {
	for _, terminal := range []Status{StatusComplete, StatusInvalid, StatusWithdrawn, StatusClosed} {
		a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))
		a.appendStatus(terminal, testNow)

		_, err := a.ApplyTransition(StatusLPAQuestionnaire, testNow)
		require.Error(t, err, "terminal %s", terminal)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	}
}

func TestApplyReopen(t *testing.T) {
	a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))
	a.appendStatus(StatusComplete, testNow)

	entry, err := a.ApplyReopen(testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusIssueDetermination, entry.Status)

	// Reopen is only defined for terminal states.
	_, err = a.ApplyReopen(testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
}

func TestRequireStatus(t *testing.T) {
	a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))

	assert.NoError(t, a.RequireStatus(StatusReadyToStart))

	err := a.RequireStatus(StatusIssueDetermination)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAppealState))
}

func TestAllowedTransitions(t *testing.T) {
	a := newTestAppeal(t, CaseTypeFullPlanning, procPtr(ProcedureWritten))
	allowed, err := a.AllowedTransitions()
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]Status{StatusLPAQuestionnaire, StatusInvalid, StatusWithdrawn, StatusClosed},
		allowed)
}

func TestRule6Party_Lifecycle(t *testing.T) {
	p, err := NewRule6Party("appeal-1", "Save Our Green CIC", "contact@sog.example", testNow)
	require.NoError(t, err)
	assert.Equal(t, Rule6Active, p.Status)

	require.NoError(t, p.Withdraw(testNow))
	assert.Equal(t, Rule6Withdrawn, p.Status)
	assert.Error(t, p.Withdraw(testNow))

	_, err = NewRule6Party("appeal-1", "", "x@example.com", testNow)
	assert.Error(t, err)
	_, err = NewRule6Party("appeal-1", "Org", "", testNow)
	assert.Error(t, err)
}
