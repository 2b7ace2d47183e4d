package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New(ErrCodeInvalidTransition, "cannot move to statements")
	assert.Equal(t, "[CASE_001] cannot move to statements", e.Error())

	withDetail := e.WithDetail("appeal_id=abc")
	assert.Equal(t, "[CASE_001] cannot move to statements: appeal_id=abc", withDetail.Error())
	// Original is not mutated.
	assert.Empty(t, e.Detail)
}

func TestNew_DefaultMessage(t *testing.T) {
	e := New(ErrCodeCalendarUnavailable, "")
	assert.Equal(t, "public holiday calendar unavailable", e.Message)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := InvalidTransition("terminal state")
	wrapped := Wrap(fmt.Errorf("outer: %w", inner), ErrCodeUnknown, "transition failed")
	assert.Equal(t, ErrCodeInvalidTransition, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, inner) || IsCode(wrapped, ErrCodeInvalidTransition))
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := ConcurrentModification("status history changed")
	wrapped := Wrap(inner, ErrCodeDatabaseError, "write failed")
	assert.True(t, IsCode(wrapped, ErrCodeConcurrentModification))
	assert.True(t, IsCode(wrapped, ErrCodeDatabaseError))
	assert.False(t, IsCode(wrapped, ErrCodeInvalidTransition))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeInvalidAppealState, GetCode(InvalidAppealState("not ready")))
}

func TestHTTPStatus_CoversDeclaredCodes(t *testing.T) {
	for code := range ErrorCodeMessage {
		assert.Contains(t, ErrorCodeHTTPStatus, code, "code %s has no HTTP mapping", code)
	}
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeInvalidTransition))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrCodeCalendarUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrorCode("NOPE")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeAppealNotFound, "")))
	assert.True(t, IsNotFound(NotFound("gone")))
	assert.False(t, IsNotFound(Internal("boom")))
}
