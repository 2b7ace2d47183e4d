package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeExternalService    ErrorCode = "COMMON_011"
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	CodeOK                    ErrorCode = "OK"
)

// Casework error codes
const (
	// ErrCodeInvalidTransition: the requested status change is not permitted
	// from the appeal's current status.
	ErrCodeInvalidTransition ErrorCode = "CASE_001"

	// ErrCodeInvalidAppealState: a guarded operation was invoked while the
	// appeal is not in the required status.
	ErrCodeInvalidAppealState ErrorCode = "CASE_002"

	// ErrCodeAppealNotFound: no appeal exists for the given identifier.
	ErrCodeAppealNotFound ErrorCode = "CASE_003"

	// ErrCodeConcurrentModification: the status history changed between read
	// and conditional write. Callers retry once before surfacing.
	ErrCodeConcurrentModification ErrorCode = "CASE_004"

	// ErrCodeTimetableInvariant: a computed timetable violated its
	// chronological ordering invariant. Configuration error, not user error.
	ErrCodeTimetableInvariant ErrorCode = "CASE_005"

	// ErrCodeProcedureUnsupported: no deadline template exists for the
	// (appeal type, procedure type) pair.
	ErrCodeProcedureUnsupported ErrorCode = "CASE_006"

	// ErrCodeRule6HasRepresentations: a Rule 6 party with valid submissions
	// cannot be removed, only withdrawn.
	ErrCodeRule6HasRepresentations ErrorCode = "CASE_007"
)

// Calendar error codes
const (
	// ErrCodeCalendarUnavailable: the public-holiday source could not be
	// reached or returned an unusable payload. Fatal for the computation;
	// there is no stale-cache fallback.
	ErrCodeCalendarUnavailable ErrorCode = "CAL_001"
)

// Notification error codes
const (
	// ErrCodeIncompleteRecipientData: a required recipient has no email on
	// file. Fatal for that recipient's dispatch only.
	ErrCodeIncompleteRecipientData ErrorCode = "NOTIFY_001"

	// ErrCodeNotifyDispatchFailed: the notification client rejected or
	// failed to deliver a send request.
	ErrCodeNotifyDispatchFailed ErrorCode = "NOTIFY_002"
)

// Audit error codes
const (
	ErrCodeAuditRejected ErrorCode = "AUDIT_001"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes. The transport
// layer is the only consumer; domain and application code never see HTTP.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeInvalidTransition:       http.StatusConflict,
	ErrCodeInvalidAppealState:      http.StatusConflict,
	ErrCodeAppealNotFound:          http.StatusNotFound,
	ErrCodeConcurrentModification:  http.StatusConflict,
	ErrCodeTimetableInvariant:      http.StatusInternalServerError,
	ErrCodeProcedureUnsupported:    http.StatusBadRequest,
	ErrCodeRule6HasRepresentations: http.StatusConflict,

	ErrCodeCalendarUnavailable: http.StatusServiceUnavailable,

	ErrCodeIncompleteRecipientData: http.StatusUnprocessableEntity,
	ErrCodeNotifyDispatchFailed:    http.StatusBadGateway,

	ErrCodeAuditRejected: http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages used when a caller
// constructs an error without its own message.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeInvalidTransition:       "status transition not permitted",
	ErrCodeInvalidAppealState:      "appeal is not in the required state",
	ErrCodeAppealNotFound:          "appeal not found",
	ErrCodeConcurrentModification:  "appeal was modified concurrently",
	ErrCodeTimetableInvariant:      "timetable ordering invariant violated",
	ErrCodeProcedureUnsupported:    "unsupported appeal/procedure combination",
	ErrCodeRule6HasRepresentations: "rule 6 party has valid representations",

	ErrCodeCalendarUnavailable: "public holiday calendar unavailable",

	ErrCodeIncompleteRecipientData: "recipient has no email address on file",
	ErrCodeNotifyDispatchFailed:    "notification dispatch failed",

	ErrCodeAuditRejected: "audit entry rejected",
}

// HTTPStatus returns the HTTP status for a code, defaulting to 500 for
// unregistered codes.
func HTTPStatus(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
