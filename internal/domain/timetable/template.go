package timetable

import (
	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/pkg/errors"
)

// deadlineRule is one row of a procedure's deadline template: the named
// deadline and its fixed business-day offset from the anchor date.
// ObligationOnly rows are included only when a planning obligation applies.
type deadlineRule struct {
	Name           DeadlineName
	OffsetDays     int
	ObligationOnly bool
}

// Business-day offsets are policy constants fixed by the procedure rules.
const (
	offsetQuestionnaire      = 5
	offsetStatement          = 25
	offsetIPComments         = 25
	offsetFinalComments      = 35
	offsetCommonGround       = 25
	offsetProofOfEvidence    = 45
	offsetPlanningObligation = 45
)

var (
	writtenTemplate = []deadlineRule{
		{Name: DeadlineQuestionnaireDue, OffsetDays: offsetQuestionnaire},
		{Name: DeadlineStatementDue, OffsetDays: offsetStatement},
		{Name: DeadlineIPCommentsDue, OffsetDays: offsetIPComments},
		{Name: DeadlineFinalCommentsDue, OffsetDays: offsetFinalComments},
	}

	hearingTemplate = []deadlineRule{
		{Name: DeadlineQuestionnaireDue, OffsetDays: offsetQuestionnaire},
		{Name: DeadlineStatementDue, OffsetDays: offsetStatement},
		{Name: DeadlineIPCommentsDue, OffsetDays: offsetIPComments},
		{Name: DeadlineStatementOfCommonGroundDue, OffsetDays: offsetCommonGround},
		{Name: DeadlinePlanningObligationDue, OffsetDays: offsetPlanningObligation, ObligationOnly: true},
	}

	inquiryTemplate = []deadlineRule{
		{Name: DeadlineQuestionnaireDue, OffsetDays: offsetQuestionnaire},
		{Name: DeadlineStatementDue, OffsetDays: offsetStatement},
		{Name: DeadlineIPCommentsDue, OffsetDays: offsetIPComments},
		{Name: DeadlineStatementOfCommonGroundDue, OffsetDays: offsetCommonGround},
		{Name: DeadlineProofOfEvidenceDue, OffsetDays: offsetProofOfEvidence},
		{Name: DeadlinePlanningObligationDue, OffsetDays: offsetPlanningObligation, ObligationOnly: true},
	}
)

// templateFor selects the deadline template for a case type and procedure.
// Householder appeals always follow the written template.
func templateFor(caseType appeal.CaseType, procedure appeal.ProcedureType) ([]deadlineRule, error) {
	if caseType == appeal.CaseTypeHouseholder {
		return writtenTemplate, nil
	}
	switch procedure {
	case appeal.ProcedureWritten:
		return writtenTemplate, nil
	case appeal.ProcedureHearing:
		return hearingTemplate, nil
	case appeal.ProcedureInquiry:
		return inquiryTemplate, nil
	}
	return nil, errors.New(errors.ErrCodeProcedureUnsupported,
		"no deadline template for "+string(caseType)+"/"+string(procedure))
}
