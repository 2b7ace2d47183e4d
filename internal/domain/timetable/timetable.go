// Package timetable computes and validates the statutory deadline set for an
// appeal from business-day-aware policy templates.
package timetable

import (
	"context"
	"time"

	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// DeadlineName identifies one named deadline in an appeal's timetable.
type DeadlineName string

const (
	DeadlineQuestionnaireDue           DeadlineName = "questionnaire_due"
	DeadlineStatementDue               DeadlineName = "statement_due"
	DeadlineIPCommentsDue              DeadlineName = "ip_comments_due"
	DeadlineFinalCommentsDue           DeadlineName = "final_comments_due"
	DeadlineStatementOfCommonGroundDue DeadlineName = "statement_of_common_ground_due"
	DeadlineProofOfEvidenceDue         DeadlineName = "proof_of_evidence_due"
	DeadlinePlanningObligationDue      DeadlineName = "planning_obligation_due"
)

// Timetable is the one-to-one deadline record for an appeal. Deadlines are
// recomputed only by the Calculator; individual fields are never hand-edited
// without re-running Validate.
type Timetable struct {
	AppealID common.ID `json:"appeal_id"`

	// AnchorDate is the case-start (or procedure-change) date the offsets
	// were applied to.
	AnchorDate time.Time `json:"anchor_date"`

	// Deadlines maps deadline names to their business-day-corrected,
	// cutoff-stamped timestamps. Absence from the map means the deadline
	// does not exist for this appeal's procedure.
	Deadlines map[DeadlineName]time.Time `json:"deadlines"`

	ComputedAt time.Time `json:"computed_at"`
}

// Deadline returns the named deadline and whether it exists.
func (t *Timetable) Deadline(name DeadlineName) (time.Time, bool) {
	d, ok := t.Deadlines[name]
	return d, ok
}

// CommentWindowOpen reports whether interested-party comments are still
// accepted at now. Absent deadline means the window never opened.
func (t *Timetable) CommentWindowOpen(now time.Time) bool {
	due, ok := t.Deadlines[DeadlineIPCommentsDue]
	if !ok {
		return false
	}
	return !now.After(due)
}

// orderedPairs lists the chronological dependencies between deadlines:
// each later deadline must not precede its earlier counterpart when both
// are present.
var orderedPairs = [][2]DeadlineName{
	{DeadlineQuestionnaireDue, DeadlineStatementDue},
	{DeadlineStatementDue, DeadlineFinalCommentsDue},
	{DeadlineStatementDue, DeadlineProofOfEvidenceDue},
	{DeadlineQuestionnaireDue, DeadlineIPCommentsDue},
}

// Validate enforces the chronological-ordering invariant. A violation is a
// policy/configuration error, never a user error, and is reported loudly
// rather than silently reordered.
func (t *Timetable) Validate() error {
	for _, pair := range orderedPairs {
		earlier, okE := t.Deadlines[pair[0]]
		later, okL := t.Deadlines[pair[1]]
		if !okE || !okL {
			continue
		}
		if later.Before(earlier) {
			return errors.New(errors.ErrCodeTimetableInvariant,
				string(pair[1])+" precedes "+string(pair[0])).
				WithDetail("appeal_id=" + string(t.AppealID))
		}
	}
	return nil
}

// Repository is the persistence contract for timetables. The timetable is
// stored within the appeal aggregate's transactional boundary.
type Repository interface {
	GetTimetable(ctx context.Context, appealID common.ID) (*Timetable, error)
	UpsertTimetable(ctx context.Context, t *Timetable) error
}
